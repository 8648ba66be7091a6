package ipc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"snapcap/internal/workerutil"
)

const (
	serverConnTimeout  = 30 * time.Second
	serverMaxConns     = 8
	acceptBackoffFloor = 5 * time.Millisecond
	acceptBackoffCeil  = time.Second
)

var busyResponse = Response{ExitCode: 1, Stderr: "snapcap is busy, try again\n"}

// PipeServer answers `snapcap ctl` requests, one request per connection.
type PipeServer struct {
	pipeName string
	exec     CommandExecutor

	mu       sync.Mutex
	listener net.Listener
	closing  chan struct{}
	conns    sync.WaitGroup
	slots    chan struct{}
}

// NewPipeServer creates a server for pipeName. An empty name means
// DefaultPipeName.
func NewPipeServer(pipeName string, exec CommandExecutor) *PipeServer {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}
	return &PipeServer{pipeName: pipeName, exec: exec}
}

// PipeName returns the endpoint the server listens on.
func (s *PipeServer) PipeName() string {
	return s.pipeName
}

// Start binds the endpoint and begins accepting in the background.
func (s *PipeServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("pipe server already started")
	}
	if s.exec == nil {
		return errors.New("pipe server requires a command executor")
	}
	listener, err := listenEndpoint(s.pipeName)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.pipeName, err)
	}
	s.listener = listener
	s.closing = make(chan struct{})
	s.slots = make(chan struct{}, serverMaxConns)
	s.conns.Go(func() { s.acceptLoop(listener, s.closing) })
	return nil
}

// Stop closes the listener and waits for in-flight requests. Safe to call
// more than once.
func (s *PipeServer) Stop() error {
	s.mu.Lock()
	listener := s.listener
	if listener == nil {
		s.mu.Unlock()
		return nil
	}
	s.listener = nil
	close(s.closing)
	s.mu.Unlock()

	err := listener.Close()
	s.conns.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close %s: %w", s.pipeName, err)
	}
	return nil
}

func (s *PipeServer) acceptLoop(listener net.Listener, closing <-chan struct{}) {
	backoff := workerutil.Backoff{Initial: acceptBackoffFloor, Max: acceptBackoffCeil}
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-closing:
				return
			default:
			}
			delay := backoff.Next()
			slog.Warn("[ipc] accept failed, retrying", "error", err, "backoff", delay)
			select {
			case <-closing:
				return
			case <-time.After(delay):
			}
			continue
		}
		backoff.Reset()

		select {
		case s.slots <- struct{}{}:
		default:
			slog.Warn("[ipc] too many control connections, rejecting client", "limit", serverMaxConns)
			_ = conn.SetDeadline(time.Now().Add(time.Second))
			_ = writeFrame(conn, busyResponse)
			_ = conn.Close()
			continue
		}
		s.conns.Go(func() {
			defer func() { <-s.slots }()
			s.serveConn(conn)
		})
	}
}

func (s *PipeServer) serveConn(conn net.Conn) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(serverConnTimeout)); err != nil {
		slog.Warn("[ipc] set connection deadline failed", "error", err)
		return
	}

	raw, err := readFrame(newFrameReader(conn))
	if errors.Is(err, io.EOF) {
		slog.Debug("[DEBUG-IPC] client closed without a request")
		return
	}
	if err != nil {
		s.reply(conn, ErrorResponse("invalid request: "+err.Error()))
		return
	}
	req, err := decodeRequest(raw)
	if err != nil {
		s.reply(conn, ErrorResponse("invalid request: "+err.Error()))
		return
	}

	started := time.Now()
	resp := s.dispatch(req)
	slog.Debug("[DEBUG-IPC] request served",
		"command", req.Command,
		"exitCode", resp.ExitCode,
		"elapsed", time.Since(started),
	)
	s.reply(conn, resp)
}

func (s *PipeServer) reply(conn net.Conn, resp Response) {
	if err := writeFrame(conn, resp); err != nil {
		slog.Debug("[DEBUG-IPC] write response failed", "error", err)
	}
}

// dispatch runs the executor behind a panic boundary so one bad command
// leaves the server running.
func (s *PipeServer) dispatch(req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ipc] command executor panicked", "command", req.Command, "panic", r)
			resp = ErrorResponse(fmt.Sprintf("internal error executing %q", req.Command))
		}
	}()
	return s.exec.Execute(req)
}
