package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

const (
	clientDialTimeout    = 3 * time.Second
	clientRequestTimeout = 15 * time.Second
)

// Send delivers req to the instance listening on pipeName and waits for its
// reply. An empty pipeName means DefaultPipeName.
func Send(pipeName string, req Request) (Response, error) {
	if pipeName == "" {
		pipeName = DefaultPipeName()
	}
	conn, err := dialEndpoint(pipeName, clientDialTimeout)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(clientRequestTimeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}
	if err := writeFrame(conn, req); err != nil {
		return Response{}, fmt.Errorf("send %q: %w", req.Command, err)
	}
	raw, err := readFrame(newFrameReader(conn))
	if err != nil {
		return Response{}, fmt.Errorf("read reply to %q: %w", req.Command, err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

// IsConnectionError reports whether err means no instance is listening.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && (opErr.Op == "dial" || opErr.Op == "open")
}
