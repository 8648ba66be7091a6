package ipc

import (
	"fmt"
	"strings"
	"testing"
)

func startTestServer(t *testing.T, executor CommandExecutor) *PipeServer {
	t.Helper()
	server := NewPipeServer(testEndpointName(t), executor)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		if err := server.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return server
}

func TestPipeServerRoundTrip(t *testing.T) {
	server := startTestServer(t, ExecutorFunc(func(req Request) Response {
		switch req.Command {
		case CommandStatus:
			return Response{Stdout: "running\n"}
		case CommandNotify:
			return Response{Stdout: strings.Join(req.Args, ",") + "\n"}
		default:
			return ErrorResponse(fmt.Sprintf("unknown command %q", req.Command))
		}
	}))

	tests := []struct {
		name     string
		req      Request
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{name: "status", req: Request{Command: "status"}, wantOut: "running\n"},
		{name: "args forwarded", req: Request{Command: CommandNotify, Args: []string{"a", "b"}}, wantOut: "a,b\n"},
		{name: "unknown command", req: Request{Command: "bogus"}, wantCode: 1, wantErr: "unknown command \"bogus\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := Send(server.PipeName(), tt.req)
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}
			if resp.ExitCode != tt.wantCode || resp.Stdout != tt.wantOut || resp.Stderr != tt.wantErr {
				t.Fatalf("Send() = %+v, want exit=%d stdout=%q stderr=%q", resp, tt.wantCode, tt.wantOut, tt.wantErr)
			}
		})
	}
}

func TestPipeServerRecoversExecutorPanic(t *testing.T) {
	server := startTestServer(t, ExecutorFunc(func(req Request) Response {
		panic("executor exploded")
	}))

	resp, err := Send(server.PipeName(), Request{Command: CommandStatus})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if resp.ExitCode != 1 || !strings.Contains(resp.Stderr, "internal error") {
		t.Fatalf("Send() = %+v, want internal error response", resp)
	}

	// The server keeps serving after a panic.
	if _, err := Send(server.PipeName(), Request{Command: CommandStatus}); err != nil {
		t.Fatalf("second Send() error = %v", err)
	}
}

func TestPipeServerStartValidation(t *testing.T) {
	server := NewPipeServer(testEndpointName(t), nil)
	if err := server.Start(); err == nil {
		t.Fatal("Start() expected error without router")
	}

	running := startTestServer(t, ExecutorFunc(func(Request) Response { return Response{} }))
	if err := running.Start(); err == nil {
		t.Fatal("second Start() expected error")
	}
}

func TestPipeServerStopIdempotent(t *testing.T) {
	server := NewPipeServer(testEndpointName(t), ExecutorFunc(func(Request) Response { return Response{} }))
	if err := server.Stop(); err != nil {
		t.Fatalf("Stop() before Start error = %v", err)
	}
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := server.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestSendWithoutServerIsConnectionError(t *testing.T) {
	_, err := Send(testEndpointName(t), Request{Command: CommandPing})
	if err == nil {
		t.Fatal("Send() expected error without a server")
	}
	if !IsConnectionError(err) {
		t.Fatalf("IsConnectionError(%v) = false, want true", err)
	}
}

func TestIsConnectionErrorNil(t *testing.T) {
	if IsConnectionError(nil) {
		t.Fatal("IsConnectionError(nil) = true, want false")
	}
}

func TestPipeServerRejectsMalformedRequest(t *testing.T) {
	server := startTestServer(t, ExecutorFunc(func(Request) Response {
		t.Error("executor should not run for a malformed request")
		return Response{}
	}))

	conn, err := dialEndpoint(server.PipeName(), clientDialTimeout)
	if err != nil {
		t.Fatalf("dialEndpoint() error = %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write([]byte("not json\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw, err := readFrame(newFrameReader(conn))
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	if !strings.Contains(string(raw), "invalid request") {
		t.Fatalf("response = %s, want invalid request", raw)
	}
}
