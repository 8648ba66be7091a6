package main

import (
	"bytes"
	"errors"
	"net"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"snapcap/internal/ipc"
)

func stubSend(t *testing.T, fn func(pipeName string, req ipc.Request) (ipc.Response, error)) {
	t.Helper()
	orig := sendFn
	t.Cleanup(func() { sendFn = orig })
	sendFn = fn
}

func TestRunCtlRelaysResponse(t *testing.T) {
	var gotReq ipc.Request
	stubSend(t, func(_ string, req ipc.Request) (ipc.Response, error) {
		gotReq = req
		return ipc.Response{ExitCode: 3, Stdout: "out\n", Stderr: "err\n"}, nil
	})
	var stdout, stderr bytes.Buffer

	code := run([]string{"ctl", "history", "5"}, &stdout, &stderr)

	if code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	if gotReq.Command != "history" || !slices.Equal(gotReq.Args, []string{"5"}) {
		t.Fatalf("request = %+v, want history [5]", gotReq)
	}
	if stdout.String() != "out\n" || stderr.String() != "err\n" {
		t.Fatalf("stdout = %q stderr = %q", stdout.String(), stderr.String())
	}
}

func TestRunCtlErrors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		sendErr    error
		wantCode   int
		wantStderr string
	}{
		{
			name:       "missing command",
			args:       []string{"ctl"},
			wantCode:   2,
			wantStderr: "ctl requires a command",
		},
		{
			name:       "not running",
			args:       []string{"ctl", "ping"},
			sendErr:    &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			wantCode:   1,
			wantStderr: "snapcap is not running",
		},
		{
			name:       "other failure",
			args:       []string{"ctl", "ping"},
			sendErr:    errors.New("frame too large"),
			wantCode:   1,
			wantStderr: "control request failed: frame too large",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubSend(t, func(string, ipc.Request) (ipc.Response, error) {
				return ipc.Response{}, tt.sendErr
			})
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Fatalf("stderr = %q, want %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}

func TestRunArgumentErrors(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{name: "unknown command", args: []string{"explode"}, wantCode: 2, wantStderr: `unknown command "explode"`},
		{name: "run with arguments", args: []string{"run", "now"}, wantCode: 2, wantStderr: "run takes no arguments"},
		{name: "unknown flag", args: []string{"-nope"}, wantCode: 2, wantStderr: "flag provided but not defined"},
		{name: "help", args: []string{"-h"}, wantCode: 0, wantStderr: "usage: snapcap"},
		{
			name:       "bad log level",
			args:       []string{"-config", filepath.Join(t.TempDir(), "config.yaml"), "-log-level", "loud"},
			wantCode:   2,
			wantStderr: `unknown log level "loud"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tt.args, &stdout, &stderr)
			if code != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (stderr %q)", code, tt.wantCode, stderr.String())
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Fatalf("stderr = %q, want it to contain %q", stderr.String(), tt.wantStderr)
			}
		})
	}
}
