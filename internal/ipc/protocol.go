package ipc

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"snapcap/internal/userutil"
)

// Control commands understood by the running instance.
const (
	CommandPing    = "ping"
	CommandStatus  = "status"
	CommandRecall  = "recall"
	CommandDismiss = "dismiss"
	CommandHistory = "history"
	CommandStop    = "stop"
	// CommandNotify shows Args[0] as an info overlay. A second `snapcap run`
	// uses it to tell the first instance it was started again.
	CommandNotify = "notify"
)

// pipeEnvOverride names the environment variable that replaces the default
// endpoint. Values must still pass platform validation.
const pipeEnvOverride = "SNAPCAP_PIPE"

// Request is a single control command.
type Request struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Response is the reply to one Request.
type Response struct {
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
}

// CommandExecutor handles a control request and returns a response.
type CommandExecutor interface {
	Execute(req Request) Response
}

// ExecutorFunc adapts a function to CommandExecutor.
type ExecutorFunc func(req Request) Response

// Execute calls f(req).
func (f ExecutorFunc) Execute(req Request) Response { return f(req) }

// ErrorResponse builds a failed response with a newline-terminated message.
func ErrorResponse(message string) Response {
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}
	return Response{ExitCode: 1, Stderr: message}
}

// DefaultPipeName is SNAPCAP_PIPE when it names a valid endpoint for this
// platform, else the per-user endpoint.
func DefaultPipeName() string {
	if v := strings.TrimSpace(os.Getenv(pipeEnvOverride)); v != "" {
		if validEndpoint(v) {
			return v
		}
		slog.Warn("[ipc] ignoring "+pipeEnvOverride, "value", v)
	}
	return userEndpoint(userutil.Name())
}

// decodeRequest parses one request frame. Command names are matched
// case-insensitively.
func decodeRequest(raw []byte) (Request, error) {
	var req Request
	err := json.Unmarshal(raw, &req)
	if err != nil {
		return Request{}, err
	}
	req.Command = strings.ToLower(strings.TrimSpace(req.Command))
	if req.Args == nil {
		req.Args = []string{}
	}
	return req, nil
}
