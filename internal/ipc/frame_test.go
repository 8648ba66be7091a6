package ipc

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadFrame(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "delimited", input: `{"command":"status"}` + "\n", want: `{"command":"status"}`},
		{name: "crlf", input: `{"command":"ping"}` + "\r\n", want: `{"command":"ping"}`},
		{name: "missing delimiter at eof", input: `{"exit_code":0}`, want: `{"exit_code":0}`},
		{name: "empty stream", input: "", wantErr: io.EOF},
		{name: "oversized", input: strings.Repeat("a", maxFrameBytes+1) + "\n", wantErr: ErrFrameTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := readFrame(newFrameReader(strings.NewReader(tt.input)))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("readFrame() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("readFrame() error = %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("readFrame() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFrameSequence(t *testing.T) {
	reader := newFrameReader(strings.NewReader("{\"a\":1}\n{\"b\":2}\n"))
	for _, want := range []string{`{"a":1}`, `{"b":2}`} {
		got, err := readFrame(reader)
		if err != nil {
			t.Fatalf("readFrame() error = %v", err)
		}
		if string(got) != want {
			t.Fatalf("readFrame() = %q, want %q", got, want)
		}
	}
	if _, err := readFrame(reader); !errors.Is(err, io.EOF) {
		t.Fatalf("readFrame() after last frame error = %v, want io.EOF", err)
	}
}

func TestWriteFrameThenDecodeRequest(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, Request{Command: " History ", Args: []string{"3"}}); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		t.Fatalf("frame %q is not newline terminated", buf.String())
	}
	raw, err := readFrame(newFrameReader(&buf))
	if err != nil {
		t.Fatalf("readFrame() error = %v", err)
	}
	req, err := decodeRequest(raw)
	if err != nil {
		t.Fatalf("decodeRequest() error = %v", err)
	}
	if req.Command != CommandHistory || len(req.Args) != 1 || req.Args[0] != "3" {
		t.Fatalf("decodeRequest() = %+v", req)
	}
}

func TestWriteFrameEncodeError(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, make(chan int)); err == nil {
		t.Fatal("writeFrame() expected an encode error")
	}
	if buf.Len() != 0 {
		t.Fatalf("writeFrame() wrote %q on encode failure", buf.String())
	}
}
