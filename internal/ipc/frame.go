package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxFrameBytes bounds one request or response line.
const maxFrameBytes = 64 * 1024

// ErrFrameTooLarge is returned when a peer sends a line longer than the
// frame limit.
var ErrFrameTooLarge = errors.New("ipc frame too large")

// Each frame is one JSON document followed by '\n'.
func writeFrame(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	_, err = w.Write(append(raw, '\n'))
	return err
}

func newFrameReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, maxFrameBytes+1)
}

// readFrame returns the next frame without its delimiter. A trailing frame
// cut off by EOF is still returned; an exhausted stream yields io.EOF.
func readFrame(r *bufio.Reader) ([]byte, error) {
	raw, err := r.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFrameTooLarge, maxFrameBytes)
	case errors.Is(err, io.EOF):
		if len(raw) == 0 {
			return nil, io.EOF
		}
	case err != nil:
		return nil, err
	}
	return bytes.TrimRight(raw, "\r\n"), nil
}
