package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kbinani/screenshot"
)

// Grabber produces one encoded screen image.
type Grabber interface {
	Grab(ctx context.Context) ([]byte, error)
}

// ScreenGrabber captures displays through kbinani/screenshot and encodes the
// result as PNG.
type ScreenGrabber struct {
	// AllDisplays captures the union of every active display instead of the
	// primary one.
	AllDisplays bool

	// test seams
	numDisplays   func() int
	displayBounds func(int) image.Rectangle
	captureRect   func(image.Rectangle) (*image.RGBA, error)
}

// NewScreenGrabber returns a grabber for the primary display, or all
// displays when allDisplays is set.
func NewScreenGrabber(allDisplays bool) *ScreenGrabber {
	return &ScreenGrabber{
		AllDisplays:   allDisplays,
		numDisplays:   screenshot.NumActiveDisplays,
		displayBounds: screenshot.GetDisplayBounds,
		captureRect:   screenshot.CaptureRect,
	}
}

// ErrNoDisplay is returned when no active display is reported.
var ErrNoDisplay = errors.New("no active display")

// Grab captures and PNG-encodes the configured display area.
func (g *ScreenGrabber) Grab(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bounds, err := g.bounds()
	if err != nil {
		return nil, err
	}
	img, err := g.captureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("capture screen %v: %w", bounds, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode capture: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *ScreenGrabber) bounds() (image.Rectangle, error) {
	n := g.numDisplays()
	if n <= 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	if !g.AllDisplays {
		return g.displayBounds(0), nil
	}
	union := g.displayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(g.displayBounds(i))
	}
	return union, nil
}
