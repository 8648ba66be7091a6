package overlay

const (
	topMargin  = 30
	edgeMargin = 20
)

// Rect is a screen rectangle in pixels; Right and Bottom are exclusive.
type Rect struct {
	Left, Top, Right, Bottom int
}

// Width returns the horizontal extent.
func (r Rect) Width() int { return r.Right - r.Left }

// Height returns the vertical extent.
func (r Rect) Height() int { return r.Bottom - r.Top }

// ResolvePosition places a w x h window inside the work area. Unknown presets
// fall back to top-center. The result is clamped to non-negative coordinates.
func ResolvePosition(work Rect, w, h int, p Position) (x, y int) {
	switch p {
	case PositionCenter:
		x = work.Left + (work.Width()-w)/2
		y = work.Top + (work.Height()-h)/2
	case PositionBottomRight:
		x = work.Left + work.Width() - w - edgeMargin
		y = work.Top + work.Height() - h - edgeMargin
	default:
		x = work.Left + (work.Width()-w)/2
		y = work.Top + topMargin
	}
	return max(0, x), max(0, y)
}
