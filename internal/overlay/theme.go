package overlay

// Color is a 0xRRGGBB colour.
type Color uint32

// RGB splits c into its components.
func (c Color) RGB() (r, g, b uint8) {
	return uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// Palette is the colour set of one theme.
type Palette struct {
	Background Color
	Panel      Color
	Border     Color
	Glow       Color
	TextBright Color
	TextDim    Color

	Yellow Color
	Green  Color
	Red    Color
	Cyan   Color
	Orange Color
}

var (
	lightPalette = Palette{
		Background: 0xFFFFFF,
		Panel:      0xF8F8F8,
		Border:     0xE0E0E0,
		Glow:       0xF0F0F0,
		TextBright: 0x333333,
		TextDim:    0x666666,
		Yellow:     0xE6E6B3,
		Green:      0xB3E6CC,
		Red:        0xE6B3C2,
		Cyan:       0xB3E6E6,
		Orange:     0xE6D4B3,
	}

	// The dark theme is deliberately low contrast so the overlay stays
	// unobtrusive over full-screen content.
	darkPalette = Palette{
		Background: 0x0D0D0D,
		Panel:      0x1A1A1A,
		Border:     0x1F1F1F,
		Glow:       0x1A1A1A,
		TextBright: 0x4D4D4D,
		TextDim:    0x2A2A2A,
		Yellow:     0x3D3D1A,
		Green:      0x1A3D2B,
		Red:        0x3D1A26,
		Cyan:       0x1A3D3D,
		Orange:     0x3D2B1A,
	}
)

// PaletteFor returns the palette of theme. Unknown themes get the light one.
func PaletteFor(theme Theme) Palette {
	if theme == ThemeDark {
		return darkPalette
	}
	return lightPalette
}

// Accent returns the severity colour used for the top bar, title and
// countdown bar.
func (p Palette) Accent(s Severity) Color {
	switch s {
	case SeverityError:
		return p.Red
	case SeverityInfo:
		return p.Cyan
	case SeverityWarning:
		return p.Orange
	default:
		return p.Green
	}
}

// MessageColor is the colour of the body text.
func (p Palette) MessageColor() Color { return p.Yellow }

// Icon returns the glyph shown before the title.
func Icon(s Severity) string {
	switch s {
	case SeveritySuccess:
		return "✓"
	case SeverityError:
		return "✕"
	case SeverityInfo:
		return "ℹ"
	case SeverityWarning:
		return "⚠"
	default:
		return "•"
	}
}
