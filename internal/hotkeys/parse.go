package hotkeys

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a RegisterHotKey modifier mask (MOD_*).
type Modifier uint32

// VKey is a Win32 virtual-key code.
type VKey uint32

const (
	modAlt     Modifier = 0x0001
	modControl Modifier = 0x0002
	modShift   Modifier = 0x0004
	modWin     Modifier = 0x0008

	// modNoRepeat suppresses WM_HOTKEY auto-repeat while the chord is held.
	modNoRepeat Modifier = 0x4000
)

const (
	vkTab      VKey = 0x09
	vkReturn   VKey = 0x0D
	vkEscape   VKey = 0x1B
	vkSpace    VKey = 0x20
	vkLeft     VKey = 0x25
	vkUp       VKey = 0x26
	vkRight    VKey = 0x27
	vkDown     VKey = 0x28
	vkSnapshot VKey = 0x2C
	vkDelete   VKey = 0x2E
	vkF1       VKey = 0x70
	vkF11      VKey = 0x7A
	vkF12      VKey = 0x7B
	vkOem3     VKey = 0xC0

	functionKeyCount = 24
)

// VKSnapshot is the virtual-key code of the Print Screen key.
const VKSnapshot = vkSnapshot

var errEmptyChord = errors.New("hotkey chord is empty")

// Binding is one parsed chord. Build it with ParseBinding.
type Binding struct {
	modifiers Modifier
	key       VKey
	label     string
}

func (b Binding) Modifiers() Modifier { return b.modifiers }
func (b Binding) Key() VKey           { return b.key }

// Normalized renders the chord with modifiers in Ctrl, Alt, Shift, Win order.
func (b Binding) Normalized() string { return b.label }
func (b Binding) String() string     { return b.label }

type modifierSpec struct {
	mask  Modifier
	label string
	names []string
}

// modifierSpecs is listed in display order.
var modifierSpecs = []modifierSpec{
	{modControl, "Ctrl", []string{"CTRL", "CONTROL"}},
	{modAlt, "Alt", []string{"ALT"}},
	{modShift, "Shift", []string{"SHIFT"}},
	{modWin, "Win", []string{"WIN", "SUPER"}},
}

type keySpec struct {
	vk    VKey
	label string
}

var keyAliases = map[string]keySpec{
	"SPACE":       {vkSpace, "SPACE"},
	"TAB":         {vkTab, "TAB"},
	"ENTER":       {vkReturn, "ENTER"},
	"RETURN":      {vkReturn, "ENTER"},
	"ESC":         {vkEscape, "ESC"},
	"ESCAPE":      {vkEscape, "ESC"},
	"DELETE":      {vkDelete, "DELETE"},
	"LEFT":        {vkLeft, "LEFT"},
	"RIGHT":       {vkRight, "RIGHT"},
	"UP":          {vkUp, "UP"},
	"DOWN":        {vkDown, "DOWN"},
	"PRINTSCREEN": {vkSnapshot, "PRINTSCREEN"},
	"PRTSC":       {vkSnapshot, "PRINTSCREEN"},
	"SNAPSHOT":    {vkSnapshot, "PRINTSCREEN"},
	"`":           {vkOem3, "`"},
	"BACKQUOTE":   {vkOem3, "`"},
	"GRAVE":       {vkOem3, "`"},
}

func lookupModifier(token string) (modifierSpec, bool) {
	upper := strings.ToUpper(token)
	for _, m := range modifierSpecs {
		for _, name := range m.names {
			if name == upper {
				return m, true
			}
		}
	}
	return modifierSpec{}, false
}

// ParseBinding reads a chord such as "Ctrl+Shift+F11". Matching is
// case-insensitive and repeated modifiers collapse. A bare key is rejected:
// RegisterHotKey chords need at least one modifier.
func ParseBinding(text string) (Binding, error) {
	chord := strings.TrimSpace(text)
	if chord == "" {
		return Binding{}, errEmptyChord
	}
	tokens := strings.Split(chord, "+")
	if len(tokens) == 1 {
		return Binding{}, fmt.Errorf("hotkey %q needs modifiers and key", chord)
	}

	var mask Modifier
	for _, tok := range tokens[:len(tokens)-1] {
		m, ok := lookupModifier(strings.TrimSpace(tok))
		if !ok {
			return Binding{}, fmt.Errorf("hotkey %q: unknown modifier %q", chord, tok)
		}
		mask |= m.mask
	}
	key, err := parseKeyToken(strings.TrimSpace(tokens[len(tokens)-1]))
	if err != nil {
		return Binding{}, fmt.Errorf("hotkey %q: %w", chord, err)
	}

	var label strings.Builder
	for _, m := range modifierSpecs {
		if mask&m.mask != 0 {
			label.WriteString(m.label)
			label.WriteByte('+')
		}
	}
	label.WriteString(key.label)
	return Binding{modifiers: mask, key: key.vk, label: label.String()}, nil
}

func parseKeyToken(token string) (keySpec, error) {
	if token == "" {
		return keySpec{}, errors.New("missing key token")
	}
	upper := strings.ToUpper(token)
	if k, ok := keyAliases[upper]; ok {
		return k, nil
	}
	if len(upper) == 1 && (upper[0] >= 'A' && upper[0] <= 'Z' || upper[0] >= '0' && upper[0] <= '9') {
		return keySpec{VKey(upper[0]), upper}, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(upper, "F")); err == nil && upper[0] == 'F' {
		if n < 1 || n > functionKeyCount {
			return keySpec{}, fmt.Errorf("function key %q out of range F1-F%d", token, functionKeyCount)
		}
		return keySpec{vkF1 + VKey(n-1), upper}, nil
	}
	if hex, ok := strings.CutPrefix(upper, "0X"); ok {
		code, err := strconv.ParseUint(hex, 16, 8)
		if err != nil {
			return keySpec{}, fmt.Errorf("invalid virtual-key code %q", token)
		}
		if code == 0 {
			return keySpec{}, errors.New("virtual-key code 0x00 is not a key")
		}
		return keySpec{VKey(code), fmt.Sprintf("0x%02X", code)}, nil
	}
	return keySpec{}, fmt.Errorf("unknown key %q", token)
}
