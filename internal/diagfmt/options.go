package diagfmt

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ColorMode selects when output is coloured.
type ColorMode uint8

const (
	// ColorAuto colours only when writing to a terminal.
	ColorAuto ColorMode = iota
	ColorOn
	ColorOff
)

func (m ColorMode) String() string {
	switch m {
	case ColorOn:
		return "on"
	case ColorOff:
		return "off"
	default:
		return "auto"
	}
}

// ParseColorMode accepts auto, on/always, off/never.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ColorAuto, nil
	case "on", "always", "true":
		return ColorOn, nil
	case "off", "never", "false":
		return ColorOff, nil
	}
	return ColorAuto, fmt.Errorf("unknown color mode %q (want auto, on or off)", s)
}

// Enabled resolves the mode for f. Auto honours NO_COLOR.
func (m ColorMode) Enabled(f *os.File) bool {
	switch m {
	case ColorOn:
		return true
	case ColorOff:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color       bool
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
	// MaxFixes limits listed fixes per diagnostic, 0 - без ограничений
	MaxFixes int
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max             int // обрезка вывода
	IncludeNotes    bool
	IncludeFixes    bool
	IncludePreviews bool
}
