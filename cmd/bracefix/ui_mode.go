package main

import (
	"fmt"
	"os"
	"strings"

	"bracefix/internal/driver"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	mode := uiMode(strings.ToLower(strings.TrimSpace(value)))
	switch mode {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return mode, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// batchView is what the batch command knows when it picks between the
// progress screen and plain RunBatch.
type batchView struct {
	mode   uiMode
	format driver.ReportFormat
	quiet  bool
	items  int
}

// wantsProgressUI reports whether the Bubble Tea screen should run. Only
// the text report can follow it; json and yaml go to pipes. tty decides
// auto mode and is isTerminal outside tests.
func (v batchView) wantsProgressUI(tty func(*os.File) bool) bool {
	if v.format != driver.ReportText || v.quiet || v.items == 0 {
		return false
	}
	switch v.mode {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	return tty(os.Stdout) && tty(os.Stdin)
}
