// Package render implements the CLI's headless terminal front-end: a
// colorized snapshot/watch view of channel and widget state, grounded on
// the teacher's internal/output and internal/format packages (painting
// the actual widget tree's pixels is out of scope per spec.md §1 — this
// package reports on it instead, the way a headless monitor would).
package render

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/epics-extensions/qtedm-runtime/internal/palette"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	white  = color.New(color.FgHiWhite).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
)

// SeverityLabel colors a severity per the alarm palette (§4.1 glossary):
// None=green, Minor=yellow, Major=red, Invalid=bold white.
func SeverityLabel(severity int) string {
	switch palette.Severity(severity) {
	case palette.SeverityNone:
		return green("OK")
	case palette.SeverityMinor:
		return yellow("MINOR")
	case palette.SeverityMajor:
		return red("MAJOR")
	case palette.SeverityInvalid:
		return bold(white("INVALID"))
	default:
		return dim("—")
	}
}

// ConnectedLabel colors a channel's connection state.
func ConnectedLabel(connected bool) string {
	if connected {
		return green("connected")
	}
	return red("disconnected")
}

// DisableColors turns off ANSI output, for non-TTY or piped invocations.
func DisableColors() {
	color.NoColor = true
}

// Rate formats an update rate in Hz to one decimal place, dimmed when zero.
func Rate(hz float64) string {
	s := fmt.Sprintf("%.1f/s", hz)
	if hz == 0 {
		return dim(s)
	}
	return s
}
