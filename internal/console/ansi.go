// Package console provides the interactive roll console: a line-oriented
// REPL that parses dice commands, expands macros, pipes results into Lua
// interpretation functions, and renders results with ANSI color.
package console

import (
	"fmt"
	"regexp"
)

// ANSI escape codes used by the console.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Cyan    = "\033[36m"
	Magenta = "\033[35m"

	BrightRed   = "\033[91m"
	BrightGreen = "\033[92m"
	BrightWhite = "\033[97m"
)

// Painter applies ANSI styling when enabled and passes text through otherwise.
type Painter struct {
	Enabled bool
}

// Paint wraps text with code and a reset suffix.
//
// Precondition: code must be a valid ANSI escape sequence.
// Postcondition: Returns text unchanged when p is disabled or text is empty.
func (p Painter) Paint(code, text string) string {
	if !p.Enabled || text == "" {
		return text
	}
	return code + text + Reset
}

// Paintf formats and paints in one step.
func (p Painter) Paintf(code, format string, args ...interface{}) string {
	return p.Paint(code, fmt.Sprintf(format, args...))
}

var ansiPattern = regexp.MustCompile("\033\\[[0-9;]*m")

// StripANSI removes all ANSI SGR sequences from s.
//
// Postcondition: Returns s with every \033[...m sequence removed.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
