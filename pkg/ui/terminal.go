package ui

import (
	"os"
	"sync"

	"golang.org/x/term"
)

var (
	colorOnce sync.Once
	colorOK   bool
)

// ColorTerminal reports whether stdout can render ANSI colors.
// Returns false when output is piped, redirected, TERM is "dumb",
// or NO_COLOR is set (https://no-color.org).
func ColorTerminal() bool {
	colorOnce.Do(func() {
		if os.Getenv("NO_COLOR") != "" {
			return
		}
		if os.Getenv("TERM") == "dumb" {
			return
		}
		colorOK = term.IsTerminal(int(os.Stdout.Fd()))
	})
	return colorOK
}

// StdinPiped reports whether stdin is a pipe rather than a terminal,
// i.e. whether targets may be read from it.
func StdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
