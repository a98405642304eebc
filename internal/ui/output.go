package ui

import (
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

var (
	out      = colorable.NewColorableStdout()
	useColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())

	green  = ansi.ColorFunc("green")
	red    = ansi.ColorFunc("red")
	yellow = ansi.ColorFunc("yellow")
	cyan   = ansi.ColorFunc("cyan")
)

// Interactive reports whether stdin is a terminal, i.e. prompting is viable.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
}

// SetColor overrides color auto-detection ("always" or "never").
func SetColor(mode string) {
	switch mode {
	case "always":
		useColor = true
	case "never":
		useColor = false
	}
}

func paint(f func(string) string, s string) string {
	if !useColor {
		return s
	}
	return f(s)
}

// Success prints a success message with checkmark
func Success(message string) {
	fmt.Fprintf(out, "%s %s\n", paint(green, "✓"), message)
}

// Error prints an error message
func Error(message string) {
	fmt.Fprintf(out, "%s %s\n", paint(red, "✗"), message)
}

// Info prints an info message
func Info(message string) {
	fmt.Fprintf(out, "%s %s\n", paint(cyan, "ℹ"), message)
}

// Warning prints a warning message
func Warning(message string) {
	fmt.Fprintf(out, "%s %s\n", paint(yellow, "⚠"), message)
}
