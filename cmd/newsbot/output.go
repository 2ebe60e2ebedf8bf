package main

import (
	"fmt"
	"os"
)

// ANSI SGR codes for terminal output, suppressed by --no-color.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

func paint(code, s string) string {
	if noColor {
		return s
	}
	return code + s + ansiReset
}

// notef writes one result or progress line to stderr, prefixed with a
// colored sigil. All CLI feedback goes through here so stdout stays free
// for machine-readable output.
func notef(code, sigil, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", paint(code, sigil), fmt.Sprintf(format, args...))
}

func printSuccess(format string, args ...any) { notef(ansiGreen, "✓", format, args...) }
func printError(format string, args ...any)   { notef(ansiRed, "✗", format, args...) }
func printWarning(format string, args ...any) { notef(ansiYellow, "!", format, args...) }
func printStep(format string, args ...any)    { notef(ansiCyan, "→", format, args...) }

// printStatus writes one indented "Label: value" line of the status report.
func printStatus(label, format string, args ...any) {
	fmt.Fprintf(os.Stderr, "  %s %s\n", paint(ansiBold, label+":"), fmt.Sprintf(format, args...))
}
