// Package detector inspects the terminal environment kiln runs in.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode selects how build progress is rendered.
type OutputMode int

const (
	// ModeAuto picks the mode from the environment.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive terminal UI.
	ModeTUI
	// ModeLinear forces prefixed line output.
	ModeLinear
)

// Environment describes the attached terminal.
type Environment struct {
	StdinTTY  bool
	StdoutTTY bool
	CI        bool
}

// Detect inspects the standard streams and the CI variable.
func Detect() Environment {
	return Environment{
		StdinTTY:  term.IsTerminal(int(os.Stdin.Fd())),
		StdoutTTY: term.IsTerminal(int(os.Stdout.Fd())),
		CI:        isCI(os.Getenv("CI")),
	}
}

// CanPrompt reports whether a yes/no question can be asked on stdin.
func (e Environment) CanPrompt() bool {
	return e.StdinTTY && !e.CI
}

// OutputMode returns the mode the environment supports: the TUI on an
// interactive terminal, linear output when piped or in CI.
func (e Environment) OutputMode() OutputMode {
	if !e.StdoutTTY || e.CI {
		return ModeLinear
	}
	return ModeTUI
}

// ResolveMode applies the --output-mode flag to the detected mode.
// flag is one of "auto", "tui", "linear", "ci" or empty; anything else
// keeps the detected mode.
func ResolveMode(detected OutputMode, flag string) OutputMode {
	switch flag {
	case "tui":
		return ModeTUI
	case "linear", "ci":
		return ModeLinear
	default:
		return detected
	}
}

func isCI(value string) bool {
	return value == "true" || value == "1"
}
