// Package output renders command results for terminals, pipes and scripts.
package output

import (
	"fmt"
	"strings"
)

// OutputMode selects how results are rendered.
type OutputMode string

// Mode is shorthand used when converting config strings.
type Mode = OutputMode

const (
	// ModeAuto picks text on a TTY and markdown otherwise.
	ModeAuto OutputMode = "auto"
	// ModeText is styled terminal output.
	ModeText OutputMode = "text"
	// ModeMarkdown is plain markdown, suitable for pipes and CI logs.
	ModeMarkdown OutputMode = "markdown"
	// ModeJSON is machine-readable output.
	ModeJSON OutputMode = "json"
)

// Modes lists the accepted output modes.
func Modes() []OutputMode {
	return []OutputMode{ModeAuto, ModeText, ModeMarkdown, ModeJSON}
}

// ParseMode validates an output mode name. An empty string is ModeAuto.
func ParseMode(s string) (OutputMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ModeAuto, nil
	}
	if s == "md" {
		return ModeMarkdown, nil
	}
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid output format %q (want auto, text, markdown or json)", s)
}
