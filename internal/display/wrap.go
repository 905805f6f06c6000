package display

import (
	"strings"

	"github.com/muesli/reflow/wordwrap"
)

const DefaultWidth = 80

// Wrap word-wraps text to DefaultWidth.
func Wrap(text string) string {
	return wordwrap.String(text, DefaultWidth)
}

// Preview reduces a narrative to its first wrapped line for log output.
func Preview(text string) string {
	wrapped := Wrap(strings.TrimSpace(text))
	line, _, more := strings.Cut(wrapped, "\n")
	if more {
		return line + "..."
	}
	return line
}
