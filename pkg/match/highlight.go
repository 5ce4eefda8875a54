package match

import (
	"strings"

	"github.com/bastiangx/pickserve/pkg/option"
)

// Highlight wraps every span of text with style and leaves the rest untouched.
// Spans out of range or out of order are clamped or skipped.
func Highlight(text string, spans []option.Span, style func(string) string) string {
	if len(spans) == 0 || style == nil {
		return text
	}

	var b strings.Builder
	pos := 0
	for _, s := range spans {
		start, end := max(s.Start, pos), min(s.End, len(text))
		if start >= end {
			continue
		}
		b.WriteString(text[pos:start])
		b.WriteString(style(text[start:end]))
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}
