package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsize cuts s to fit width terminal cells, marking the cut with an ellipsis.
func Ellipsize(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// PadRight fills s with spaces up to width terminal cells.
func PadRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
