package cli

import (
	"strings"
	"testing"

	"github.com/bastiangx/pickserve/pkg/catalog"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestFormatMatches(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	matches := []option.Match{
		{Option: option.Option{Label: "John Smith", Value: "js1"}, Score: option.ScorePrefix, Matched: option.TargetLabel, Slices: []option.Span{{Start: 0, End: 3}}},
		{Option: option.Option{Label: "Johnson", Value: "js2"}, Score: 0.5, Matched: option.TargetLabel},
	}
	lines := formatMatches(matches)
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	for i, want := range []string{" 1. John Smith", " 2. Johnson"} {
		if !strings.HasPrefix(lines[i], want) {
			t.Errorf("line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[0], "(js1) prefix") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "overlap 0.50") {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestTierName(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{option.ScoreExact, "exact"},
		{option.ScoreCaseInsensitive, "case"},
		{option.ScoreAccentInsensitive, "accent"},
		{option.ScorePrefix, "prefix"},
		{1, "overlap 1.00"},
		{0, "none"},
	}
	for _, tt := range tests {
		if got := tierName(tt.score); got != tt.want {
			t.Errorf("tierName(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestRunStopsAtEOF(t *testing.T) {
	cat, err := catalog.New([]option.Option{{Label: "John Smith", Value: "js1"}}, "en")
	if err != nil {
		t.Fatal(err)
	}
	h := NewInputHandler(cat, 0, 10, 5, "en", false)
	if err := h.Run(strings.NewReader("joh\n\n!!!\nthis query is far too long\nsmith")); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.requestCount != 4 {
		t.Errorf("handled %d queries, want 4", h.requestCount)
	}
}
