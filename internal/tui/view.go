package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/bastiangx/pickserve/pkg/combobox"
	"github.com/bastiangx/pickserve/pkg/match"
	"github.com/bastiangx/pickserve/pkg/navigation"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/charmbracelet/lipgloss"
)

const ellipsis = "…"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	hintStyle      = lipgloss.NewStyle().Faint(true)
	activeStyle    = lipgloss.NewStyle().Reverse(true)
	disabledStyle  = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#d7827e", Dark: "#ea9a97"})
	chipStyle      = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	invalidStyle   = chipStyle.Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#b4637a", Dark: "#eb6f92"})
)

func highlight(s string) string { return highlightStyle.Render(s) }

// row is one drawn line of the open list.
type row struct {
	value   string
	match   option.Match
	create  bool
	divider bool
}

// buildRows lays out the list as drawn: the create entry first, then every
// match including disabled ones and dividers.
func buildRows(v combobox.View) []row {
	rows := make([]row, 0, len(v.Matches)+1)
	if v.List.Create != "" {
		rows = append(rows, row{value: v.List.Create, create: true})
	}
	for _, m := range v.Matches {
		rows = append(rows, row{value: m.Value, match: m, divider: m.Divider})
	}
	return rows
}

func rowIndex(rows []row, value string) int {
	if value == "" {
		return -1
	}
	return slices.IndexFunc(rows, func(r row) bool { return !r.divider && r.value == value })
}

func renderSelection(v combobox.View) string {
	if len(v.Selected) == 0 {
		return hintStyle.Render("nothing selected")
	}
	chips := make([]string, len(v.Selected))
	for i, value := range v.Selected {
		label := value
		if o, ok := v.Lookup[value]; ok {
			label = o.Label
		}
		if slices.Contains(v.Invalid, value) {
			chips[i] = invalidStyle.Render(label + " ?")
			continue
		}
		chips[i] = chipStyle.Render(label)
	}
	return strings.Join(chips, " ")
}

func renderList(v combobox.View, window navigation.Window, width int) string {
	var sb strings.Builder

	switch {
	case v.Err != nil:
		sb.WriteString(errorStyle.Render("error: "+v.Err.Error()) + "\n")
	case v.Loading && len(v.Matches) == 0:
		sb.WriteString(hintStyle.Render("loading…") + "\n")
	case len(v.Matches) == 0 && v.List.Create == "":
		sb.WriteString(hintStyle.Render("no matches") + "\n")
	}

	rows := buildRows(v)
	start, end := window.Bounds(len(rows))
	if start > 0 {
		sb.WriteString(hintStyle.Render(fmt.Sprintf("  ↑ %d more", start)) + "\n")
	}
	for _, r := range rows[start:end] {
		sb.WriteString(renderRow(r, v, width) + "\n")
	}
	if end < len(rows) {
		sb.WriteString(hintStyle.Render(fmt.Sprintf("  ↓ %d more", len(rows)-end)) + "\n")
	}
	return sb.String()
}

func renderRow(r row, v combobox.View, width int) string {
	if r.divider {
		return hintStyle.Render(strings.Repeat("─", max(4, min(width, 40))))
	}

	avail := width - 4
	if width <= 0 {
		avail = 60
	}

	if r.create {
		line := "  + create \"" + utils.Ellipsize(r.value, avail-12) + "\""
		if r.value == v.Active {
			return activeStyle.Render(line)
		}
		return line
	}

	mark := "  "
	if slices.Contains(v.Selected, r.value) {
		mark = "✓ "
	}
	if r.match.Icon != "" {
		mark += r.match.Icon + " "
	}

	label := utils.Ellipsize(r.match.Label, avail)
	switch {
	case r.match.Disabled:
		label = disabledStyle.Render(label)
	case r.match.Matched == option.TargetLabel:
		label = match.Highlight(label, clip(r.match.Slices, label, r.match.Label), highlight)
	}

	line := mark + label
	if r.value == v.Active {
		return activeStyle.Render(line)
	}
	return line
}

// clip drops the parts of spans that fall past the visible text of a label
// cut by Ellipsize.
func clip(spans []option.Span, shown, full string) []option.Span {
	if shown == full {
		return spans
	}
	limit := len(strings.TrimSuffix(shown, ellipsis))
	out := make([]option.Span, 0, len(spans))
	for _, s := range spans {
		if s.Start >= limit {
			break
		}
		s.End = min(s.End, limit)
		out = append(out, s)
	}
	return out
}
