package tui

import (
	"reflect"
	"strings"
	"testing"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/pkg/combobox"
	"github.com/bastiangx/pickserve/pkg/option"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var people = []option.Option{
	{Label: "John Smith", Value: "js1"},
	{Label: "Johnson", Value: "js2"},
	{Label: "Mary Jane", Value: "mj", Disabled: true},
	{Label: "Zed", Value: "z"},
}

func newModel(t *testing.T, cfg combobox.Config) Model {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	cfg.Options = people
	cfg.Logger = logger.Quiet("test")
	m := New(cfg, Options{Title: "People"})
	t.Cleanup(m.Widget().Dispose)
	return m
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typed(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTypingFiltersAndEnterSelects(t *testing.T) {
	m := newModel(t, combobox.Config{})
	m = press(m, typed("joh"))

	v := m.Widget().Snapshot()
	if v.SearchText != "joh" || !v.Open {
		t.Fatalf("view = %+v", v)
	}
	if len(v.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(v.Matches))
	}

	m = press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.Widget().Values(); !reflect.DeepEqual(got, []string{"js1"}) {
		t.Errorf("values = %v", got)
	}
	if m.Widget().IsOpen() {
		t.Error("single select closes the list")
	}
}

func TestViewRendersList(t *testing.T) {
	m := newModel(t, combobox.Config{})
	m = press(m, tea.WindowSizeMsg{Width: 80, Height: 20}, tea.KeyMsg{Type: tea.KeyDown})

	out := m.View()
	for _, want := range []string{"People", "nothing selected", "John Smith", "Mary Jane", "Zed"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestEscapeClosesThenQuits(t *testing.T) {
	m := newModel(t, combobox.Config{})
	m = press(m, tea.KeyMsg{Type: tea.KeyDown})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if m.Widget().IsOpen() || cmd != nil {
		t.Fatal("first esc closes the list")
	}
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("second esc should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected a quit command")
	}
}

func TestPasteAddsValues(t *testing.T) {
	m := newModel(t, combobox.Config{Multiple: true})
	m = press(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("js2, zed"), Paste: true})

	if got := m.Widget().Values(); !reflect.DeepEqual(got, []string{"js2", "z"}) {
		t.Errorf("values = %v", got)
	}
	if m.input.Value() != "" {
		t.Errorf("consumed paste leaked into the input: %q", m.input.Value())
	}
}

func TestWindowFollowsActive(t *testing.T) {
	m := newModel(t, combobox.Config{})
	m = press(m, tea.WindowSizeMsg{Width: 80, Height: 6}) // two rows visible
	m = press(m, tea.KeyMsg{Type: tea.KeyUp})             // wraps to the last entry

	if m.window.Size != 2 {
		t.Fatalf("window size = %d", m.window.Size)
	}
	if m.window.Offset != 2 {
		t.Errorf("offset = %d, want 2", m.window.Offset)
	}
}

func TestClip(t *testing.T) {
	full := "John Smith"
	shown := "John S…"
	spans := []option.Span{{Start: 0, End: 4}, {Start: 5, End: 10}}
	want := []option.Span{{Start: 0, End: 4}, {Start: 5, End: 6}}
	if got := clip(spans, shown, full); !reflect.DeepEqual(got, want) {
		t.Errorf("clip = %v, want %v", got, want)
	}
	if got := clip(spans, full, full); !reflect.DeepEqual(got, spans) {
		t.Errorf("untruncated labels keep spans, got %v", got)
	}
}
