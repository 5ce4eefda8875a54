// Package tui is a terminal front end for the combobox widget, used to try
// catalogs and scoring by hand.
package tui

import (
	"strings"

	"github.com/bastiangx/pickserve/pkg/combobox"
	"github.com/bastiangx/pickserve/pkg/navigation"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// widgetUpdated is sent whenever the widget publishes new state, including
// results arriving from a remote fetcher.
type widgetUpdated struct{}

// Options tune the terminal front end.
type Options struct {
	Title      string
	ItemHeight int
}

// Model drives a combobox.Widget from bubbletea key messages.
type Model struct {
	widget     *combobox.Widget
	input      textinput.Model
	updates    chan struct{}
	window     navigation.Window
	title      string
	itemHeight int
	width      int
	quitting   bool
}

// New builds the widget from cfg and wraps it. cfg.OnUpdate is replaced.
func New(cfg combobox.Config, opts Options) Model {
	updates := make(chan struct{}, 1)
	cfg.OnUpdate = func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	}

	input := textinput.New()
	input.Placeholder = "type to search"
	input.Prompt = "› "
	input.Focus()

	if opts.ItemHeight <= 0 {
		opts.ItemHeight = 1
	}

	return Model{
		widget:     combobox.New(cfg),
		input:      input,
		updates:    updates,
		window:     navigation.Window{Size: cfg.PageSize},
		title:      opts.Title,
		itemHeight: opts.ItemHeight,
	}
}

// Widget exposes the wrapped widget.
func (m Model) Widget() *combobox.Widget {
	return m.widget
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

func (m Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return widgetUpdated{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.window.Size = navigation.PageSize(msg.Height-4, m.itemHeight)
		m.follow()
		return m, nil

	case widgetUpdated:
		m.follow()
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	if msg.Paste && m.widget.Paste(string(msg.Runes)) {
		m.follow()
		return m, nil
	}

	k := combobox.Key(msg.String())
	if k == combobox.KeyEscape && !m.widget.IsOpen() {
		m.quitting = true
		return m, tea.Quit
	}
	if m.widget.HandleKey(k) {
		m.follow()
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.widget.SetSearchText(after)
		m.window.Offset = 0
		m.follow()
	}
	return m, cmd
}

// follow keeps the active row visible after keyboard moves.
func (m *Model) follow() {
	v := m.widget.Snapshot()
	rows := buildRows(v)
	active := -1
	if v.FollowActive {
		active = rowIndex(rows, v.Active)
	}
	m.window = m.window.Follow(active, len(rows))
}

// Run starts an interactive session and returns the final selection.
func Run(cfg combobox.Config, opts Options) ([]string, error) {
	m := New(cfg, opts)
	defer m.widget.Dispose()

	if _, err := tea.NewProgram(m).Run(); err != nil {
		return nil, err
	}
	return m.widget.Values(), nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.widget.Snapshot()

	var sb strings.Builder
	if m.title != "" {
		sb.WriteString(titleStyle.Render(m.title) + "\n")
	}
	sb.WriteString(renderSelection(v) + "\n")
	sb.WriteString(m.input.View() + "\n")
	if v.Open {
		sb.WriteString(renderList(v, m.window, m.width))
	}
	sb.WriteString(hintStyle.Render("↑↓ navigate · enter select · esc close · ctrl+z undo · ctrl+c quit"))
	return sb.String()
}
