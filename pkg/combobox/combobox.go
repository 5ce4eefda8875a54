// Package combobox wires the option resolver, the navigation state and the
// selection controller into one widget with a keyboard surface.
//
// The widget renders nothing. Front ends call Snapshot after OnUpdate fires
// and draw the returned View.
package combobox

import (
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/pkg/navigation"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/bastiangx/pickserve/pkg/resolve"
	"github.com/bastiangx/pickserve/pkg/selection"
	"github.com/charmbracelet/log"
)

// Config configures a Widget. Either Options or Fetcher supplies candidates.
type Config struct {
	Options       []option.Option
	Fetcher       resolve.Fetcher
	Multiple      bool
	AllowFreeText bool
	Language      string
	MaxResults    int
	Debounce      time.Duration
	Immediate     bool
	Value         []string
	PageSize      int
	OnChange      func([]string)
	OnUpdate      func()
	Logger        *log.Logger
}

// View is everything a front end needs to draw the widget. FollowActive is
// set when the active entry moved by keyboard and should be scrolled into view.
type View struct {
	Open         bool
	SearchText   string
	Matches      []option.Match
	List         navigation.List
	Active       string
	FollowActive bool
	Loading      bool
	Err          error
	Selected     []string
	Invalid      []string
	Lookup       map[string]option.Option
}

type Widget struct {
	resolver *resolve.Resolver
	sel      *selection.Controller
	logger   *log.Logger

	multiple bool
	freeText bool
	pageSize int
	onChange func([]string)
	onUpdate func()

	mu     sync.Mutex
	search string
	open   bool
	nav    navigation.State
	follow bool
}

func New(cfg Config) *Widget {
	if cfg.Logger == nil {
		cfg.Logger = logger.New("combobox")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = navigation.FallbackPageSize
	}

	w := &Widget{
		logger:   cfg.Logger,
		multiple: cfg.Multiple,
		freeText: cfg.AllowFreeText,
		pageSize: cfg.PageSize,
		onChange: cfg.OnChange,
		onUpdate: cfg.OnUpdate,
	}
	w.sel = selection.New(selection.Config{
		Multiple:      cfg.Multiple,
		AllowFreeText: cfg.AllowFreeText,
		Initial:       cfg.Value,
		OnChange:      w.selectionChanged,
	})
	w.resolver = resolve.New(resolve.Config{
		Options:    cfg.Options,
		Fetcher:    cfg.Fetcher,
		Language:   cfg.Language,
		MaxResults: cfg.MaxResults,
		Debounce:   cfg.Debounce,
		Immediate:  cfg.Immediate,
		Logger:     cfg.Logger.WithPrefix("resolve"),
		OnChange:   func(resolve.State) { w.updated() },
	})

	w.refresh()
	return w
}

// SetSearchText replaces the text field content and opens the list.
func (w *Widget) SetSearchText(text string) {
	w.mu.Lock()
	w.search = text
	w.open = true
	w.mu.Unlock()
	w.refresh()
}

// SetValue syncs the selection from its owner without recording history.
func (w *Widget) SetValue(values []string) {
	w.sel.Set(values)
	w.refresh()
}

func (w *Widget) Open() {
	w.mu.Lock()
	if w.open {
		w.mu.Unlock()
		return
	}
	w.open = true
	w.mu.Unlock()
	w.refresh()
}

// Close hides the list and clears the active entry.
func (w *Widget) Close() {
	w.mu.Lock()
	if !w.open {
		w.mu.Unlock()
		return
	}
	w.open = false
	w.nav = w.nav.Reset()
	w.mu.Unlock()
	w.refresh()
}

// IsOpen reports whether the list is shown.
func (w *Widget) IsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.open
}

// HandleKey applies k and reports whether the widget consumed it.
func (w *Widget) HandleKey(k Key) bool {
	switch k {
	case KeyDown, KeyUp:
		w.Open()
		if k == KeyDown {
			w.move(navigation.State.Down)
		} else {
			w.move(navigation.State.Up)
		}
		return true
	case KeyHome:
		return w.moveIfOpen(navigation.State.First)
	case KeyEnd:
		return w.moveIfOpen(navigation.State.Last)
	case KeyPageDown:
		return w.moveIfOpen(func(s navigation.State, l navigation.List) navigation.State {
			return s.PageDown(l, w.pageSize)
		})
	case KeyPageUp:
		return w.moveIfOpen(func(s navigation.State, l navigation.List) navigation.State {
			return s.PageUp(l, w.pageSize)
		})
	case KeyEnter:
		if w.SelectActive() {
			return true
		}
		return w.createFromText()
	case KeyEscape:
		if !w.IsOpen() {
			return false
		}
		w.Close()
		return true
	case KeyUndo, KeyRedo:
		// Text editing keeps its own undo while the field has content.
		if w.searchText() != "" {
			return false
		}
		if k == KeyUndo {
			return w.sel.Undo() == nil
		}
		return w.sel.Redo() == nil
	}
	return false
}

// Hover activates value under the pointer without scrolling.
func (w *Widget) Hover(value string) {
	l := w.list()
	w.mu.Lock()
	w.nav = w.nav.Hover(l, value)
	w.follow = false
	w.mu.Unlock()
	w.updated()
}

// SelectActive commits the active entry. It returns false when nothing is
// active or the active value is no longer a selectable option.
func (w *Widget) SelectActive() bool {
	w.mu.Lock()
	active := w.nav.Active
	w.mu.Unlock()
	if active == "" {
		return false
	}

	l := w.list()
	if l.IsCreate(active) {
		w.commit(option.Identity(active))
		return true
	}

	for _, m := range w.resolver.State().Filtered {
		if m.Value == active && !m.Disabled && !m.Divider {
			w.commit(m.Option)
			return true
		}
	}
	return false
}

// Paste adds comma separated values from the clipboard to a multi-selection.
func (w *Widget) Paste(text string) bool {
	if !w.multiple {
		return false
	}
	state := w.resolver.State()
	known := make([]option.Option, 0, len(state.Filtered)+len(state.Lookup))
	for _, m := range state.Filtered {
		known = append(known, m.Option)
	}
	for _, o := range state.Lookup {
		known = append(known, o)
	}
	return w.sel.Paste(text, known)
}

// Values returns the committed selection.
func (w *Widget) Values() []string {
	return w.sel.Values()
}

// Snapshot returns the current view.
func (w *Widget) Snapshot() View {
	state := w.resolver.State()
	selected := w.sel.Values()

	w.mu.Lock()
	v := View{
		Open:         w.open,
		SearchText:   w.search,
		Active:       w.nav.Active,
		FollowActive: w.follow,
	}
	w.mu.Unlock()

	v.Matches = state.Filtered
	v.Loading = state.Loading
	v.Err = state.Err
	v.Lookup = state.Lookup
	v.Selected = selected
	v.Invalid = w.sel.Invalid(state.Lookup)
	v.List = w.buildList(state, v.SearchText, selected)
	return v
}

// Dispose stops pending fetches. The widget must not be used afterwards.
func (w *Widget) Dispose() {
	w.resolver.Close()
	w.logger.Debug("widget disposed")
}

func (w *Widget) move(step func(navigation.State, navigation.List) navigation.State) {
	l := w.list()
	w.mu.Lock()
	w.nav = step(w.nav, l)
	w.follow = true
	w.mu.Unlock()
	w.updated()
}

func (w *Widget) moveIfOpen(step func(navigation.State, navigation.List) navigation.State) bool {
	if !w.IsOpen() {
		return false
	}
	w.move(step)
	return true
}

func (w *Widget) commit(opt option.Option) {
	changed, closeList := w.sel.Select(opt, true)
	w.logger.Debug("select", "value", opt.Value, "changed", changed)
	if closeList && !w.multiple {
		w.Close()
	}
}

// createFromText commits the trimmed search text as a free-text value.
func (w *Widget) createFromText() bool {
	text := strings.TrimSpace(w.searchText())
	if !w.freeText || text == "" {
		return false
	}
	if w.sel.Has(text) {
		if !w.multiple {
			w.Close()
		}
		return true
	}
	w.commit(option.Identity(text))
	return true
}

func (w *Widget) list() navigation.List {
	return w.buildList(w.resolver.State(), w.searchText(), w.sel.Values())
}

func (w *Widget) buildList(state resolve.State, search string, selected []string) navigation.List {
	opts := make([]option.Option, len(state.Filtered))
	for i, m := range state.Filtered {
		opts[i] = m.Option
	}
	return navigation.BuildList(navigation.Input{
		Options:       opts,
		Loading:       state.Loading,
		AllowFreeText: w.freeText,
		SearchText:    search,
		Selected:      selected,
	})
}

func (w *Widget) searchText() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.search
}

// refresh restarts resolution with the current inputs.
func (w *Widget) refresh() {
	w.mu.Lock()
	p := resolve.Params{SearchText: w.search, Open: w.open}
	w.mu.Unlock()
	p.Selected = w.sel.Values()
	w.resolver.Update(p)
}

func (w *Widget) selectionChanged(values []string) {
	if w.onChange != nil {
		w.onChange(values)
	}
	w.refresh()
}

func (w *Widget) updated() {
	if w.onUpdate != nil {
		w.onUpdate()
	}
}
