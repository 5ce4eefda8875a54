// Package selection owns the committed value(s) of a combobox: select,
// toggle, clear, comma paste and undo/redo over full snapshots.
package selection

import (
	"slices"
	"sync"

	"github.com/bastiangx/pickserve/internal/utils"
	"github.com/bastiangx/pickserve/pkg/option"
	"golang.org/x/text/cases"
)

// Config configures a Controller. OnChange receives every committed
// selection, including undo and redo, but not Set.
type Config struct {
	Multiple      bool
	AllowFreeText bool
	MaxHistory    int
	Initial       []string
	OnChange      func([]string)
}

// Controller is safe for concurrent use. OnChange runs after the lock is released.
type Controller struct {
	multiple bool
	freeText bool
	onChange func([]string)

	mu      sync.Mutex
	values  []string
	history *history
}

func New(cfg Config) *Controller {
	c := &Controller{
		multiple: cfg.Multiple,
		freeText: cfg.AllowFreeText,
		onChange: cfg.OnChange,
		history:  newHistory(cfg.MaxHistory),
	}
	c.values = c.normalize(cfg.Initial)
	return c
}

// Multiple reports whether the controller holds a list of values.
func (c *Controller) Multiple() bool {
	return c.multiple
}

// Values returns a copy of the current selection.
func (c *Controller) Values() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.values)
}

// Has reports whether value is selected.
func (c *Controller) Has(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.values, value)
}

// Set replaces the selection from outside, for example when the owner of the
// value changes it. History is left alone and OnChange is not called.
func (c *Controller) Set(values []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = c.normalize(values)
}

// Select commits opt. In multi-select an absent value is appended and a
// present one is removed when toggle is set. In single-select the value
// replaces the selection and the list should close, unless toggle is set and
// the value is already held, which clears it. Disabled options are ignored.
func (c *Controller) Select(opt option.Option, toggle bool) (changed, closeList bool) {
	if opt.Disabled {
		return false, false
	}

	c.mu.Lock()
	before := c.values
	var next []string

	switch {
	case c.multiple:
		i := slices.Index(before, opt.Value)
		switch {
		case i < 0:
			next = append(slices.Clone(before), opt.Value)
		case toggle:
			next = slices.Delete(slices.Clone(before), i, i+1)
		}
	default:
		held := len(before) == 1 && before[0] == opt.Value
		switch {
		case held && toggle:
			next = []string{}
		case held:
			closeList = true
		default:
			next = []string{opt.Value}
			closeList = true
		}
	}

	if next == nil {
		c.mu.Unlock()
		return false, closeList
	}
	committed := c.commitLocked(next)
	c.mu.Unlock()

	c.notify(committed)
	return true, closeList
}

// Clear empties the selection.
func (c *Controller) Clear() bool {
	c.mu.Lock()
	if len(c.values) == 0 {
		c.mu.Unlock()
		return false
	}
	committed := c.commitLocked([]string{})
	c.mu.Unlock()

	c.notify(committed)
	return true
}

// Paste adds the comma separated tokens of raw to a multi-selection. Each
// token resolves, in order, to an already selected value, a known option
// value, a known value ignoring case, a known label ignoring case, and
// finally to itself as free text.
func (c *Controller) Paste(raw string, known []option.Option) bool {
	if !c.multiple {
		return false
	}
	tokens := utils.SplitTokens(raw, ",")
	if len(tokens) == 0 {
		return false
	}

	c.mu.Lock()
	r := newPasteResolver(c.values, known)
	filter := utils.NewValueFilter(c.values...)
	next := slices.Clone(c.values)
	for _, tok := range tokens {
		if v := r.resolve(tok); filter.ShouldInclude(v) {
			next = append(next, v)
		}
	}

	if len(next) == len(c.values) {
		c.mu.Unlock()
		return false
	}
	committed := c.commitLocked(next)
	c.mu.Unlock()

	c.notify(committed)
	return true
}

// Undo restores the snapshot taken before the last mutation.
func (c *Controller) Undo() error {
	c.mu.Lock()
	prev, err := c.history.stepBack(c.values)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.values = prev
	committed := slices.Clone(prev)
	c.mu.Unlock()

	c.notify(committed)
	return nil
}

// Redo reapplies the last undone mutation.
func (c *Controller) Redo() error {
	c.mu.Lock()
	next, err := c.history.stepForward(c.values)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.values = next
	committed := slices.Clone(next)
	c.mu.Unlock()

	c.notify(committed)
	return nil
}

func (c *Controller) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.canUndo()
}

func (c *Controller) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.canRedo()
}

// Invalid lists selected values missing from lookup. Nothing is invalid
// while free text is allowed.
func (c *Controller) Invalid(lookup map[string]option.Option) []string {
	if c.freeText {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var invalid []string
	for _, v := range c.values {
		if _, ok := lookup[v]; !ok {
			invalid = append(invalid, v)
		}
	}
	return invalid
}

func (c *Controller) commitLocked(next []string) []string {
	c.history.record(c.values)
	c.values = next
	return slices.Clone(next)
}

func (c *Controller) notify(values []string) {
	if c.onChange != nil {
		c.onChange(values)
	}
}

// normalize drops repeats and enforces the single-select bound.
func (c *Controller) normalize(values []string) []string {
	out := utils.Dedup(values)
	if !c.multiple && len(out) > 1 {
		out = out[:1]
	}
	return out
}

type pasteResolver struct {
	selected map[string]bool
	byValue  map[string]string
	byFolded map[string]string
	byLabel  map[string]string
	fold     cases.Caser
}

func newPasteResolver(selected []string, known []option.Option) *pasteResolver {
	r := &pasteResolver{
		selected: make(map[string]bool, len(selected)),
		byValue:  make(map[string]string, len(known)),
		byFolded: make(map[string]string, len(known)),
		byLabel:  make(map[string]string, len(known)),
		fold:     cases.Fold(),
	}
	for _, v := range selected {
		r.selected[v] = true
	}
	for _, o := range known {
		r.byValue[o.Value] = o.Value
		// First option wins for folded keys, like a linear scan would.
		if k := r.fold.String(o.Value); !has(r.byFolded, k) {
			r.byFolded[k] = o.Value
		}
		if k := r.fold.String(o.Label); !has(r.byLabel, k) {
			r.byLabel[k] = o.Value
		}
	}
	return r
}

func (r *pasteResolver) resolve(tok string) string {
	if r.selected[tok] {
		return tok
	}
	if v, ok := r.byValue[tok]; ok {
		return v
	}
	folded := r.fold.String(tok)
	if v, ok := r.byFolded[folded]; ok {
		return v
	}
	if v, ok := r.byLabel[folded]; ok {
		return v
	}
	return tok
}

func has(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}
