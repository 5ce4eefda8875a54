// Package resolve turns a static option list or a remote Fetcher into the
// ranked, highlighted list a combobox displays.
//
// A remote Resolver runs at most one resolve session at a time. Every Update
// stops the previous session, which clears its debounce timer and cancels its
// fetches together, so a late answer from a superseded request can never
// reach the cache or the visible state.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/pickserve/internal/logger"
	"github.com/bastiangx/pickserve/pkg/match"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDebounce   = 250 * time.Millisecond
	DefaultMaxResults = 100
)

// Config describes where options come from. Fetcher takes precedence over
// Options when both are set. Immediate disables the debounce delay.
//
// OnChange receives every published state. For a remote source it is called
// from fetch goroutines as well as from Update.
type Config struct {
	Options    []option.Option
	Fetcher    Fetcher
	Language   string
	MaxResults int
	Debounce   time.Duration
	Immediate  bool
	Logger     *log.Logger
	OnChange   func(State)
}

// Params are the widget inputs a resolve cycle depends on.
type Params struct {
	Selected   []string
	SearchText string
	Open       bool
}

// State is the resolver output.
type State struct {
	Filtered []option.Match
	Loading  bool
	Lookup   map[string]option.Option
	Err      error
}

type Resolver struct {
	static   []option.Option
	fetcher  Fetcher
	lang     string
	limit    int
	debounce time.Duration
	fast     bool
	onChange func(State)
	logger   *log.Logger

	cache   *Cache
	running sync.WaitGroup

	// placeholders are identity options cached for values the fetcher never
	// returned. They stop refetching but are not reported in State.Lookup.
	placeholders map[string]bool

	mu      sync.Mutex
	state   State
	current *session
	seq     uint64
	wasOpen bool
	closed  bool
}

func New(cfg Config) *Resolver {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New("resolve")
	}

	r := &Resolver{
		static:   cfg.Options,
		fetcher:  cfg.Fetcher,
		lang:     cfg.Language,
		limit:    cfg.MaxResults,
		debounce: cfg.Debounce,
		fast:     cfg.Immediate,
		onChange: cfg.OnChange,
		logger:   cfg.Logger,
		cache:    NewCache(),

		placeholders: make(map[string]bool),
	}
	r.state.Lookup = map[string]option.Option{}
	return r
}

// Remote reports whether options come from a Fetcher.
func (r *Resolver) Remote() bool {
	return r.fetcher != nil
}

// Cache exposes the label cache of a remote resolver.
func (r *Resolver) Cache() *Cache {
	return r.cache
}

// State returns the last published state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Update starts a resolve cycle for p. A static source is resolved before
// Update returns. A remote source reports Loading right away and settles later.
func (r *Resolver) Update(p Params) {
	p.Selected = append([]string(nil), p.Selected...)
	if r.fetcher == nil {
		r.resolveStatic(p)
		return
	}
	r.resolveRemote(p)
}

// Close cancels the live session and waits for running fetches to return.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	s := r.current
	r.current = nil
	r.state.Loading = false
	r.mu.Unlock()

	if s != nil {
		s.stop()
	}
	r.running.Wait()
	r.logger.Debug("resolver closed", "cached", r.cache.Len())
}

func (r *Resolver) resolveStatic(p Params) {
	lookup := option.Index(r.static)
	candidates := make([]option.Option, len(r.static), len(r.static)+len(p.Selected))
	copy(candidates, r.static)
	for _, v := range p.Selected {
		if _, ok := lookup[v]; !ok {
			candidates = append(candidates, option.Identity(v))
		}
	}

	if strings.TrimSpace(p.SearchText) == "" {
		candidates = selectedFirst(candidates, p.Selected)
	}

	filtered := match.Score(p.SearchText, candidates, r.lang, true)
	if len(filtered) > r.limit {
		filtered = filtered[:r.limit]
	}

	r.publish(State{Filtered: filtered, Lookup: lookup})
}

func (r *Resolver) resolveRemote(p Params) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	if r.current != nil {
		r.current.stop()
		r.current = nil
	}

	firstOpen := p.Open && !r.wasOpen
	r.wasOpen = p.Open

	_, unresolved := r.cache.Lookup(p.Selected)
	if !p.Open && len(unresolved) == 0 {
		r.state = State{
			Filtered: r.compose(p, nil),
			Lookup:   r.lookupLocked(),
		}
		state := r.state
		r.mu.Unlock()
		r.notify(state)
		return
	}

	delay := r.debounce
	if firstOpen || len(unresolved) > 0 || r.fast {
		delay = 0
	}

	r.seq++
	s := newSession(r.seq, &r.running)
	r.current = s
	r.state.Loading = true
	r.state.Err = nil
	state := r.state
	r.mu.Unlock()

	r.notify(state)
	r.logger.Debug("session armed", "id", s.id, "delay", delay, "search", p.Open, "unresolved", len(unresolved))
	s.arm(delay, func() { r.run(s, p, unresolved) })
}

// run performs the search and label fetches of one session concurrently.
func (r *Resolver) run(s *session, p Params, unresolved []string) {
	var searched, resolved []option.Option

	g, ctx := errgroup.WithContext(s.ctx)
	if p.Open {
		g.Go(func() error {
			opts, err := r.fetcher.Fetch(ctx, Search(p.SearchText), r.limit, p.Selected)
			if err != nil {
				return fmt.Errorf("search %q: %w", p.SearchText, err)
			}
			searched = opts
			return nil
		})
	}
	if len(unresolved) > 0 {
		g.Go(func() error {
			opts, err := r.fetcher.Fetch(ctx, Lookup(unresolved), len(unresolved), p.Selected)
			if err != nil {
				return fmt.Errorf("resolve %d values: %w", len(unresolved), err)
			}
			resolved = opts
			return nil
		})
	}

	err := g.Wait()
	r.settle(s, p, unresolved, searched, resolved, err)
}

func (r *Resolver) settle(s *session, p Params, unresolved []string, searched, resolved []option.Option, err error) {
	r.mu.Lock()
	if r.current != s || !s.live() {
		r.mu.Unlock()
		r.logger.Debug("discarding superseded session", "id", s.id)
		return
	}
	r.current = nil
	s.done()

	if err != nil {
		r.state.Loading = false
		r.state.Err = err
		state := r.state
		r.mu.Unlock()

		if errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("fetch timed out", "id", s.id, "err", err)
		} else {
			r.logger.Error("fetch failed", "id", s.id, "err", err)
		}
		r.notify(state)
		return
	}

	for _, list := range [][]option.Option{searched, resolved} {
		r.cache.Put(list...)
		for _, o := range list {
			delete(r.placeholders, o.Value)
		}
	}

	returned := option.Index(resolved)
	for _, v := range unresolved {
		if _, ok := returned[v]; !ok {
			r.cache.Put(option.Identity(v))
			r.placeholders[v] = true
		}
	}

	r.state = State{
		Filtered: r.compose(p, searched),
		Lookup:   r.lookupLocked(),
	}
	state := r.state
	r.mu.Unlock()

	r.logger.Debug("session settled", "id", s.id, "options", len(state.Filtered))
	r.notify(state)
}

// compose merges cached selected options in front of fetched when the search
// is empty, then computes highlights without reordering.
func (r *Resolver) compose(p Params, fetched []option.Option) []option.Match {
	list := fetched
	if strings.TrimSpace(p.SearchText) == "" {
		front, _ := r.cache.Lookup(p.Selected)
		list = mergeFront(front, fetched)
	}
	return match.Score(p.SearchText, list, r.lang, false)
}

// lookupLocked reports every cached option that came from the fetcher.
func (r *Resolver) lookupLocked() map[string]option.Option {
	lookup := r.cache.Snapshot()
	for v := range r.placeholders {
		delete(lookup, v)
	}
	return lookup
}

func (r *Resolver) publish(state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	r.notify(state)
}

func (r *Resolver) notify(state State) {
	if r.onChange != nil {
		r.onChange(state)
	}
}

// selectedFirst moves selected options to the front, keeping relative order
// within both groups.
func selectedFirst(opts []option.Option, selected []string) []option.Option {
	if len(selected) == 0 {
		return opts
	}
	isSelected := make(map[string]bool, len(selected))
	for _, v := range selected {
		isSelected[v] = true
	}

	out := make([]option.Option, 0, len(opts))
	for _, o := range opts {
		if isSelected[o.Value] {
			out = append(out, o)
		}
	}
	for _, o := range opts {
		if !isSelected[o.Value] {
			out = append(out, o)
		}
	}
	return out
}

// mergeFront returns front followed by rest, dropping repeated values.
func mergeFront(front, rest []option.Option) []option.Option {
	if len(front) == 0 {
		return rest
	}
	seen := make(map[string]bool, len(front)+len(rest))
	out := make([]option.Option, 0, len(front)+len(rest))
	for _, list := range [][]option.Option{front, rest} {
		for _, o := range list {
			if seen[o.Value] {
				continue
			}
			seen[o.Value] = true
			out = append(out, o)
		}
	}
	return out
}
