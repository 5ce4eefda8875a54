// Package catalog is the server-side option store: options loaded from a
// TOML file, narrowed through a patricia trie of folded words and values,
// then ranked by the match package.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bastiangx/pickserve/pkg/match"
	"github.com/bastiangx/pickserve/pkg/option"
	"github.com/bastiangx/pickserve/pkg/resolve"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// ErrEmptyValue is returned for an option without a value.
var ErrEmptyValue = errors.New("option has an empty value")

// File is the on-disk catalog layout.
type File struct {
	Language string          `toml:"language,omitempty" msgpack:"lang,omitempty"`
	Options  []option.Option `toml:"option" msgpack:"o"`
}

// Stats describes the loaded catalog.
type Stats struct {
	Options   int
	IndexKeys int
	Path      string
	LoadedAt  time.Time
}

type Catalog struct {
	path     string
	language string

	mu       sync.RWMutex
	options  []option.Option
	byValue  map[string]int
	index    *patricia.Trie
	keyCount int
	loadedAt time.Time
}

// New builds an in-memory catalog.
func New(opts []option.Option, language string) (*Catalog, error) {
	c := &Catalog{language: language}
	if err := c.Replace(opts); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	c := &Catalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload rereads the file the catalog was loaded from. On error the
// previous contents stay in place.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return fmt.Errorf("catalog has no backing file")
	}

	f, err := ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", c.path, err)
	}
	if f.Language != "" {
		c.mu.Lock()
		c.language = f.Language
		c.mu.Unlock()
	}
	if err := c.Replace(f.Options); err != nil {
		return fmt.Errorf("load catalog %s: %w", c.path, err)
	}
	log.Debugf("Loaded %d options from %s", c.Len(), c.path)
	return nil
}

// Replace swaps the options and rebuilds the index. A later option with the
// same value replaces an earlier one in place.
func (c *Catalog) Replace(opts []option.Option) error {
	options := make([]option.Option, 0, len(opts))
	byValue := make(map[string]int, len(opts))
	for i, o := range opts {
		if o.Value == "" {
			return fmt.Errorf("option %d (%q): %w", i, o.Label, ErrEmptyValue)
		}
		if o.Label == "" {
			o.Label = o.Value
		}
		if j, ok := byValue[o.Value]; ok {
			log.Warnf("Duplicate option value %q, keeping the later entry", o.Value)
			options[j] = o
			continue
		}
		byValue[o.Value] = len(options)
		options = append(options, o)
	}

	trie := patricia.NewTrie()
	keyCount := 0
	add := func(key string, idx int) {
		if key == "" {
			return
		}
		p := patricia.Prefix(key)
		if item := trie.Get(p); item != nil {
			trie.Set(p, append(item.([]int), idx))
			return
		}
		trie.Insert(p, []int{idx})
		keyCount++
	}
	for i, o := range options {
		if o.Divider {
			continue
		}
		add(fold(o.Value), i)
		for _, k := range keys(o.Label) {
			add(k, i)
		}
	}

	c.mu.Lock()
	c.options = options
	c.byValue = byValue
	c.index = trie
	c.keyCount = keyCount
	c.loadedAt = time.Now()
	c.mu.Unlock()
	return nil
}

// Export returns a copy of the catalog contents.
func (c *Catalog) Export() File {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return File{
		Language: c.language,
		Options:  append([]option.Option(nil), c.options...),
	}
}

// Language returns the catalog default language.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.options)
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Options:   len(c.options),
		IndexKeys: c.keyCount,
		Path:      c.path,
		LoadedAt:  c.loadedAt,
	}
}

// Search ranks options against query and returns at most limit matches.
// An empty query lists options in file order. lang falls back to the
// catalog language.
func (c *Catalog) Search(query string, limit int, lang string) []option.Match {
	if lang == "" {
		lang = c.Language()
	}
	query = strings.TrimSpace(query)

	c.mu.RLock()
	candidates := c.candidates(query)
	c.mu.RUnlock()

	results := match.Score(query, candidates, lang, true)
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// candidates narrows the options through the index. The index only
// prefilters; comma queries, queries without words, and queries the index
// cannot place fall back to every option. Callers hold c.mu.
func (c *Catalog) candidates(query string) []option.Option {
	if query == "" || strings.Contains(query, ",") {
		return c.options
	}
	words := keys(query)
	if len(words) == 0 {
		return c.options
	}

	seen := make(map[int]bool)
	visit := func(prefix string) {
		err := c.index.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
			for _, idx := range item.([]int) {
				seen[idx] = true
			}
			return nil
		})
		if err != nil {
			log.Errorf("Error searching catalog index: %v", err)
		}
	}
	for _, w := range words {
		visit(w)
	}
	visit(fold(query))

	if len(seen) == 0 {
		return c.options
	}

	idx := make([]int, 0, len(seen))
	for i := range seen {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]option.Option, len(idx))
	for i, j := range idx {
		out[i] = c.options[j]
	}
	return out
}

// Resolve returns the known options for values, in the order given.
// Unknown values are skipped.
func (c *Catalog) Resolve(values []string) []option.Option {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]option.Option, 0, len(values))
	for _, v := range values {
		if i, ok := c.byValue[v]; ok {
			out = append(out, c.options[i])
		}
	}
	return out
}

// Fetch serves the catalog as an in-process option source.
func (c *Catalog) Fetch(ctx context.Context, q resolve.Query, limit int, selected []string) ([]option.Option, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.IsLookup() {
		return c.Resolve(q.Values), nil
	}

	matches := c.Search(q.Text, limit, "")
	out := make([]option.Option, len(matches))
	for i, m := range matches {
		out[i] = m.Option
	}
	return out, ctx.Err()
}
