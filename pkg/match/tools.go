package match

import (
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// tools bundles the locale-aware helpers for one language.
// Collators keep scratch buffers between calls, so every comparison holds mu.
type tools struct {
	mu   sync.Mutex
	tag  language.Tag
	base *collate.Collator // ignores case and accents
	cs   *collate.Collator // ignores case, accents count
}

var (
	toolsMu   sync.Mutex
	toolCache = make(map[string]*tools)
)

// toolsFor returns the cached tools for lang, building them on first use.
func toolsFor(lang string) *tools {
	toolsMu.Lock()
	defer toolsMu.Unlock()

	if t, ok := toolCache[lang]; ok {
		return t
	}

	tag, err := language.Parse(lang)
	if err != nil {
		log.Debugf("match: unknown language %q, using root collation: %v", lang, err)
		tag = language.Und
	}

	t := &tools{
		tag:  tag,
		base: collate.New(tag, collate.IgnoreCase, collate.IgnoreDiacritics),
		cs:   collate.New(tag, collate.IgnoreCase),
	}
	toolCache[lang] = t
	log.Debugf("match: built collators for %q (%s)", lang, tag)
	return t
}

// cachedLanguages reports how many tool sets have been built.
func cachedLanguages() int {
	toolsMu.Lock()
	defer toolsMu.Unlock()
	return len(toolCache)
}

func (t *tools) baseEqual(a, b string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.base.CompareString(a, b) == 0
}

func (t *tools) caseEqual(a, b string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cs.CompareString(a, b) == 0
}

// compare orders two strings at base strength.
func (t *tools) compare(a, b string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.base.CompareString(a, b)
}
