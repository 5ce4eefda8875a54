package resolve

import (
	"sync"

	"github.com/bastiangx/pickserve/pkg/option"
)

// Cache remembers the last option seen for every value. Entries are never
// evicted; it lives as long as the widget that owns it.
type Cache struct {
	entries map[string]option.Option
	mu      sync.RWMutex
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]option.Option)}
}

// Put stores opts, replacing earlier entries with the same value.
func (c *Cache) Put(opts ...option.Option) {
	if len(opts) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, o := range opts {
		c.entries[o.Value] = o
	}
}

func (c *Cache) Get(value string) (option.Option, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.entries[value]
	return o, ok
}

// Lookup splits values into cached options and values the cache has never seen.
// Both results keep the order of values.
func (c *Cache) Lookup(values []string) (found []option.Option, missing []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, v := range values {
		if o, ok := c.entries[v]; ok {
			found = append(found, o)
		} else {
			missing = append(missing, v)
		}
	}
	return found, missing
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Snapshot returns a copy of every entry.
func (c *Cache) Snapshot() map[string]option.Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]option.Option, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}
