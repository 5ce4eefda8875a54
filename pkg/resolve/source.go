package resolve

import (
	"context"
	"strings"

	"github.com/bastiangx/pickserve/pkg/option"
)

// Query is either an interactive search text or a list of values whose labels
// are needed. Exactly one of the two is meaningful.
type Query struct {
	Text   string   `msgpack:"t,omitempty"`
	Values []string `msgpack:"v,omitempty"`
}

// Search builds a text query.
func Search(text string) Query {
	return Query{Text: strings.TrimSpace(text)}
}

// Lookup builds a label-resolution query for values.
func Lookup(values []string) Query {
	return Query{Values: values}
}

// IsLookup reports whether q asks for specific values rather than a search.
func (q Query) IsLookup() bool {
	return q.Values != nil
}

// Fetcher is a remote option source. Implementations must stop work and return
// once ctx is done, and should return at most limit options.
type Fetcher interface {
	Fetch(ctx context.Context, q Query, limit int, selected []string) ([]option.Option, error)
}

// FetchFunc adapts a plain function to Fetcher.
type FetchFunc func(ctx context.Context, q Query, limit int, selected []string) ([]option.Option, error)

func (f FetchFunc) Fetch(ctx context.Context, q Query, limit int, selected []string) ([]option.Option, error) {
	return f(ctx, q, limit, selected)
}
