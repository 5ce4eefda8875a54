package utils

// ValueFilter drops repeated values while keeping first-seen order.
// It is not safe for concurrent use.
type ValueFilter struct {
	seen map[string]bool
}

// NewValueFilter creates a filter that already treats seed as seen.
func NewValueFilter(seed ...string) *ValueFilter {
	seen := make(map[string]bool, len(seed))
	for _, v := range seed {
		seen[v] = true
	}
	return &ValueFilter{seen: seen}
}

// ShouldInclude reports whether v is new, and marks it as seen.
func (f *ValueFilter) ShouldInclude(v string) bool {
	if f.seen[v] {
		return false
	}
	f.seen[v] = true
	return true
}

// Dedup returns values without repeats, first occurrence wins.
func Dedup(values []string) []string {
	f := NewValueFilter()
	out := make([]string, 0, len(values))
	for _, v := range values {
		if f.ShouldInclude(v) {
			out = append(out, v)
		}
	}
	return out
}

// CreateRankList creates a slice of ranks based on position.
// The rank starts at 1 for the first item and increments for subsequent items.
// Useful for ranking items that are already sorted.
func CreateRankList(count int) []uint16 {
	if count <= 0 {
		return []uint16{}
	}
	ranks := make([]uint16, count)
	for i := 0; i < count; i++ {
		ranks[i] = uint16(i + 1)
	}
	return ranks
}
