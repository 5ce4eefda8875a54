package match

import (
	"sort"
	"strings"

	"github.com/bastiangx/pickserve/pkg/option"
)

// Score ranks candidates against query using the rules of language lang.
//
// An empty (or blank) query returns every candidate unscored in input order.
// When filterAndSort is set, non-matching candidates are dropped and the rest
// are ordered by score, then label, then value. Otherwise every candidate is
// returned in input order with its score and highlight filled in; this is used
// when the source already filtered and ranked the list.
func Score(query string, candidates []option.Option, lang string, filterAndSort bool) []option.Match {
	query = strings.TrimSpace(query)
	results := make([]option.Match, len(candidates))

	if query == "" {
		for i, c := range candidates {
			results[i] = option.Unscored(c)
		}
		return results
	}

	t := toolsFor(lang)

	if strings.Contains(query, ",") {
		segments := splitSegments(query)
		for i, c := range candidates {
			results[i] = t.scoreSegments(segments, c)
		}
	} else {
		queryWords := wordsOf(query)
		for i, c := range candidates {
			results[i] = t.scoreOption(query, queryWords, c)
		}
	}

	if !filterAndSort {
		return results
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Score > 0 {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if c := t.compare(a.Label, b.Label); c != 0 {
			return c < 0
		}
		return t.compare(a.Value, b.Value) < 0
	})

	return filtered
}

// splitSegments splits a comma query into trimmed, non-empty segments.
func splitSegments(query string) []string {
	parts := strings.Split(query, ",")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// scoreSegments keeps the best equality match over all segments.
// The earliest segment wins a tie.
func (t *tools) scoreSegments(segments []string, c option.Option) option.Match {
	best := option.Unscored(c)
	for _, seg := range segments {
		if m, ok := t.exact(seg, c); ok && m.Score > best.Score {
			best = m
		}
	}
	return best
}

// scoreOption walks the tiers for a single option.
func (t *tools) scoreOption(query string, queryWords []word, c option.Option) option.Match {
	if m, ok := t.exact(query, c); ok {
		return m
	}

	labelWords := wordsOf(c.Label)

	if span, ok := t.phrase(queryWords, labelWords); ok {
		return matched(c, option.ScorePrefix, option.TargetLabel, span)
	}

	prefix := truncateRunes(c.Value, runeLen(query))
	if prefix != "" && t.caseEqual(prefix, query) {
		return matched(c, option.ScorePrefix, option.TargetValue, option.Span{Start: 0, End: len(prefix)})
	}

	return t.overlap(queryWords, labelWords, c)
}

// exact tries the three equality tiers.
func (t *tools) exact(q string, c option.Option) (option.Match, bool) {
	switch {
	case c.Value == q:
		return whole(c, option.ScoreExact, option.TargetValue), true
	case c.Label == q:
		return whole(c, option.ScoreExact, option.TargetLabel), true
	case t.caseEqual(c.Value, q):
		return whole(c, option.ScoreCaseInsensitive, option.TargetValue), true
	case t.caseEqual(c.Label, q):
		return whole(c, option.ScoreCaseInsensitive, option.TargetLabel), true
	case t.baseEqual(c.Label, q):
		return whole(c, option.ScoreAccentInsensitive, option.TargetLabel), true
	case t.baseEqual(c.Value, q):
		return whole(c, option.ScoreAccentInsensitive, option.TargetValue), true
	}
	return option.Match{}, false
}

// phrase looks for the query words on consecutive label words. All but the last
// query word must be equal to their label word; the last may be a prefix.
// The span runs from the first matched word to the end of the prefix.
func (t *tools) phrase(queryWords, labelWords []word) (option.Span, bool) {
	n := len(queryWords)
	if n == 0 {
		return option.Span{}, false
	}

	for i := 0; i+n <= len(labelWords); i++ {
		ok := true
		for j := 0; j < n-1; j++ {
			if !t.baseEqual(labelWords[i+j].text, queryWords[j].text) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		last := labelWords[i+n-1]
		tail := queryWords[n-1].text
		prefix := truncateRunes(last.text, runeLen(tail))
		if t.baseEqual(prefix, tail) {
			return option.Span{Start: labelWords[i].start, End: last.start + len(prefix)}, true
		}
	}
	return option.Span{}, false
}

// overlap scores the share of query words found anywhere in the label.
// Each label word can satisfy one query word at most.
func (t *tools) overlap(queryWords, labelWords []word, c option.Option) option.Match {
	if len(queryWords) == 0 {
		return option.Unscored(c)
	}

	used := make([]bool, len(labelWords))
	spans := []option.Span{}
	for _, qw := range queryWords {
		for k, lw := range labelWords {
			if used[k] || !t.baseEqual(lw.text, qw.text) {
				continue
			}
			used[k] = true
			spans = append(spans, option.Span{Start: lw.start, End: lw.end})
			break
		}
	}

	if len(spans) == 0 {
		return option.Unscored(c)
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].Start < spans[j].Start })
	return option.Match{
		Option:  c,
		Score:   float64(len(spans)) / float64(len(queryWords)),
		Matched: option.TargetLabel,
		Slices:  spans,
	}
}

func whole(c option.Option, score float64, target option.Target) option.Match {
	text := c.Label
	if target == option.TargetValue {
		text = c.Value
	}
	return matched(c, score, target, option.Span{Start: 0, End: len(text)})
}

func matched(c option.Option, score float64, target option.Target, span option.Span) option.Match {
	return option.Match{
		Option:  c,
		Score:   score,
		Matched: target,
		Slices:  []option.Span{span},
	}
}
