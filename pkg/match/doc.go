/*
Package match scores and highlights options against a query.

Scoring walks a fixed ladder of tiers and the first tier that succeeds decides
the score:

	9  exact, case-sensitive equality with the value, then the label
	7  case-insensitive equality (accents still count), value then label
	5  case- and accent-insensitive equality, label then value
	3  phrase/prefix: query words consumed in order by consecutive label words,
	   the last one as a prefix; falls back to a case-insensitive value prefix
	≤1 word overlap: matched query words / total query words

A query containing commas is split into segments and only the equality tiers
(9, 7, 5) are tried for each one; the best segment wins. This is what lets a
pasted "a, b, c" match any of the pasted tokens.

Comparisons are locale aware. For each language tag the package builds two
collators from golang.org/x/text/collate (one ignoring case and accents, one
ignoring case only) plus a UAX #29 word segmenter, caches them process-wide and
never evicts them.

Highlight spans are byte offsets into the matched text, so callers can slice the
label directly:

	for _, m := range match.Score("joh", opts, "en", true) {
		fmt.Println(match.Highlight(m.Text(), m.Slices, strings.ToUpper))
	}
*/
package match
