// Package option holds the data model shared by the matcher, the resolver and the
// selection/navigation controllers.
package option

// Option is a single selectable candidate. Value is its identity; labels may repeat.
type Option struct {
	Label    string `toml:"label" msgpack:"l"`
	Value    string `toml:"value" msgpack:"v"`
	Icon     string `toml:"icon,omitempty" msgpack:"i,omitempty"`
	Disabled bool   `toml:"disabled,omitempty" msgpack:"d,omitempty"`
	Divider  bool   `toml:"divider,omitempty" msgpack:"div,omitempty"`
}

// Identity returns the placeholder option used for a value whose label is unknown.
func Identity(value string) Option {
	return Option{Label: value, Value: value}
}

// Target names the field a match was found in.
type Target string

const (
	TargetValue Target = "value"
	TargetLabel Target = "label"
	TargetNone  Target = "none"
)

// Scores of the discrete match tiers. Word overlap scores fall in (0, 1].
const (
	ScoreNone              = 0.0
	ScorePrefix            = 3.0
	ScoreAccentInsensitive = 5.0
	ScoreCaseInsensitive   = 7.0
	ScoreExact             = 9.0
)

// Span is a half-open byte range [Start, End) into the matched text.
type Span struct {
	Start int `msgpack:"s"`
	End   int `msgpack:"e"`
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Match is an Option annotated with its score and highlight spans.
type Match struct {
	Option
	Score   float64
	Matched Target
	Slices  []Span
}

// Text returns the string the spans index into.
func (m Match) Text() string {
	if m.Matched == TargetValue {
		return m.Value
	}
	return m.Label
}

// Unscored wraps an option with a zero score and no highlight.
func Unscored(opt Option) Match {
	return Match{Option: opt, Matched: TargetNone, Slices: []Span{}}
}

// Values extracts option values in order.
func Values(opts []Option) []string {
	values := make([]string, len(opts))
	for i, o := range opts {
		values[i] = o.Value
	}
	return values
}

// Index builds a value -> option lookup. Later entries win.
func Index(opts []Option) map[string]Option {
	lookup := make(map[string]Option, len(opts))
	for _, o := range opts {
		lookup[o.Value] = o
	}
	return lookup
}
