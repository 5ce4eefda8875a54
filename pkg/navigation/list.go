// Package navigation tracks the active (highlighted) entry of a combobox list.
//
// State is a plain value and every transition returns a new one, so the
// rules can be checked without any rendering:
//
//	list := navigation.BuildList(navigation.Input{Options: opts})
//	st := navigation.State{}.Up(list) // last entry
//	st = st.Down(list)                // wraps to the first
package navigation

import (
	"slices"
	"strings"

	"github.com/bastiangx/pickserve/pkg/option"
)

// Input is what the navigable list is derived from.
type Input struct {
	Options       []option.Option
	Loading       bool
	AllowFreeText bool
	SearchText    string
	Selected      []string
}

// List is the ordered set of entries keyboard navigation moves over.
// Create holds the synthetic "create" entry text, or "" when there is none;
// when set it is also Entries[0].
type List struct {
	Entries []string
	Create  string
}

// BuildList derives the navigable list: the create entry first, when one is
// offered, then the values of selectable options in display order.
func BuildList(in Input) List {
	var l List
	text := strings.TrimSpace(in.SearchText)

	if offerCreate(in, text) {
		l.Create = text
		l.Entries = append(l.Entries, text)
	}
	for _, o := range in.Options {
		if o.Disabled || o.Divider {
			continue
		}
		l.Entries = append(l.Entries, o.Value)
	}
	return l
}

func offerCreate(in Input, text string) bool {
	if in.Loading || !in.AllowFreeText || text == "" {
		return false
	}
	if slices.Contains(in.Selected, text) {
		return false
	}
	for _, o := range in.Options {
		if o.Value == text {
			return false
		}
	}
	return true
}

func (l List) Len() int {
	return len(l.Entries)
}

// Index returns the position of value, or -1.
func (l List) Index(value string) int {
	if value == "" {
		return -1
	}
	return slices.Index(l.Entries, value)
}

// IsCreate reports whether value is the synthetic create entry.
func (l List) IsCreate(value string) bool {
	return l.Create != "" && value == l.Create
}
