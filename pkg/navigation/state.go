package navigation

// State holds the active entry. The zero value has nothing active.
type State struct {
	Active string
}

// Down moves to the next entry, wrapping from last to first. With nothing
// active it goes to the first entry.
func (s State) Down(l List) State {
	if l.Len() == 0 {
		return State{}
	}
	i := l.Index(s.Active)
	if i < 0 || i == l.Len()-1 {
		return State{Active: l.Entries[0]}
	}
	return State{Active: l.Entries[i+1]}
}

// Up moves to the previous entry, wrapping from first to last. With nothing
// active it goes to the last entry, not the first.
func (s State) Up(l List) State {
	if l.Len() == 0 {
		return State{}
	}
	i := l.Index(s.Active)
	if i <= 0 {
		return State{Active: l.Entries[l.Len()-1]}
	}
	return State{Active: l.Entries[i-1]}
}

func (s State) First(l List) State {
	if l.Len() == 0 {
		return State{}
	}
	return State{Active: l.Entries[0]}
}

func (s State) Last(l List) State {
	if l.Len() == 0 {
		return State{}
	}
	return State{Active: l.Entries[l.Len()-1]}
}

// PageDown moves n entries forward, stopping at the last one.
func (s State) PageDown(l List, n int) State {
	if l.Len() == 0 {
		return State{}
	}
	if n < 1 {
		n = 1
	}
	i := l.Index(s.Active)
	return State{Active: l.Entries[clamp(i+n, 0, l.Len()-1)]}
}

// PageUp moves n entries back, stopping at the first one. With nothing
// active it counts back from past the end.
func (s State) PageUp(l List, n int) State {
	if l.Len() == 0 {
		return State{}
	}
	if n < 1 {
		n = 1
	}
	i := l.Index(s.Active)
	if i < 0 {
		i = l.Len()
	}
	return State{Active: l.Entries[clamp(i-n, 0, l.Len()-1)]}
}

// Hover activates value if it is navigable. Pointer moves never scroll.
func (s State) Hover(l List, value string) State {
	if l.Index(value) < 0 {
		return s
	}
	return State{Active: value}
}

// Reset clears the active entry, as when the list closes.
func (s State) Reset() State {
	return State{}
}

// Valid reports whether the active entry is still in l.
func (s State) Valid(l List) bool {
	return l.Index(s.Active) >= 0
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
