package combobox

// Key is a keyboard chord the widget understands. The names follow
// bubbletea's key strings, so a terminal front end can convert directly.
type Key string

const (
	KeyDown     Key = "down"
	KeyUp       Key = "up"
	KeyHome     Key = "ctrl+home"
	KeyEnd      Key = "ctrl+end"
	KeyPageDown Key = "pgdown"
	KeyPageUp   Key = "pgup"
	KeyEnter    Key = "enter"
	KeyEscape   Key = "esc"
	KeyUndo     Key = "ctrl+z"
	KeyRedo     Key = "ctrl+y"
)
