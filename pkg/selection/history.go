package selection

import (
	"errors"
	"slices"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultHistory is the number of undo snapshots kept.
const DefaultHistory = 100

// history holds full selection snapshots. Callers hold the controller lock.
type history struct {
	undo       [][]string
	redo       [][]string
	maxEntries int
}

func newHistory(maxEntries int) *history {
	if maxEntries <= 0 {
		maxEntries = DefaultHistory
	}
	return &history{maxEntries: maxEntries}
}

// record saves the pre-mutation snapshot and forgets the redo branch.
func (h *history) record(before []string) {
	h.undo = append(h.undo, slices.Clone(before))
	h.redo = nil

	if len(h.undo) > h.maxEntries {
		excess := len(h.undo) - h.maxEntries
		h.undo = h.undo[excess:]
	}
}

// stepBack pops the last undo snapshot and parks current on the redo stack.
func (h *history) stepBack(current []string) ([]string, error) {
	if len(h.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, slices.Clone(current))
	return prev, nil
}

// stepForward is the mirror of stepBack.
func (h *history) stepForward(current []string) ([]string, error) {
	if len(h.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, slices.Clone(current))
	return next, nil
}

func (h *history) canUndo() bool { return len(h.undo) > 0 }
func (h *history) canRedo() bool { return len(h.redo) > 0 }
