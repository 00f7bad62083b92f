// Package engine applies panel actions to a PanelState.
//
// Apply is pure: it never mutates its input. The current tree is deep-copied
// before a transition runs, and history entries are never modified after
// they are pushed, so a snapshot can never alias live state.
package engine

import (
	"panels/internal/action"
	"panels/internal/domain"
)

// DefaultMaxDepth is the default cap on each history stack.
const DefaultMaxDepth = 40

// Engine applies actions and keeps undo/redo history bounded to MaxDepth
// entries per stack. MaxDepth <= 0 disables the cap.
type Engine struct {
	MaxDepth int
}

// New returns an Engine with the given history cap.
func New(maxDepth int) *Engine {
	return &Engine{MaxDepth: maxDepth}
}

// Apply runs a with the default history cap.
func Apply(state domain.PanelState, a action.Action) domain.PanelState {
	return New(DefaultMaxDepth).Apply(state, a)
}

// Apply returns the state that results from applying a to state.
func (e *Engine) Apply(state domain.PanelState, a action.Action) domain.PanelState {
	next, _ := e.Step(state, a)
	return next
}

// Step is Apply that also reports whether the document changed.
//
// An action that leaves the tree unchanged (unknown ids, identical values)
// is a true no-op: state is returned as an equal copy with history intact.
// Every other action except undo/redo pushes the previous snapshot and
// clears the redo stack.
func (e *Engine) Step(state domain.PanelState, a action.Action) (domain.PanelState, bool) {
	next := state.Clone()
	switch a.(type) {
	case action.Undo:
		return e.undo(next)
	case action.Redo:
		return e.redo(next)
	case nil:
		return next, false
	}

	before := state.Snapshot()
	work := domain.Snapshot{Tabs: next.Tabs, ActiveTabID: next.ActiveTabID}
	if !transition(&work, a) || work.Equal(before) {
		return state.Clone(), false
	}

	next.Tabs = work.Tabs
	next.ActiveTabID = work.ActiveTabID
	next.UndoStack = e.push(next.UndoStack, before)
	next.RedoStack = []domain.Snapshot{}
	return next, true
}

// CanUndo reports whether an undo would change state.
func CanUndo(state domain.PanelState) bool { return len(state.UndoStack) > 0 }

// CanRedo reports whether a redo would change state.
func CanRedo(state domain.PanelState) bool { return len(state.RedoStack) > 0 }

func (e *Engine) undo(state domain.PanelState) (domain.PanelState, bool) {
	n := len(state.UndoStack)
	if n == 0 {
		return state, false
	}
	prev := state.UndoStack[n-1]
	state.RedoStack = e.push(state.RedoStack, state.Snapshot())
	state.UndoStack = state.UndoStack[:n-1]
	restore(&state, prev)
	return state, true
}

func (e *Engine) redo(state domain.PanelState) (domain.PanelState, bool) {
	n := len(state.RedoStack)
	if n == 0 {
		return state, false
	}
	next := state.RedoStack[n-1]
	state.UndoStack = e.push(state.UndoStack, state.Snapshot())
	state.RedoStack = state.RedoStack[:n-1]
	restore(&state, next)
	return state, true
}

// push appends snap, dropping the oldest entries beyond MaxDepth. The
// returned slice never shares a backing array with stack.
func (e *Engine) push(stack []domain.Snapshot, snap domain.Snapshot) []domain.Snapshot {
	out := make([]domain.Snapshot, 0, len(stack)+1)
	out = append(out, stack...)
	out = append(out, snap)
	if e.MaxDepth > 0 && len(out) > e.MaxDepth {
		out = out[len(out)-e.MaxDepth:]
	}
	return out
}

// restore makes a copy of snap the current tree. The stack entry itself
// stays untouched.
func restore(state *domain.PanelState, snap domain.Snapshot) {
	cur := snap.Clone()
	state.Tabs = cur.Tabs
	state.ActiveTabID = cur.ActiveTabID
}
