package service

import "github.com/davinci-studio/studio-backend/internal/editor/domain"

// Initialize returns a history holding only the default snapshot
func Initialize() domain.HistoryState {
	return domain.HistoryState{
		Entries: []domain.EditorSnapshot{domain.DefaultSnapshot()},
		Cursor:  0,
	}
}

// RecordIfChanged appends candidate after the cursor, discarding any redo
// branch. A candidate equal to the current head leaves state unchanged.
func RecordIfChanged(state domain.HistoryState, candidate domain.EditorSnapshot) domain.HistoryState {
	if candidate == state.Head() {
		return state
	}
	entries := make([]domain.EditorSnapshot, state.Cursor+1, state.Cursor+2)
	copy(entries, state.Entries[:state.Cursor+1])
	entries = append(entries, candidate)
	return domain.HistoryState{Entries: entries, Cursor: len(entries) - 1}
}

// Undo moves the cursor back one step. At the start of history it is a no-op.
func Undo(state domain.HistoryState) (domain.HistoryState, domain.EditorSnapshot) {
	if !state.CanUndo() {
		return state, state.Head()
	}
	next := domain.HistoryState{Entries: state.Entries, Cursor: state.Cursor - 1}
	return next, next.Head()
}

// Redo moves the cursor forward one step. At the end of history it is a no-op.
func Redo(state domain.HistoryState) (domain.HistoryState, domain.EditorSnapshot) {
	if !state.CanRedo() {
		return state, state.Head()
	}
	next := domain.HistoryState{Entries: state.Entries, Cursor: state.Cursor + 1}
	return next, next.Head()
}

// Reset collapses history to the default snapshot
func Reset(domain.HistoryState) (domain.HistoryState, domain.EditorSnapshot) {
	next := Initialize()
	return next, next.Head()
}
