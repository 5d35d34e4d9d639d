package domain

import "time"

// HistoryState is the undo/redo stack of one editor session.
// Entries is never empty and 0 <= Cursor < len(Entries).
type HistoryState struct {
	Entries []EditorSnapshot `json:"entries"`
	Cursor  int              `json:"cursor"`
}

// Head returns the snapshot the cursor points at
func (h HistoryState) Head() EditorSnapshot {
	return h.Entries[h.Cursor]
}

func (h HistoryState) CanUndo() bool {
	return h.Cursor > 0
}

func (h HistoryState) CanRedo() bool {
	return h.Cursor < len(h.Entries)-1
}

// RecordPhase is the debounce state of an editor session
type RecordPhase string

const (
	PhaseIdle      RecordPhase = "idle"
	PhasePending   RecordPhase = "pending"
	PhaseCommitted RecordPhase = "committed"
)

// SessionView is the externally visible state of an editor session
type SessionView struct {
	ID           string         `json:"id"`
	SessionID    string         `json:"session_id,omitempty"`
	ImageID      string         `json:"image_id"`
	Live         EditorSnapshot `json:"live"`
	Cursor       int            `json:"cursor"`
	HistoryLen   int            `json:"history_len"`
	CanUndo      bool           `json:"can_undo"`
	CanRedo      bool           `json:"can_redo"`
	Phase        RecordPhase    `json:"phase"`
	OpenedAt     time.Time      `json:"opened_at"`
	LastActivity time.Time      `json:"last_activity"`
}
