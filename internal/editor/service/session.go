package service

import (
	"sync"
	"time"

	"github.com/davinci-studio/studio-backend/internal/editor/domain"
)

// DefaultDebounce is the input quiescence window before an edit is recorded
const DefaultDebounce = 500 * time.Millisecond

// Session is one open editor for one image. Live parameters change on every
// user edit; history only records after the debounce window has elapsed
// without further edits.
type Session struct {
	mu sync.Mutex

	id      string
	owner   string
	imageID string
	window  time.Duration

	history domain.HistoryState
	live    domain.EditorSnapshot
	phase   domain.RecordPhase

	timer *time.Timer
	// seq invalidates timers that fired after being superseded
	seq uint64

	openedAt     time.Time
	lastActivity time.Time
	closed       bool
}

// NewSession opens a session with the default snapshot applied
func NewSession(id, imageID string, window time.Duration) *Session {
	if window <= 0 {
		window = DefaultDebounce
	}
	now := time.Now()
	h := Initialize()
	return &Session{
		id:           id,
		imageID:      imageID,
		window:       window,
		history:      h,
		live:         h.Head(),
		phase:        domain.PhaseIdle,
		openedAt:     now,
		lastActivity: now,
	}
}

func (s *Session) ID() string { return s.id }

// Change applies a user edit to the live parameters and (re)starts the
// debounce timer.
func (s *Session) Change(next domain.EditorSnapshot) (domain.SessionView, error) {
	if err := next.Validate(); err != nil {
		return domain.SessionView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.SessionView{}, domain.ErrSessionClosed
	}

	s.live = next
	s.lastActivity = time.Now()
	s.stopTimerLocked()
	s.phase = domain.PhasePending
	seq := s.seq
	s.timer = time.AfterFunc(s.window, func() { s.fire(seq) })

	return s.viewLocked(), nil
}

func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || seq != s.seq || s.phase != domain.PhasePending {
		return
	}
	s.commitLocked()
}

// Flush records a pending edit immediately
func (s *Session) Flush() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhasePending {
		s.stopTimerLocked()
		s.commitLocked()
	}
	return s.viewLocked()
}

// Undo commits any pending edit, then steps back one entry and reapplies it
func (s *Session) Undo() (domain.SessionView, error) {
	return s.move(Undo, true)
}

// Redo commits any pending edit, then steps forward one entry and reapplies it
func (s *Session) Redo() (domain.SessionView, error) {
	return s.move(Redo, true)
}

// Reset drops any pending edit and collapses history to the default snapshot
func (s *Session) Reset() (domain.SessionView, error) {
	return s.move(Reset, false)
}

func (s *Session) move(op func(domain.HistoryState) (domain.HistoryState, domain.EditorSnapshot), commitPending bool) (domain.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.SessionView{}, domain.ErrSessionClosed
	}

	pending := s.phase == domain.PhasePending
	s.stopTimerLocked()
	if pending && commitPending {
		s.commitLocked()
	}

	var target domain.EditorSnapshot
	s.history, target = op(s.history)
	// whole-struct assignment: every field comes from the same snapshot
	s.live = target
	s.phase = domain.PhaseIdle
	s.lastActivity = time.Now()
	return s.viewLocked(), nil
}

// Close flushes a pending edit and releases the timer. Further calls fail
// with ErrSessionClosed.
func (s *Session) Close() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == domain.PhasePending {
		s.stopTimerLocked()
		s.commitLocked()
	}
	s.stopTimerLocked()
	s.closed = true
	return s.viewLocked()
}

// View returns a copy of the session state
func (s *Session) View() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// History returns the current history. The entries slice is never mutated
// after publication, so callers may read it freely.
func (s *Session) History() domain.HistoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) commitLocked() {
	s.history = RecordIfChanged(s.history, s.live)
	s.phase = domain.PhaseCommitted
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
}

func (s *Session) viewLocked() domain.SessionView {
	return domain.SessionView{
		ID:           s.id,
		SessionID:    s.owner,
		ImageID:      s.imageID,
		Live:         s.live,
		Cursor:       s.history.Cursor,
		HistoryLen:   len(s.history.Entries),
		CanUndo:      s.history.CanUndo(),
		CanRedo:      s.history.CanRedo(),
		Phase:        s.phase,
		OpenedAt:     s.openedAt,
		LastActivity: s.lastActivity,
	}
}
