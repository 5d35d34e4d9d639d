package service

import (
	"testing"

	"github.com/davinci-studio/studio-backend/internal/editor/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(scale float64) domain.EditorSnapshot {
	s := domain.DefaultSnapshot()
	s.Scale = scale
	return s
}

func TestInitialize(t *testing.T) {
	h := Initialize()
	require.Len(t, h.Entries, 1)
	assert.Equal(t, 0, h.Cursor)
	assert.Equal(t, domain.DefaultSnapshot(), h.Head())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestRecordIfChanged(t *testing.T) {
	t.Run("pushing the current head is a no-op", func(t *testing.T) {
		h := Initialize()
		h = RecordIfChanged(h, snap(120))
		h = RecordIfChanged(h, snap(140))
		h, _ = Undo(h)

		again := RecordIfChanged(h, h.Head())
		assert.Equal(t, h, again)
	})

	t.Run("appends and advances the cursor", func(t *testing.T) {
		h := RecordIfChanged(Initialize(), snap(150))
		require.Len(t, h.Entries, 2)
		assert.Equal(t, 1, h.Cursor)
		assert.Equal(t, snap(150), h.Head())
	})

	t.Run("discards the redo branch", func(t *testing.T) {
		h := Initialize()
		h = RecordIfChanged(h, snap(110))
		h = RecordIfChanged(h, snap(120))
		h = RecordIfChanged(h, snap(130))
		h, _ = Undo(h)
		h, _ = Undo(h)
		require.True(t, h.CanRedo())

		h = RecordIfChanged(h, snap(200))
		assert.Equal(t, []domain.EditorSnapshot{domain.DefaultSnapshot(), snap(110), snap(200)}, h.Entries)
		assert.False(t, h.CanRedo())

		redone, head := Redo(h)
		assert.Equal(t, h, redone)
		assert.Equal(t, snap(200), head)
	})

	t.Run("does not mutate the input state", func(t *testing.T) {
		h := Initialize()
		h = RecordIfChanged(h, snap(110))
		h = RecordIfChanged(h, snap(120))
		before, _ := Undo(h)
		saved := append([]domain.EditorSnapshot(nil), before.Entries...)

		_ = RecordIfChanged(before, snap(300))
		assert.Equal(t, saved, before.Entries)
		assert.Equal(t, snap(120), h.Entries[2])
	})
}

func TestUndoRedo(t *testing.T) {
	t.Run("round trip over N pushes", func(t *testing.T) {
		const n = 5
		h := Initialize()
		for i := 1; i <= n; i++ {
			h = RecordIfChanged(h, snap(100+float64(i)*10))
		}
		last := h.Head()

		var live domain.EditorSnapshot
		for i := 0; i < n; i++ {
			h, live = Undo(h)
		}
		assert.Equal(t, domain.DefaultSnapshot(), live)
		assert.Equal(t, 0, h.Cursor)

		for i := 0; i < n; i++ {
			h, live = Redo(h)
		}
		assert.Equal(t, last, live)
		assert.Equal(t, n, h.Cursor)
	})

	t.Run("undo at start is a no-op", func(t *testing.T) {
		h := Initialize()
		next, live := Undo(h)
		assert.Equal(t, h, next)
		assert.Equal(t, domain.DefaultSnapshot(), live)
	})

	t.Run("redo at end is a no-op", func(t *testing.T) {
		h := RecordIfChanged(Initialize(), snap(150))
		next, live := Redo(h)
		assert.Equal(t, h, next)
		assert.Equal(t, snap(150), live)
	})
}

func TestReset(t *testing.T) {
	h := Initialize()
	h = RecordIfChanged(h, snap(110))
	h = RecordIfChanged(h, snap(120))

	h, live := Reset(h)
	assert.Equal(t, Initialize(), h)
	assert.Equal(t, domain.DefaultSnapshot(), live)
}
