package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditorSnapshot_Validate(t *testing.T) {
	assert.NoError(t, DefaultSnapshot().Validate())

	tests := []struct {
		name   string
		mutate func(*EditorSnapshot)
	}{
		{"scale too small", func(s *EditorSnapshot) { s.Scale = 5 }},
		{"rotation too large", func(s *EditorSnapshot) { s.Rotation = 400 }},
		{"negative brightness", func(s *EditorSnapshot) { s.Brightness = -1 }},
		{"saturation too large", func(s *EditorSnapshot) { s.Saturation = 250 }},
		{"unknown filter", func(s *EditorSnapshot) { s.SelectedFilter = "glitch" }},
		{"unknown crop", func(s *EditorSnapshot) { s.SelectedCrop = "2:1" }},
		{"unknown clip path", func(s *EditorSnapshot) { s.ClipPath = "blob" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSnapshot()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSnapshot)
		})
	}
}

func TestEditorSnapshot_StructuralEquality(t *testing.T) {
	a := DefaultSnapshot()
	b := DefaultSnapshot()
	assert.True(t, a == b)

	b.CustomClipPath = "circle(40%)"
	assert.False(t, a == b)
}
