package domain

import "fmt"

// Filter, crop and clip-path identifiers accepted by the editor
var (
	Filters = map[string]bool{
		"none": true, "grayscale": true, "sepia": true, "vintage": true,
		"warm": true, "cool": true, "dramatic": true, "fade": true,
	}
	Crops = map[string]bool{
		"none": true, "1:1": true, "4:3": true, "3:4": true, "16:9": true, "9:16": true,
	}
	ClipPaths = map[string]bool{
		"none": true, "circle": true, "ellipse": true, "triangle": true,
		"hexagon": true, "star": true, "custom": true,
	}
)

// EditorSnapshot is the full set of editable parameters at one point in time.
// It is a comparable value: two snapshots with identical fields are equal under ==.
type EditorSnapshot struct {
	Scale          float64 `json:"scale"`
	Rotation       float64 `json:"rotation"`
	Brightness     float64 `json:"brightness"`
	Contrast       float64 `json:"contrast"`
	Saturation     float64 `json:"saturation"`
	SelectedFilter string  `json:"selected_filter"`
	SelectedCrop   string  `json:"selected_crop"`
	ClipPath       string  `json:"clip_path"`
	CustomClipPath string  `json:"custom_clip_path"`
}

// DefaultSnapshot returns the parameters of an untouched image
func DefaultSnapshot() EditorSnapshot {
	return EditorSnapshot{
		Scale:          100,
		Rotation:       0,
		Brightness:     100,
		Contrast:       100,
		Saturation:     100,
		SelectedFilter: "none",
		SelectedCrop:   "none",
		ClipPath:       "none",
		CustomClipPath: "",
	}
}

// Validate checks ranges and table identifiers
func (s EditorSnapshot) Validate() error {
	if s.Scale < 10 || s.Scale > 300 {
		return fmt.Errorf("%w: scale %v out of range 10..300", ErrInvalidSnapshot, s.Scale)
	}
	if s.Rotation < -360 || s.Rotation > 360 {
		return fmt.Errorf("%w: rotation %v out of range -360..360", ErrInvalidSnapshot, s.Rotation)
	}
	for name, v := range map[string]float64{
		"brightness": s.Brightness,
		"contrast":   s.Contrast,
		"saturation": s.Saturation,
	} {
		if v < 0 || v > 200 {
			return fmt.Errorf("%w: %s %v out of range 0..200", ErrInvalidSnapshot, name, v)
		}
	}
	if !Filters[s.SelectedFilter] {
		return fmt.Errorf("%w: unknown filter %q", ErrInvalidSnapshot, s.SelectedFilter)
	}
	if !Crops[s.SelectedCrop] {
		return fmt.Errorf("%w: unknown crop %q", ErrInvalidSnapshot, s.SelectedCrop)
	}
	if !ClipPaths[s.ClipPath] {
		return fmt.Errorf("%w: unknown clip path %q", ErrInvalidSnapshot, s.ClipPath)
	}
	return nil
}
