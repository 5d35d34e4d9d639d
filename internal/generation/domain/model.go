package domain

import "time"

// AspectRatio is one of the fixed output shapes the generator supports
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectWide      AspectRatio = "16:9"
	AspectTall      AspectRatio = "9:16"
	AspectLandscape AspectRatio = "4:3"
	AspectPortrait  AspectRatio = "3:4"
)

// Valid reports whether r is a supported aspect ratio
func (r AspectRatio) Valid() bool {
	switch r {
	case AspectSquare, AspectWide, AspectTall, AspectLandscape, AspectPortrait:
		return true
	}
	return false
}

// MaxBatchCount bounds how many images one submission may request per ratio
const MaxBatchCount = 8

// Submission is one user request from the prompt bar
type Submission struct {
	Prompt       string        `json:"prompt"`
	AspectRatios []AspectRatio `json:"aspect_ratios"`
	BatchCount   int           `json:"batch_count"`
	Model        string        `json:"model"`
	Style        string        `json:"style,omitempty"`
}

// Slot is one position in an expanded batch
type Slot struct {
	AspectRatio AspectRatio
	Sequence    int
}

// GenerationRequest is a single unit of work sent to the external generator
type GenerationRequest struct {
	Prompt      string      `json:"prompt"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Model       string      `json:"model"`
	Style       string      `json:"style,omitempty"`
	// Sequence is the index within the ratio's batch
	Sequence int `json:"-"`
}

// GeneratedImage is what the generator returns for one request
type GeneratedImage struct {
	URL string
}

// GeneratedImageRecord is a successful generation owned by a session's collection
type GeneratedImageRecord struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	URL         string      `json:"url"`
	Prompt      string      `json:"prompt"`
	AspectRatio AspectRatio `json:"aspect_ratio"`
	Model       string      `json:"model"`
	Style       string      `json:"style,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// BatchResult summarises one submission. Error is empty when every request
// succeeded.
type BatchResult struct {
	Records   []GeneratedImageRecord `json:"records"`
	Requested int                    `json:"requested"`
	Failed    int                    `json:"failed"`
	Error     string                 `json:"error,omitempty"`
}
