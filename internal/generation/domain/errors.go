package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSubmission = errors.New("invalid generation submission")
	ErrNoImageProduced   = errors.New("model returned no image")
	ErrGenerationTimeout = errors.New("generation timed out")
)

// GenerationFailure is an upstream rejection of one request. Message is
// the generator's own, possibly verbose, explanation.
type GenerationFailure struct {
	StatusCode int
	Message    string
}

func (e *GenerationFailure) Error() string {
	if e.StatusCode == 0 {
		return e.Message
	}
	return fmt.Sprintf("generator returned status %d: %s", e.StatusCode, e.Message)
}

// Failure categories used in diagnostic logs
const (
	CategoryGenerationFailure = "generation_failure"
	CategoryNoImageProduced   = "no_image_produced"
)

// Category classifies a generation error for diagnostics
func Category(err error) string {
	if errors.Is(err, ErrNoImageProduced) {
		return CategoryNoImageProduced
	}
	return CategoryGenerationFailure
}
