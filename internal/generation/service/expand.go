package service

import "github.com/davinci-studio/studio-backend/internal/generation/domain"

// Expand lists every (ratio, sequence) slot of a batch: ratios in declared
// order, batchCount sequential entries per ratio. The result order is the
// display order of the batch.
func Expand(ratios []domain.AspectRatio, batchCount int) []domain.Slot {
	if batchCount <= 0 {
		return nil
	}
	slots := make([]domain.Slot, 0, len(ratios)*batchCount)
	for _, r := range ratios {
		for i := 0; i < batchCount; i++ {
			slots = append(slots, domain.Slot{AspectRatio: r, Sequence: i})
		}
	}
	return slots
}

// BuildRequests expands a submission into concrete generator requests
func BuildRequests(sub domain.Submission) []domain.GenerationRequest {
	slots := Expand(sub.AspectRatios, sub.BatchCount)
	reqs := make([]domain.GenerationRequest, len(slots))
	for i, slot := range slots {
		reqs[i] = domain.GenerationRequest{
			Prompt:      sub.Prompt,
			AspectRatio: slot.AspectRatio,
			Model:       sub.Model,
			Style:       sub.Style,
			Sequence:    slot.Sequence,
		}
	}
	return reqs
}
