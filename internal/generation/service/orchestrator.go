package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/davinci-studio/studio-backend/internal/generation/domain"
	"github.com/davinci-studio/studio-backend/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Generator produces one image per request
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (domain.GeneratedImage, error)
}

// Collection receives a whole batch in one update
type Collection interface {
	Prepend(ctx context.Context, sessionID string, records []domain.GeneratedImageRecord) error
}

// ImageStore persists single records
type ImageStore interface {
	SaveImage(ctx context.Context, rec domain.GeneratedImageRecord) error
}

// Options tunes an Orchestrator
type Options struct {
	// Timeout bounds each generator call; zero means no per-request bound
	Timeout time.Duration
	// Concurrency limits in-flight generator calls per batch; zero means unbounded
	Concurrency int
	// DefaultModel is used when a submission names no model
	DefaultModel string
}

// Orchestrator turns submissions into merged, persisted image records
type Orchestrator struct {
	gen        Generator
	collection Collection
	store      ImageStore
	opts       Options
	metrics    *Metrics

	now   func() time.Time
	newID func() string

	persisting sync.WaitGroup
}

// NewOrchestrator creates an Orchestrator
func NewOrchestrator(gen Generator, collection Collection, store ImageStore, opts Options) *Orchestrator {
	return &Orchestrator{
		gen:        gen,
		collection: collection,
		store:      store,
		opts:       opts,
		metrics:    &Metrics{},
		now:        time.Now,
		newID:      func() string { return uuid.New().String() },
	}
}

// Metrics returns the orchestrator's counters
func (o *Orchestrator) Metrics() *Metrics {
	return o.metrics
}

type outcome struct {
	image domain.GeneratedImage
	err   error
}

// Submit runs one batch to completion. Cancelling ctx does not abandon the
// batch: every request still settles against its own timeout and successes
// are merged and persisted. It returns an error for invalid input or when
// the merge itself fails; generation failures are reported through
// BatchResult.Error.
func (o *Orchestrator) Submit(ctx context.Context, sessionID string, sub domain.Submission) (*domain.BatchResult, error) {
	if strings.TrimSpace(sub.Model) == "" {
		sub.Model = o.opts.DefaultModel
	}
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidSubmission)
	}

	ctx = context.WithoutCancel(ctx)
	logger := logging.NewLogger(ctx)
	requests := BuildRequests(sub)
	outcomes := make([]outcome, len(requests))
	o.metrics.batches.Add(1)

	var g errgroup.Group
	if o.opts.Concurrency > 0 {
		g.SetLimit(o.opts.Concurrency)
	}
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			outcomes[i] = o.generateOne(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.BatchResult{Requested: len(requests)}
	base := o.now().UTC()
	var firstErr error
	for i, out := range outcomes {
		req := requests[i]
		if out.err != nil {
			result.Failed++
			if firstErr == nil {
				firstErr = out.err
			}
			logger.LogErrorf("generate", "session=%s category=%s index=%d ratio=%s model=%s error=%v",
				sessionID, domain.Category(out.err), i, req.AspectRatio, req.Model, out.err)
			continue
		}
		result.Records = append(result.Records, domain.GeneratedImageRecord{
			ID:          o.newID(),
			SessionID:   sessionID,
			URL:         out.image.URL,
			Prompt:      req.Prompt,
			AspectRatio: req.AspectRatio,
			Model:       req.Model,
			Style:       req.Style,
			// distinct per sibling even when the clock is coarse
			Timestamp: base.Add(time.Duration(len(requests)-i) * time.Millisecond),
		})
	}

	if firstErr != nil {
		result.Error = failureSummary(result.Failed, result.Requested, firstErr)
	}

	if len(result.Records) > 0 {
		if err := o.collection.Prepend(ctx, sessionID, result.Records); err != nil {
			logger.LogError("merge", err)
			return nil, fmt.Errorf("merge batch: %w", err)
		}
		o.persistAsync(ctx, result.Records)
	}

	logger.LogInfof("generate", "session=%s requested=%d succeeded=%d failed=%d",
		sessionID, result.Requested, len(result.Records), result.Failed)
	return result, nil
}

func (o *Orchestrator) generateOne(ctx context.Context, req domain.GenerationRequest) outcome {
	reqCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	img, err := o.gen.Generate(reqCtx, req)
	if err == nil && img.URL == "" {
		err = domain.ErrNoImageProduced
	}
	if err != nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		err = fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, o.opts.Timeout)
	}
	o.metrics.recordRequest(time.Since(start), err, errors.Is(err, domain.ErrNoImageProduced))
	return outcome{image: img, err: err}
}

// persistAsync saves each record in the background. The merge already
// happened, so a failed save is logged and never rolled back.
func (o *Orchestrator) persistAsync(ctx context.Context, records []domain.GeneratedImageRecord) {
	if o.store == nil {
		return
	}
	pctx := context.WithoutCancel(ctx)
	logger := logging.NewLogger(ctx)
	for _, rec := range records {
		rec := rec
		o.persisting.Add(1)
		go func() {
			defer o.persisting.Done()
			if err := o.store.SaveImage(pctx, rec); err != nil {
				o.metrics.persistFailures.Add(1)
				logger.LogErrorf("persist", "image=%s session=%s error=%v", rec.ID, rec.SessionID, err)
			}
		}()
	}
}

// Wait blocks until background persistence has finished
func (o *Orchestrator) Wait() {
	o.persisting.Wait()
}

func validateSubmission(sub domain.Submission) error {
	if strings.TrimSpace(sub.Prompt) == "" {
		return fmt.Errorf("%w: prompt is required", domain.ErrInvalidSubmission)
	}
	if len(sub.AspectRatios) == 0 {
		return fmt.Errorf("%w: at least one aspect ratio is required", domain.ErrInvalidSubmission)
	}
	seen := make(map[domain.AspectRatio]bool, len(sub.AspectRatios))
	for _, r := range sub.AspectRatios {
		if !r.Valid() {
			return fmt.Errorf("%w: unsupported aspect ratio %q", domain.ErrInvalidSubmission, r)
		}
		if seen[r] {
			return fmt.Errorf("%w: duplicate aspect ratio %q", domain.ErrInvalidSubmission, r)
		}
		seen[r] = true
	}
	if sub.BatchCount < 1 || sub.BatchCount > domain.MaxBatchCount {
		return fmt.Errorf("%w: batch count must be between 1 and %d", domain.ErrInvalidSubmission, domain.MaxBatchCount)
	}
	if strings.TrimSpace(sub.Model) == "" {
		return fmt.Errorf("%w: model is required", domain.ErrInvalidSubmission)
	}
	return nil
}
