package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/davinci-studio/studio-backend/config"
	"github.com/davinci-studio/studio-backend/internal/bootstrap"
	gallerysvc "github.com/davinci-studio/studio-backend/internal/gallery/service"
	"github.com/davinci-studio/studio-backend/internal/generation/domain"
	"github.com/davinci-studio/studio-backend/internal/generation/provider"
	gensvc "github.com/davinci-studio/studio-backend/internal/generation/service"
)

// RunGenerate submits one batch from the command line and waits for it to persist
func RunGenerate(ctx context.Context, cfg *config.Config, b *bootstrap.Backends, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: generate <sessionID> <prompt> [ratios] [count]")
	}
	sub := domain.Submission{
		Prompt:       args[1],
		AspectRatios: []domain.AspectRatio{domain.AspectSquare},
		BatchCount:   1,
	}
	if len(args) > 2 {
		sub.AspectRatios = nil
		for _, r := range strings.Split(args[2], ",") {
			sub.AspectRatios = append(sub.AspectRatios, domain.AspectRatio(strings.TrimSpace(r)))
		}
	}
	if len(args) > 3 {
		n, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("invalid count %q: %w", args[3], err)
		}
		sub.BatchCount = n
	}

	gallery := gallerysvc.NewGallery(b.Store)
	orch := gensvc.NewOrchestrator(
		provider.NewClient(cfg.Generation.URL, cfg.Generation.APIKey),
		gallery,
		gallery,
		gensvc.Options{
			Timeout:      cfg.Generation.Timeout,
			Concurrency:  cfg.Generation.Concurrency,
			DefaultModel: cfg.Generation.DefaultModel,
		},
	)
	res, err := orch.Submit(ctx, args[0], sub)
	if err != nil {
		return err
	}
	orch.Wait()

	for _, rec := range res.Records {
		fmt.Printf(" - %s [%s] %s\n", rec.ID, rec.AspectRatio, rec.URL)
	}
	if res.Error != "" {
		return errors.New(res.Error)
	}
	return nil
}
