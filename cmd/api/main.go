package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/davinci-studio/studio-backend/config"
	"github.com/davinci-studio/studio-backend/internal/api/http/routes"
	"github.com/davinci-studio/studio-backend/internal/bootstrap"
	cronjob "github.com/davinci-studio/studio-backend/internal/cron"
	editorsvc "github.com/davinci-studio/studio-backend/internal/editor/service"
	gallerysvc "github.com/davinci-studio/studio-backend/internal/gallery/service"
	"github.com/davinci-studio/studio-backend/internal/generation/provider"
	gensvc "github.com/davinci-studio/studio-backend/internal/generation/service"
	"github.com/davinci-studio/studio-backend/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Configure(cfg.App.LogLevel, nil)
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backends, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer backends.Close()

	gallery := gallerysvc.NewGallery(backends.Store)
	orchestrator := gensvc.NewOrchestrator(
		provider.NewClient(cfg.Generation.URL, cfg.Generation.APIKey),
		gallery,
		// saves go through the gallery so deletes and bookmarks made while a
		// save is in flight reach the store
		gallery,
		gensvc.Options{
			Timeout:      cfg.Generation.Timeout,
			Concurrency:  cfg.Generation.Concurrency,
			DefaultModel: cfg.Generation.DefaultModel,
		},
	)
	editors := editorsvc.NewManager(cfg.Editor.Debounce)

	sweeper := cronjob.NewSweeper().
		Add("editor_sessions", editors, cfg.Editor.IdleTimeout).
		Add("galleries", gallery, cfg.Gallery.IdleTimeout)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("sweeper: %v", err)
	}

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "davinci-studio",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		DB:          backends.Pool,
		Redis:       backends.Redis,
		V1: routes.V1Deps{
			Gallery:                    gallery,
			Orchestrator:               orchestrator,
			Editors:                    editors,
			GenerationsPerMinute:       cfg.Generation.RatePerMinute,
			ClientGenerationsPerMinute: cfg.Generation.ClientRatePerMinute,
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (store=%s)", cfg.Server.Port, cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	sweeper.Stop()
	// let optimistic saves land before the store closes
	orchestrator.Wait()
}
