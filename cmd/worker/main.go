package main

import (
	"context"
	"log"
	"os"

	"github.com/davinci-studio/studio-backend/config"
	"github.com/davinci-studio/studio-backend/internal/bootstrap"
	"github.com/davinci-studio/studio-backend/internal/logging"
)

const usage = "usage: worker generate <sessionID> <prompt> [ratios] [count] | worker images <sessionID>"

func main() {
	if len(os.Args) < 3 {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Configure(cfg.App.LogLevel, nil)

	ctx := context.Background()
	backends, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer backends.Close()

	switch os.Args[1] {
	case "generate":
		err = RunGenerate(ctx, cfg, backends, os.Args[2:])
	case "images":
		err = RunImages(ctx, backends, os.Args[2:])
	default:
		log.Fatalf("unknown command: %s\n%s", os.Args[1], usage)
	}
	if err != nil {
		backends.Close()
		log.Fatal(err)
	}
}
