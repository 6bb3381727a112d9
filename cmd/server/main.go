package main

import (
	"context"
	"fmt"

	log "github.com/charmbracelet/log"
	"github.com/obmenka/settlement/infra/initializer"
	"github.com/obmenka/settlement/pkg/app"
	"github.com/obmenka/settlement/pkg/config"
	"github.com/obmenka/settlement/webapi"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger

	a := app.New(deps, cfg)

	if cfg.Claim.ReaperEnabled {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go a.Reaper.Run(ctx)
	}

	fiberApp := webapi.SetupApp(a)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server",
		"env", cfg.Env,
		"address", addr,
	)
	return fiberApp.Listen(addr)
}
