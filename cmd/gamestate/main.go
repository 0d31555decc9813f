package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/gamestate/internal/config"
	"github.com/zeusync/gamestate/internal/core/observability/log"
	"github.com/zeusync/gamestate/internal/core/state"
	"github.com/zeusync/gamestate/internal/debug"
	"github.com/zeusync/gamestate/internal/injector"
	"github.com/zeusync/gamestate/internal/phases"
	"github.com/zeusync/gamestate/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gamestate:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Logger.Sync() }()

	a.AddPlugins(phases.All()...)
	a.AddPlugins(debug.Plugin)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Overlay.Enabled {
		overlay := server.NewOverlay(a.State, a.Logger)
		overlay.Attach(debug.Events(a))
		if err = overlay.Start(cfg.Overlay.Address); err != nil {
			return err
		}
		defer func() {
			if err := overlay.Stop(context.Background()); err != nil {
				a.Logger.Warn("stop overlay", log.Error(err))
			}
		}()
	}

	// Loading has nothing to wait on yet.
	a.State.SetPhase(state.MainMenu)
	return a.Run(ctx)
}

func loadConfig() (*config.Config, error) {
	path := os.Getenv("GAMESTATE_CONFIG")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
