package app

import (
	"context"
	"time"

	"github.com/zeusync/gamestate/internal/config"
	"github.com/zeusync/gamestate/internal/core/events/bus"
	"github.com/zeusync/gamestate/internal/core/models"
	"github.com/zeusync/gamestate/internal/core/observability/log"
	"github.com/zeusync/gamestate/internal/core/state"
	"github.com/zeusync/gamestate/internal/core/system"
)

// App owns the world, the state machine and the scheduler that drives both.
type App struct {
	Config    *config.Config
	Logger    log.Log
	World     *models.World
	State     *state.Machine
	Events    *bus.Registry
	Scheduler *system.Scheduler
}

// Plugin installs systems, sets, sub-states or events into an App.
type Plugin func(a *App)

func New(cfg *config.Config, logger log.Log) *App {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.Nop()
	}

	world := models.NewWorld()
	machine := state.New(state.WithLogger(logger))
	events := bus.NewRegistry()

	return &App{
		Config: cfg,
		Logger: logger,
		World:  world,
		State:  machine,
		Events: events,
		Scheduler: system.NewScheduler(world, machine,
			system.WithFixedStep(cfg.Loop.FixedStep),
			system.WithLogger(logger),
			system.WithEvents(events),
		),
	}
}

// AddPlugins applies plugins in order.
func (a *App) AddPlugins(plugins ...Plugin) *App {
	for _, p := range plugins {
		p(a)
	}
	return a
}

// AddEvent registers the channel for E, or returns the existing one.
func AddEvent[E any](a *App) *bus.Channel[E] {
	return bus.Register[E](a.Events)
}

// Update runs a single cycle.
func (a *App) Update(dt time.Duration) {
	a.State.Init()
	a.Scheduler.Tick(dt)
}

// Run drives Update at Config.Loop.TickRate until ctx is done. It then
// requests the Closing phase and runs one last cycle so systems gated on
// Closing get a chance to run.
func (a *App) Run(ctx context.Context) error {
	a.State.Init()

	ticker := time.NewTicker(a.Config.Loop.TickRate)
	defer ticker.Stop()

	a.Logger.Info("game loop started",
		log.Duration("tick_rate", a.Config.Loop.TickRate),
		log.Duration("fixed_step", a.Config.Loop.FixedStep),
		log.Bool("debugging", a.Config.Debugging))

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			a.Update(now.Sub(last))
			last = now
		case <-ctx.Done():
			a.State.SetPhase(state.Closing)
			a.Update(time.Since(last))
			a.Logger.Info("game loop stopped",
				log.Uint64("frames", a.Scheduler.Frame()),
				log.Stringer("phase", a.State.Phase()))
			return nil
		}
	}
}
