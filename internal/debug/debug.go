// Package debug wires validation reporting and debug-only entity display.
// Both are enabled only in builds with the debugging tag.
package debug

import (
	"github.com/zeusync/gamestate/internal/app"
	"github.com/zeusync/gamestate/internal/core/components"
	"github.com/zeusync/gamestate/internal/core/events/bus"
	"github.com/zeusync/gamestate/internal/core/models"
	"github.com/zeusync/gamestate/internal/core/observability/log"
	"github.com/zeusync/gamestate/internal/core/system"
	"github.com/zeusync/gamestate/internal/core/validation"
)

const (
	ValidationSet system.Set = "validation"
	DisplaySet    system.Set = "debug_display"
)

// DebugMarker tags entities that only exist for debugging.
type DebugMarker struct{}

// DebugEnabled shows a marked entity when true.
type DebugEnabled bool

// DebugMode is fixed for the lifetime of the process.
type DebugMode struct {
	Enabled bool
}

func (m DebugMode) condition() system.Condition {
	return func(*system.Context) bool { return m.Enabled }
}

// Plugin configures both debug sets, registers the validation event channel
// and installs the visibility toggler.
func Plugin(a *app.App) {
	a.Scheduler.ConfigureSet(system.PostUpdate, ValidationSet, system.Flag(a.Config.Debugging))
	a.Scheduler.ConfigureSet(system.Update, DisplaySet, system.Flag(a.Config.Debugging))

	events := app.AddEvent[validation.ValidationErrorEvent](a)
	events.Subscribe(logFailure(a.Logger.Unsampled()))

	mode := DebugMode{Enabled: a.Config.Debugging}
	a.Scheduler.AddSystem(system.Update, ManageVisibility(),
		system.InSet(DisplaySet),
		system.RunIf(mode.condition()))
}

// Events returns the validation event channel, registering it if needed.
func Events(a *app.App) *bus.Channel[validation.ValidationErrorEvent] {
	return app.AddEvent[validation.ValidationErrorEvent](a)
}

// AddValidation schedules rules in ValidationSet.
func AddValidation(a *app.App, rules ...system.System) {
	for _, r := range rules {
		a.Scheduler.AddSystem(system.PostUpdate, r, system.InSet(ValidationSet))
	}
}

// Workers applies the configured validation parallelism to a per-component
// rule.
func Workers(a *app.App) validation.Option {
	return validation.WithWorkers(a.Config.Validation.Workers)
}

// ManageVisibility shows every DebugMarker entity whose DebugEnabled flag is
// true and hides the rest. Unmarked entities are left alone.
func ManageVisibility() system.System {
	return system.Func("debug.manage_visibility", func(ctx *system.Context) error {
		query := models.NewQuery[components.Visibility](ctx.World, models.With[DebugMarker]())
		query.EachMut(func(id models.EntityID, v *components.Visibility) bool {
			want := components.Hidden
			if enabled, _ := models.Get[DebugEnabled](ctx.World, id); enabled {
				want = components.Visible
			}
			if *v == want {
				return false
			}
			*v = want
			return true
		})
		return nil
	})
}

func logFailure(logger log.Log) bus.Handler[validation.ValidationErrorEvent] {
	return func(e validation.ValidationErrorEvent) error {
		fields := []log.Field{
			log.Stringer("check", e.Check),
			log.String("component", e.Component),
		}
		if !e.Entity.IsZero() {
			fields = append(fields, log.Stringer("entity", e.Entity))
		}
		logger.Warn(e.Message, fields...)
		return nil
	}
}
