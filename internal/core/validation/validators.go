package validation

import (
	"fmt"

	"github.com/zeusync/gamestate/internal/core/events/bus"
	"github.com/zeusync/gamestate/internal/core/models"
	"github.com/zeusync/gamestate/internal/core/system"
)

// ComponentValidator checks a single component value. A non-nil error is a
// failure and its text becomes the event message.
type ComponentValidator[T any] interface {
	ValidateComponent(value T) error
}

// ValidatorFunc adapts a function into a ComponentValidator.
type ValidatorFunc[T any] func(value T) error

func (f ValidatorFunc[T]) ValidateComponent(value T) error { return f(value) }

// CommandValidator is a ComponentValidator that may queue corrective commands
// against the entity it is checking. Queued commands are applied after the
// whole pass has finished.
type CommandValidator[T any] interface {
	ValidateComponent(value T, commands models.EntityCommands) error
}

// CommandValidatorFunc adapts a function into a CommandValidator.
type CommandValidatorFunc[T any] func(value T, commands models.EntityCommands) error

func (f CommandValidatorFunc[T]) ValidateComponent(value T, commands models.EntityCommands) error {
	return f(value, commands)
}

type options struct {
	workers int
}

// Option configures a per-component validation system.
type Option func(*options)

// WithWorkers bounds the goroutines used for one pass. Zero or less means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Component validates every T in the world on each run.
func Component[T any](v ComponentValidator[T], out bus.Writer[ValidationErrorEvent], opts ...Option) system.System {
	return scan[T]("component", false, out, opts, func(_ *system.Context, _ models.EntityID, value T) error {
		return v.ValidateComponent(value)
	})
}

// ChangedComponent validates only the T values added or modified since the
// system last ran.
func ChangedComponent[T any](v ComponentValidator[T], out bus.Writer[ValidationErrorEvent], opts ...Option) system.System {
	return scan[T]("changed_component", true, out, opts, func(_ *system.Context, _ models.EntityID, value T) error {
		return v.ValidateComponent(value)
	})
}

// ComponentWithCommands validates every T and hands v a command handle
// scoped to the entity.
func ComponentWithCommands[T any](v CommandValidator[T], out bus.Writer[ValidationErrorEvent], opts ...Option) system.System {
	return scan[T]("component_commands", false, out, opts, func(ctx *system.Context, id models.EntityID, value T) error {
		return v.ValidateComponent(value, ctx.Commands.Entity(id))
	})
}

// ChangedComponentWithCommands is ComponentWithCommands restricted to
// changed values.
func ChangedComponentWithCommands[T any](v CommandValidator[T], out bus.Writer[ValidationErrorEvent], opts ...Option) system.System {
	return scan[T]("changed_component_commands", true, out, opts, func(ctx *system.Context, id models.EntityID, value T) error {
		return v.ValidateComponent(value, ctx.Commands.Entity(id))
	})
}

func scan[T any](
	kind string,
	changedOnly bool,
	out bus.Writer[ValidationErrorEvent],
	opts []Option,
	validate func(ctx *system.Context, id models.EntityID, value T) error,
) system.System {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	component := models.TypeName[T]()
	componentID := models.ComponentIDOf[T]()
	name := fmt.Sprintf("validation.%s[%s]", kind, component)

	return system.Func(name, func(ctx *system.Context) error {
		query := models.NewQuery[T](ctx.World)
		if changedOnly {
			query = query.Changed(ctx.LastRun)
		}
		query.ParEach(o.workers, func(id models.EntityID, value T) {
			if err := validate(ctx, id, value); err != nil {
				out.Send(ValidationErrorEvent{
					Message:     err.Error(),
					Check:       ComponentValidationError,
					Entity:      id,
					Component:   component,
					ComponentID: componentID,
				})
			}
		})
		return nil
	})
}
