package validation

import (
	"fmt"

	"github.com/zeusync/gamestate/internal/core/events/bus"
	"github.com/zeusync/gamestate/internal/core/models"
	"github.com/zeusync/gamestate/internal/core/system"
)

type cardinality struct {
	name     string
	required string
	check    func(found int) Check
	violated func(found int) bool
}

// ExactlyN emits one event per run while the number of entities carrying T
// differs from n.
func ExactlyN[T any](n int, out bus.Writer[ValidationErrorEvent]) system.System {
	return countRule[T](out, n, cardinality{
		name:     "exactly",
		required: "exactly",
		check:    CheckExactlyN,
		violated: func(found int) bool { return found != n },
	})
}

// AtLeastN emits one event per run while fewer than n entities carry T.
func AtLeastN[T any](n int, out bus.Writer[ValidationErrorEvent]) system.System {
	return countRule[T](out, n, cardinality{
		name:     "at_least",
		required: "at least",
		check:    CheckAtLeastN,
		violated: func(found int) bool { return found < n },
	})
}

// AtMostN emits one event per run while more than n entities carry T.
func AtMostN[T any](n int, out bus.Writer[ValidationErrorEvent]) system.System {
	return countRule[T](out, n, cardinality{
		name:     "at_most",
		required: "at most",
		check:    CheckAtMostN,
		violated: func(found int) bool { return found > n },
	})
}

func countRule[T any](out bus.Writer[ValidationErrorEvent], n int, rule cardinality) system.System {
	component := models.TypeName[T]()
	name := fmt.Sprintf("validation.%s_%d[%s]", rule.name, n, component)

	return system.Func(name, func(ctx *system.Context) error {
		found := models.Count[T](ctx.World)
		if !rule.violated(found) {
			return nil
		}
		out.Send(ValidationErrorEvent{
			Message: fmt.Sprintf("Wrong number of entities with the %s component (required %s %d, found %d)",
				component, rule.required, n, found),
			Check:       rule.check(found),
			Entity:      models.NoEntity,
			Component:   component,
			ComponentID: models.ComponentIDOf[T](),
		})
		return nil
	})
}
