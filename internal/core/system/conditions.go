package system

import "github.com/zeusync/gamestate/internal/core/state"

// Condition decides whether a set or system runs this cycle. A condition that
// panics is treated as false.
type Condition func(ctx *Context) bool

// InState holds while the current phase is p.
func InState(p state.Phase) Condition {
	return func(ctx *Context) bool {
		return ctx.State != nil && ctx.State.Phase() == p
	}
}

// InSubState holds while S is active and equal to value. An inactive or
// unregistered sub-state makes it false.
func InSubState[S state.SubState](value S) Condition {
	return func(ctx *Context) bool {
		if ctx.State == nil {
			return false
		}
		cur, ok := state.Get[S](ctx.State)
		return ok && cur == value
	}
}

// Flag is a constant condition, used for build-time switches.
func Flag(enabled bool) Condition {
	return func(*Context) bool { return enabled }
}

// Not inverts c.
func Not(c Condition) Condition {
	return func(ctx *Context) bool { return !c(ctx) }
}
