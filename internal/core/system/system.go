package system

import (
	"fmt"
	"time"

	"github.com/zeusync/gamestate/internal/core/models"
	"github.com/zeusync/gamestate/internal/core/observability/log"
	"github.com/zeusync/gamestate/internal/core/state"
)

// Schedule is a stage of the host loop. Each cycle runs PreUpdate, then
// FixedUpdate as often as the accumulated time allows, then Update, then
// PostUpdate.
type Schedule uint8

const (
	PreUpdate Schedule = iota
	FixedUpdate
	Update
	PostUpdate

	scheduleCount
)

func (s Schedule) String() string {
	switch s {
	case PreUpdate:
		return "PreUpdate"
	case FixedUpdate:
		return "FixedUpdate"
	case Update:
		return "Update"
	case PostUpdate:
		return "PostUpdate"
	default:
		return fmt.Sprintf("Schedule(%d)", uint8(s))
	}
}

// Set names a group of systems that are enabled or disabled together.
type Set string

// Context is what a system sees while it runs.
type Context struct {
	World    *models.World
	State    *state.Machine
	Commands *models.Commands
	Logger   log.Log

	Schedule Schedule
	Delta    time.Duration

	// LastRun is the tick of this system's previous run (0 before the first
	// run); ThisRun is the tick of the current run. Components changed after
	// LastRun are "changed since the last scan".
	LastRun models.Tick
	ThisRun models.Tick
}

// System is a unit of scheduled work.
type System interface {
	Name() string
	Run(ctx *Context) error
}

type funcSystem struct {
	name string
	fn   func(ctx *Context) error
}

func (f funcSystem) Name() string           { return f.name }
func (f funcSystem) Run(ctx *Context) error { return f.fn(ctx) }

// Func adapts a function into a System.
func Func(name string, fn func(ctx *Context) error) System {
	return funcSystem{name: name, fn: fn}
}

// Metrics provides runtime metrics for a system.
type Metrics struct {
	ExecutionCount       uint64
	SkipCount            uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	MinExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
}

func (m *Metrics) record(took time.Duration, err error) {
	m.ExecutionCount++
	m.TotalExecutionTime += took
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if took > m.MaxExecutionTime {
		m.MaxExecutionTime = took
	}
	if m.MinExecutionTime == 0 || took < m.MinExecutionTime {
		m.MinExecutionTime = took
	}
	m.LastExecutionTime = time.Now()
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}
