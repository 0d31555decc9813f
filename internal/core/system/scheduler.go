package system

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zeusync/gamestate/internal/core/events/bus"
	"github.com/zeusync/gamestate/internal/core/models"
	"github.com/zeusync/gamestate/internal/core/observability/log"
	"github.com/zeusync/gamestate/internal/core/state"
)

var ErrSystemPanicked = errors.New("system panicked")

const (
	defaultFixedStep = time.Second / 64
	// maxFixedSteps bounds catch-up work after a long frame.
	maxFixedSteps = 8
)

type entry struct {
	name    string
	sys     System
	set     Set
	conds   []Condition
	lastRun models.Tick
	metrics Metrics
}

type schedule struct {
	systems []*entry
	sets    map[Set][]Condition
}

// Scheduler runs systems schedule by schedule once per Tick, gating sets and
// systems by their conditions.
type Scheduler struct {
	// running serializes Tick; mu guards registration, metrics and the
	// frame counter and is released before event handlers run.
	running sync.Mutex
	mu      sync.Mutex

	world   *models.World
	machine *state.Machine
	events  *bus.Registry
	logger  log.Log

	fixedStep   time.Duration
	accumulator time.Duration
	frame       uint64

	schedules [scheduleCount]*schedule
	byName    map[string]*entry
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithFixedStep sets the FixedUpdate timestep.
func WithFixedStep(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.fixedStep = d
		}
	}
}

// WithLogger sets the logger used for system failures.
func WithLogger(l log.Log) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithEvents makes Tick flush every channel of r at the end of the cycle.
func WithEvents(r *bus.Registry) Option {
	return func(s *Scheduler) { s.events = r }
}

func NewScheduler(world *models.World, machine *state.Machine, opts ...Option) *Scheduler {
	s := &Scheduler{
		world:     world,
		machine:   machine,
		logger:    log.Nop(),
		fixedStep: defaultFixedStep,
		byName:    make(map[string]*entry),
	}
	for i := range s.schedules {
		s.schedules[i] = &schedule{sets: make(map[Set][]Condition)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SystemOption configures one AddSystem call.
type SystemOption func(*entry)

// InSet places the system in set.
func InSet(set Set) SystemOption {
	return func(e *entry) { e.set = set }
}

// RunIf adds a condition that only this system must satisfy.
func RunIf(c Condition) SystemOption {
	return func(e *entry) { e.conds = append(e.conds, c) }
}

// AddSystem appends sys to sched and returns the name its metrics are kept
// under. Systems run in the order they were added. A name already in use
// gets a "#2", "#3", ... suffix, so adding the same system twice, or to two
// schedules, keeps separate metrics.
func (s *Scheduler) AddSystem(sched Schedule, sys System, opts ...SystemOption) string {
	e := &entry{sys: sys}
	for _, opt := range opts {
		opt(e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e.name = sys.Name()
	for n := 2; s.byName[e.name] != nil; n++ {
		e.name = fmt.Sprintf("%s#%d", sys.Name(), n)
	}
	sc := s.schedules[sched]
	sc.systems = append(sc.systems, e)
	s.byName[e.name] = e
	return e.name
}

// ConfigureSet attaches conditions to set within sched. A set runs only when
// all of its conditions hold; a set with no configuration always runs.
func (s *Scheduler) ConfigureSet(sched Schedule, set Set, conds ...Condition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.schedules[sched]
	sc.sets[set] = append(sc.sets[set], conds...)
}

// ConfigureStatedSet gates set on phase p in both Update and FixedUpdate.
func (s *Scheduler) ConfigureStatedSet(set Set, p state.Phase) {
	s.ConfigureSet(Update, set, InState(p))
	s.ConfigureSet(FixedUpdate, set, InState(p))
}

// Systems lists the system names of sched in execution order.
func (s *Scheduler) Systems(sched Schedule) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.schedules[sched]
	names := make([]string, len(sc.systems))
	for i, e := range sc.systems {
		names[i] = e.name
	}
	return names
}

// Metrics returns the metrics of the system registered under name, as
// returned by AddSystem.
func (s *Scheduler) Metrics(name string) (Metrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byName[name]
	if !ok {
		return Metrics{}, false
	}
	return e.metrics, true
}

// Frame returns the number of cycles whose systems have run.
func (s *Scheduler) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Tick runs one cycle. State transitions requested since the previous cycle
// are applied first, so every condition and system of this cycle sees the
// same state. Failing systems are logged and never stop the cycle. Event
// handlers run last, outside the scheduler lock, so they may query the
// scheduler.
func (s *Scheduler) Tick(dt time.Duration) {
	s.running.Lock()
	defer s.running.Unlock()

	s.mu.Lock()

	if s.machine != nil {
		s.machine.Apply()
	}

	s.runSchedule(PreUpdate, dt)

	s.accumulator += dt
	steps := 0
	for s.accumulator >= s.fixedStep && steps < maxFixedSteps {
		s.runSchedule(FixedUpdate, s.fixedStep)
		s.accumulator -= s.fixedStep
		steps++
	}
	if steps == maxFixedSteps && s.accumulator >= s.fixedStep {
		s.logger.Warn("fixed update falling behind, dropping time",
			log.Duration("dropped", s.accumulator))
		s.accumulator = 0
	}

	s.runSchedule(Update, dt)
	s.runSchedule(PostUpdate, dt)
	s.frame++
	s.mu.Unlock()

	if s.events != nil {
		if err := s.events.FlushAll(); err != nil {
			s.logger.Warn("event delivery failed", log.Error(err))
		}
	}
}

func (s *Scheduler) baseContext(sched Schedule, dt time.Duration) Context {
	return Context{
		World:    s.world,
		State:    s.machine,
		Logger:   s.logger,
		Schedule: sched,
		Delta:    dt,
	}
}

func (s *Scheduler) runSchedule(sched Schedule, dt time.Duration) {
	sc := s.schedules[sched]
	base := s.baseContext(sched, dt)

	eligible := make(map[Set]bool, len(sc.sets))
	for set, conds := range sc.sets {
		eligible[set] = s.evaluate(&base, conds)
	}

	for _, e := range sc.systems {
		if ok, configured := eligible[e.set]; configured && !ok {
			e.metrics.SkipCount++
			continue
		}
		if !s.evaluate(&base, e.conds) {
			e.metrics.SkipCount++
			continue
		}
		s.runSystem(e, base)
	}
}

func (s *Scheduler) evaluate(ctx *Context, conds []Condition) bool {
	for _, c := range conds {
		if !safeCondition(c, ctx) {
			return false
		}
	}
	return true
}

func (s *Scheduler) runSystem(e *entry, base Context) {
	ctx := base
	ctx.Commands = models.NewCommands()
	ctx.LastRun = e.lastRun
	ctx.ThisRun = s.world.IncrementChangeTick()

	start := time.Now()
	err := safeRun(e.sys, &ctx)
	e.metrics.record(time.Since(start), err)
	e.lastRun = ctx.ThisRun

	if err != nil {
		s.logger.Error("system failed",
			log.String("system", e.name),
			log.Stringer("schedule", base.Schedule),
			log.Error(err))
	}
	if err := s.world.Apply(ctx.Commands); err != nil {
		s.logger.Warn("deferred commands failed",
			log.String("system", e.name),
			log.Error(err))
	}
}

func safeRun(sys System, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrSystemPanicked, sys.Name(), r)
		}
	}()
	return sys.Run(ctx)
}

func safeCondition(c Condition, ctx *Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return c(ctx)
}
