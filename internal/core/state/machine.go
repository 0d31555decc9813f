package state

import (
	"reflect"
	"sync"

	"github.com/zeusync/gamestate/internal/core/observability/log"
)

// slot is the type-erased view of one registered sub-state.
type slot interface {
	source() Phase
	name() string
	// enter resets the value to its default and activates it.
	enter()
	// exit discards the value and any pending request.
	exit()
	// applyPending commits a pending request; it reports the old and new value
	// when something changed.
	applyPending() (from, to string, changed bool)
}

type subSlot[S SubState] struct {
	active  bool
	current S
	pending *S
}

func (s *subSlot[S]) source() Phase {
	var zero S
	return zero.Source()
}

func (s *subSlot[S]) name() string {
	return reflect.TypeFor[S]().Name()
}

func (s *subSlot[S]) enter() {
	var zero S
	s.active = true
	s.current = zero
	s.pending = nil
}

func (s *subSlot[S]) exit() {
	var zero S
	s.active = false
	s.current = zero
	s.pending = nil
}

func (s *subSlot[S]) applyPending() (string, string, bool) {
	if s.pending == nil {
		return "", "", false
	}
	next := *s.pending
	s.pending = nil
	if !s.active || next == s.current {
		return "", "", false
	}
	from := s.current
	s.current = next
	return from.String(), next.String(), true
}

// Machine holds the current Phase and one value per registered sub-state.
//
// Requests (SetPhase, Set) only queue a change; Apply commits them. The
// scheduler calls Apply at the start of every cycle, so readers see the same
// values for a whole cycle. All methods are safe for concurrent use.
type Machine struct {
	mu sync.RWMutex

	phase        Phase
	pendingPhase *Phase
	initialized  bool

	subs  map[reflect.Type]slot
	order []reflect.Type

	onEnter      map[Phase][]func()
	onExit       map[Phase][]func()
	onTransition []func(Transition)

	logger log.Log
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger used for transition traces.
func WithLogger(l log.Log) Option {
	return func(m *Machine) { m.logger = l }
}

func New(opts ...Option) *Machine {
	m := &Machine{
		phase:   Loading,
		subs:    make(map[reflect.Type]slot),
		onEnter: make(map[Phase][]func()),
		onExit:  make(map[Phase][]func()),
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init establishes the defaults: phase Loading and every sub-state whose
// parent is Loading active at its zero value. Enter hooks of Loading run.
// Calling Init again is a no-op.
func (m *Machine) Init() {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		return
	}
	m.initialized = true
	m.phase = Loading
	for _, t := range m.order {
		if s := m.subs[t]; s.source() == m.phase {
			s.enter()
		}
	}
	hooks := append([]func(){}, m.onEnter[m.phase]...)
	m.mu.Unlock()

	for _, h := range hooks {
		h()
	}
	m.logger.Debug("state machine initialized", log.Stringer("phase", Loading))
}

// AddSubState registers S under S.Source(). Registering the same type twice
// is a no-op. A sub-state registered while its parent is current is activated
// immediately at its default.
func AddSubState[S SubState](m *Machine) {
	t := reflect.TypeFor[S]()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[t]; ok {
		return
	}
	s := &subSlot[S]{}
	m.subs[t] = s
	m.order = append(m.order, t)
	if m.initialized && s.source() == m.phase {
		s.enter()
	}
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.phase
}

// Get returns the current value of S. It reports false when S is not
// registered or its parent phase is not current.
func Get[S SubState](m *Machine) (S, bool) {
	var zero S
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[reflect.TypeFor[S]()]
	if !ok {
		return zero, false
	}
	typed := s.(*subSlot[S])
	if !typed.active {
		return zero, false
	}
	return typed.current, true
}

// SetPhase queues a transition to p, replacing any earlier pending request.
// Out-of-range values are ignored.
func (m *Machine) SetPhase(p Phase) {
	if !p.Valid() {
		return
	}
	m.mu.Lock()
	m.pendingPhase = &p
	m.mu.Unlock()
}

// Set queues a change of S. It returns false, and queues nothing, when S is
// not registered or its parent phase is not current.
func Set[S SubState](m *Machine, value S) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[reflect.TypeFor[S]()]
	if !ok {
		return false
	}
	typed := s.(*subSlot[S])
	if !typed.active {
		return false
	}
	typed.pending = &value
	return true
}

// OnEnter registers fn to run whenever p becomes current.
func (m *Machine) OnEnter(p Phase, fn func()) {
	m.mu.Lock()
	m.onEnter[p] = append(m.onEnter[p], fn)
	m.mu.Unlock()
}

// OnExit registers fn to run whenever p stops being current.
func (m *Machine) OnExit(p Phase, fn func()) {
	m.mu.Lock()
	m.onExit[p] = append(m.onExit[p], fn)
	m.mu.Unlock()
}

// OnTransition registers fn to run after every applied phase change.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.mu.Lock()
	m.onTransition = append(m.onTransition, fn)
	m.mu.Unlock()
}

// Apply commits pending requests. A phase change exits the old phase
// (discarding its sub-states), then enters the new one (resetting its
// sub-states to their defaults). Pending sub-state requests are committed
// afterwards for the sub-states that are still active. Requesting the current
// phase is a no-op. Hooks run after the lock is released, in the order
// exit, enter, transition.
func (m *Machine) Apply() []Transition {
	m.mu.Lock()

	var (
		transitions []Transition
		hooks       []func()
	)

	if m.pendingPhase != nil {
		next := *m.pendingPhase
		m.pendingPhase = nil
		if next != m.phase {
			from := m.phase
			hooks = append(hooks, m.onExit[from]...)
			for _, t := range m.order {
				if s := m.subs[t]; s.source() == from {
					s.exit()
				}
			}
			m.phase = next
			for _, t := range m.order {
				if s := m.subs[t]; s.source() == next {
					s.enter()
				}
			}
			hooks = append(hooks, m.onEnter[next]...)
			tr := Transition{From: from, To: next}
			transitions = append(transitions, tr)
			for _, fn := range m.onTransition {
				hooks = append(hooks, func() { fn(tr) })
			}
		}
	}

	type subChange struct{ name, from, to string }
	var changes []subChange
	for _, t := range m.order {
		s := m.subs[t]
		if from, to, changed := s.applyPending(); changed {
			changes = append(changes, subChange{name: s.name(), from: from, to: to})
		}
	}
	m.mu.Unlock()

	for _, tr := range transitions {
		m.logger.Debug("phase transition", log.Stringer("from", tr.From), log.Stringer("to", tr.To))
	}
	for _, c := range changes {
		m.logger.Debug("sub-state transition", log.String("state", c.name), log.String("from", c.from), log.String("to", c.to))
	}
	for _, h := range hooks {
		h()
	}
	return transitions
}
