package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// GuardFunc decides whether a configured transition may be taken
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder collects transitions and builds machines from them
type StateMachineBuilder interface {
	// Configure returns the transition table of a state
	Configure(state State) StateConfiguration

	// Build creates a machine in initialState. Later Configure calls do not affect it.
	Build(initialState State) StateMachine
}

// StateConfiguration configures the outgoing transitions of one state
type StateConfiguration interface {
	Permit(trigger Trigger, toState State) StateConfiguration
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	toState State
	guard   GuardFunc
}

type table map[State]map[Trigger][]transition

type stateMachineBuilder struct {
	transitions table
}

type stateConfig struct {
	from  State
	table table
}

type stateMachine struct {
	mu          sync.Mutex
	current     State
	transitions table
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{transitions: make(table)}
}

func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if _, ok := b.transitions[state]; !ok {
		b.transitions[state] = make(map[Trigger][]transition)
	}
	return &stateConfig{from: state, table: b.transitions}
}

func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	copied := make(table, len(b.transitions))
	for state, byTrigger := range b.transitions {
		copied[state] = make(map[Trigger][]transition, len(byTrigger))
		for trigger, ts := range byTrigger {
			copied[state][trigger] = append([]transition(nil), ts...)
		}
	}
	return &stateMachine{current: initialState, transitions: copied}
}

func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	c.table[c.from][trigger] = append(c.table[c.from][trigger], transition{toState: toState, guard: guard})
	return c
}

func (m *stateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// CanFire does not evaluate guards
func (m *stateMachine) CanFire(trigger Trigger) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transitions[m.current][trigger]) > 0
}

func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.transitions[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.toState
			return nil
		}
	}
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns triggers sorted by name
func (m *stateMachine) PermittedTriggers() []Trigger {
	m.mu.Lock()
	defer m.mu.Unlock()

	triggers := make([]Trigger, 0, len(m.transitions[m.current]))
	for trigger := range m.transitions[m.current] {
		triggers = append(triggers, trigger)
	}
	sort.Slice(triggers, func(i, j int) bool { return triggers[i] < triggers[j] })
	return triggers
}
