package statemachine

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrymomot/statekit/pkg/async"
)

// Runner is the view of a machine the Manager needs. *Machine[C] implements
// it for every context type, which lets one Manager hold machines with
// different contexts.
type Runner interface {
	Name() string
	Accept(ctx context.Context, e Event, b Broker) (Step, error)
	Snapshot() Snapshot
}

var _ Runner = (*Machine[struct{}])(nil)

// Step describes one accepted event.
type Step struct {
	Machine  string
	Event    Event
	Previous string
	Next     string
	Matched  bool
	// Actions settles with the merged action patches; see State.Accept.
	Actions *async.Future[Patch]
}

// Machine owns the current state name and context of one instance.
//
// Accept holds the machine lock while guards, reducers and the commit run, so
// concurrent events for the same machine are applied one at a time. Actions
// run outside the lock.
type Machine[C any] struct {
	name    string
	initial string
	states  map[string]*State[C]

	// start is the context the machine was created with, restored by Reset.
	start C

	mu      sync.Mutex
	current string
	data    C
}

// NewMachine validates the state set and returns a machine positioned at initialState.
func NewMachine[C any](name, initialState string, initial C, states ...*State[C]) (*Machine[C], error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if len(states) == 0 {
		return nil, ErrNoStates
	}

	index := make(map[string]*State[C], len(states))
	for _, s := range states {
		if s == nil {
			return nil, ErrNilState
		}
		if _, dup := index[s.Name()]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateState, s.Name())
		}
		index[s.Name()] = s
	}

	if _, ok := index[initialState]; !ok {
		return nil, NewErrUnknownState(name, initialState)
	}
	for _, s := range states {
		for _, target := range s.targets() {
			if _, ok := index[target]; !ok {
				return nil, NewErrUnknownState(name, target)
			}
		}
	}

	return &Machine[C]{
		name:    name,
		initial: initialState,
		states:  index,
		start:   initial,
		current: initialState,
		data:    cloneContext(initial),
	}, nil
}

// MustNewMachine is NewMachine that panics on invalid configuration.
func MustNewMachine[C any](name, initialState string, initial C, states ...*State[C]) *Machine[C] {
	m, err := NewMachine(name, initialState, initial, states...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

func (m *Machine[C]) Name() string {
	return m.name
}

// Initial returns the state the machine was created in.
func (m *Machine[C]) Initial() string {
	return m.initial
}

// Current returns the current state name.
func (m *Machine[C]) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Context returns a copy of the current context (see Cloner).
func (m *Machine[C]) Context() C {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneContext(m.data)
}

func (m *Machine[C]) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Context:      cloneContext(m.data),
		CurrentState: m.current,
	}
}

// Accept hands e to the active state and commits the result. A nil broker
// is replaced by DiscardBroker. On error nothing is committed.
func (m *Machine[C]) Accept(ctx context.Context, e Event, b Broker) (Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	step := Step{
		Machine:  m.name,
		Event:    e,
		Previous: m.current,
		Next:     m.current,
	}

	res, err := m.states[m.current].Accept(ctx, m.data, e, b)
	if err != nil {
		return step, err
	}

	step.Actions = res.Actions
	if res.Matched {
		m.current = res.Next
		m.data = res.Context
		step.Next = res.Next
		step.Matched = true
	}
	return step, nil
}

// CanAccept reports whether e would take a transition from the current state:
// exactly one candidate passes its guards. It runs the guards but changes
// nothing, and a later Accept may still see a different state.
func (m *Machine[C]) CanAccept(e Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, eligible := m.states[m.current].match(m.data, e)
	return eligible == 1
}

// Reset puts the machine back in its initial state and context. It bypasses
// reducers, actions and Manager hooks.
func (m *Machine[C]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = m.initial
	m.data = cloneContext(m.start)
}
