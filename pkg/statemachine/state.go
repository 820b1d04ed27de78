package statemachine

import (
	"context"
	"errors"
	"slices"

	"github.com/dmitrymomot/statekit/pkg/async"
)

// State is a named transition table. It holds no mutable data; the owning
// Machine keeps the current state name and context.
type State[C any] struct {
	name  string
	table map[string][]Transition[C]
}

// StateOption configures a state during construction.
type StateOption[C any] func(*State[C])

// NewState creates a state with the given transitions.
func NewState[C any](name string, opts ...StateOption[C]) *State[C] {
	s := &State[C]{
		name:  name,
		table: make(map[string][]Transition[C]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithTransition appends a candidate transition for eventType moving to next.
// Several candidates per event type are allowed; guards must leave at most one
// eligible at runtime.
func WithTransition[C any](eventType, next string, opts ...TransitionOption[C]) StateOption[C] {
	return func(s *State[C]) {
		t := Transition[C]{Next: next}
		for _, opt := range opts {
			opt(&t)
		}
		s.table[eventType] = append(s.table[eventType], t)
	}
}

func (s *State[C]) Name() string {
	return s.name
}

// Events returns the event types this state has transitions for, sorted.
func (s *State[C]) Events() []string {
	events := make([]string, 0, len(s.table))
	for e := range s.table {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}

// targets lists every Next referenced by the table.
func (s *State[C]) targets() []string {
	var out []string
	for _, candidates := range s.table {
		for _, t := range candidates {
			out = append(out, t.Next)
		}
	}
	return out
}

// Result is the outcome of State.Accept.
type Result[C any] struct {
	Next    string
	Context C
	// Matched is false when no transition was eligible; Next and Context
	// then equal the inputs.
	Matched bool
	// Actions resolves to the merged patches once every action settled.
	Actions *async.Future[Patch]
}

// Accept evaluates one event against the state's table.
//
// Guards filter the candidates for e.Type. No survivor is a no-op. More than
// one survivor is a table defect and returns *ErrAmbiguousTransition without
// running reducers or actions. With exactly one survivor the reducers run in
// declared order, then every action starts in its own goroutine with the
// reduced context. Actions do not inherit ctx cancellation.
func (s *State[C]) Accept(ctx context.Context, current C, e Event, b Broker) (Result[C], error) {
	chosen, eligible := s.match(current, e)
	if eligible > 1 {
		return Result[C]{}, NewErrAmbiguousTransition(s.name, e.Type, eligible)
	}
	if chosen == nil {
		return Result[C]{
			Next:    s.name,
			Context: current,
			Actions: async.Resolve[Patch](nil),
		}, nil
	}

	next := chosen.reduce(current, e)
	if b == nil {
		b = DiscardBroker
	}

	return Result[C]{
		Next:    chosen.Next,
		Context: next,
		Matched: true,
		Actions: runActions(context.WithoutCancel(ctx), chosen.Actions, next, e, b),
	}, nil
}

// match returns the last eligible candidate for e and the number of eligible
// candidates.
func (s *State[C]) match(current C, e Event) (*Transition[C], int) {
	var (
		chosen   *Transition[C]
		eligible int
	)
	candidates := s.table[e.Type]
	for i := range candidates {
		if candidates[i].allows(current, e) {
			eligible++
			chosen = &candidates[i]
		}
	}
	return chosen, eligible
}

// runActions starts every action and returns a future over the merged result.
// Patches are merged in completion order, so when two actions set the same
// key the one that finished last wins. That order is not deterministic. The
// patch of an action that returns an error is dropped.
func runActions[C any](ctx context.Context, actions []Action[C], c C, e Event, b Broker) *async.Future[Patch] {
	if len(actions) == 0 {
		return async.Resolve[Patch](nil)
	}

	futures := make([]*async.Future[Patch], len(actions))
	for i, act := range actions {
		futures[i] = async.Async(ctx, c, func(ctx context.Context, c C) (Patch, error) {
			return act(ctx, c, e, b)
		})
	}

	return async.Async(ctx, futures, joinPatches)
}

func joinPatches(_ context.Context, futures []*async.Future[Patch]) (Patch, error) {
	var (
		merged Patch
		errs   []error
	)
	for _, s := range async.WaitSettled(futures...) {
		if s.Err != nil {
			errs = append(errs, &ActionError{Index: s.Index, Err: s.Err})
			continue
		}
		merged = merged.Merge(s.Result)
	}
	return merged, errors.Join(errs...)
}
