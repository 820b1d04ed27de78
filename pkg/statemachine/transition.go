package statemachine

import "context"

// Guard gates a transition. It must not have side effects.
type Guard[C any] func(c C, e Event) bool

// Reducer derives the next context from the current one. It must not have side effects.
type Reducer[C any] func(c C, e Event) C

// Action runs after the reducers of its transition, concurrently with the
// other actions of the same transition. The context it receives is shared
// with those actions and must be treated as read-only.
type Action[C any] func(ctx context.Context, c C, e Event, b Broker) (Patch, error)

// Broker is the capability handed to actions for emitting further events.
type Broker interface {
	Dispatch(ctx context.Context, e Event)
}

// Transition is one candidate rule for an event type in a state.
type Transition[C any] struct {
	Next     string
	Guards   []Guard[C]   // all must pass
	Reducers []Reducer[C] // applied in order
	Actions  []Action[C]  // started together, unordered completion
}

func (t *Transition[C]) allows(c C, e Event) bool {
	for _, g := range t.Guards {
		if !g(c, e) {
			return false
		}
	}
	return true
}

func (t *Transition[C]) reduce(c C, e Event) C {
	for _, r := range t.Reducers {
		c = r(c, e)
	}
	return c
}

// TransitionOption configures a single transition.
type TransitionOption[C any] func(*Transition[C])

func WithGuard[C any](g Guard[C]) TransitionOption[C] {
	return WithGuards(g)
}

func WithGuards[C any](guards ...Guard[C]) TransitionOption[C] {
	return func(t *Transition[C]) {
		for _, g := range guards {
			if g != nil {
				t.Guards = append(t.Guards, g)
			}
		}
	}
}

func WithReducer[C any](r Reducer[C]) TransitionOption[C] {
	return WithReducers(r)
}

func WithReducers[C any](reducers ...Reducer[C]) TransitionOption[C] {
	return func(t *Transition[C]) {
		for _, r := range reducers {
			if r != nil {
				t.Reducers = append(t.Reducers, r)
			}
		}
	}
}

func WithAction[C any](a Action[C]) TransitionOption[C] {
	return WithActions(a)
}

func WithActions[C any](actions ...Action[C]) TransitionOption[C] {
	return func(t *Transition[C]) {
		for _, a := range actions {
			if a != nil {
				t.Actions = append(t.Actions, a)
			}
		}
	}
}

type discardBroker struct{}

func (discardBroker) Dispatch(context.Context, Event) {}

// DiscardBroker drops every event. Machine.Accept uses it when given a nil broker.
var DiscardBroker Broker = discardBroker{}
