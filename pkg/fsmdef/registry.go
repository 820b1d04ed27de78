package fsmdef

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

// Registry holds the named functions a Definition may reference.
// Registration methods return the receiver so calls can be chained.
// A Registry is not safe for concurrent registration; fill it before Build.
type Registry[C any] struct {
	guards   map[string]statemachine.Guard[C]
	reducers map[string]statemachine.Reducer[C]
	actions  map[string]statemachine.Action[C]
}

func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{
		guards:   make(map[string]statemachine.Guard[C]),
		reducers: make(map[string]statemachine.Reducer[C]),
		actions:  make(map[string]statemachine.Action[C]),
	}
}

// Guard registers g under name, replacing any previous registration.
func (r *Registry[C]) Guard(name string, g statemachine.Guard[C]) *Registry[C] {
	r.guards[name] = g
	return r
}

func (r *Registry[C]) Reducer(name string, fn statemachine.Reducer[C]) *Registry[C] {
	r.reducers[name] = fn
	return r
}

func (r *Registry[C]) Action(name string, a statemachine.Action[C]) *Registry[C] {
	r.actions[name] = a
	return r
}

// resolve returns the options for one transition, or an error per missing name.
func (r *Registry[C]) resolve(t TransitionDef) ([]statemachine.TransitionOption[C], error) {
	var (
		opts []statemachine.TransitionOption[C]
		errs []error
	)
	for _, name := range t.Guards {
		if g, ok := r.guards[name]; ok && g != nil {
			opts = append(opts, statemachine.WithGuard(g))
			continue
		}
		errs = append(errs, fmt.Errorf("%w: guard %q", ErrUnknownFunc, name))
	}
	for _, name := range t.Reducers {
		if fn, ok := r.reducers[name]; ok && fn != nil {
			opts = append(opts, statemachine.WithReducer(fn))
			continue
		}
		errs = append(errs, fmt.Errorf("%w: reducer %q", ErrUnknownFunc, name))
	}
	for _, name := range t.Actions {
		if a, ok := r.actions[name]; ok && a != nil {
			opts = append(opts, statemachine.WithAction(a))
			continue
		}
		errs = append(errs, fmt.Errorf("%w: action %q", ErrUnknownFunc, name))
	}
	return opts, errors.Join(errs...)
}
