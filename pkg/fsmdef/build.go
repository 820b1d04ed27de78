package fsmdef

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

// Build turns def into a machine whose context starts at initial. Every name
// in def must be present in reg; all missing names are reported together,
// each wrapping ErrUnknownFunc. A nil reg is treated as empty.
func Build[C any](def *Definition, reg *Registry[C], initial C) (*statemachine.Machine[C], error) {
	if def == nil {
		return nil, ErrEmptyDefinition
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = NewRegistry[C]()
	}

	var (
		states []*statemachine.State[C]
		errs   []error
	)
	for _, name := range slices.Sorted(maps.Keys(def.States)) {
		on := def.States[name].On

		var opts []statemachine.StateOption[C]
		for _, event := range slices.Sorted(maps.Keys(on)) {
			for i, t := range on[event] {
				topts, err := reg.resolve(t)
				if err != nil {
					errs = append(errs, fmt.Errorf("state %q event %q transition %d: %w", name, event, i, err))
					continue
				}
				opts = append(opts, statemachine.WithTransition[C](event, t.Target, topts...))
			}
		}
		states = append(states, statemachine.NewState[C](name, opts...))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return statemachine.NewMachine(def.Name, def.Initial, initial, states...)
}
