package statemachine

import (
	"maps"
	"reflect"
)

// Event is the single message shape routed by a Manager and consumed by machines.
type Event struct {
	// Type selects the candidate transitions in the active state.
	Type string
	// Payload is opaque to the runtime.
	Payload any
	// ToMachine names the receiving machine. Only the Manager reads it.
	ToMachine string
	// ID correlates log lines for one delivery. It plays no part in
	// deduplication; Dispatch overwrites it with a fresh value.
	ID string
}

// NewEvent builds an event addressed to machine.
func NewEvent(eventType, machine string, payload any) Event {
	return Event{Type: eventType, ToMachine: machine, Payload: payload}
}

// Patch is a partial context produced by an action. A nil Patch means the
// action had nothing to report.
type Patch map[string]any

// Merge returns p with the keys of other written over it. p may be nil.
func (p Patch) Merge(other Patch) Patch {
	if len(other) == 0 {
		return p
	}
	if p == nil {
		p = make(Patch, len(other))
	}
	maps.Copy(p, other)
	return p
}

// Snapshot is a detached copy of a machine's observable state.
type Snapshot struct {
	Context      any
	CurrentState string
}

// Cloner is implemented by context types that hold references (slices, maps,
// pointers) and need a deep copy for snapshots.
type Cloner[C any] interface {
	Clone() C
}

// cloneContext detaches c from the machine. Cloner wins; otherwise map and
// slice contexts are copied one level deep and every other kind is returned
// as is.
func cloneContext[C any](c C) C {
	if cl, ok := any(c).(Cloner[C]); ok {
		return cl.Clone()
	}

	v := reflect.ValueOf(&c).Elem()
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return c
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface().(C)
	case reflect.Slice:
		if v.IsNil() {
			return c
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(out, v)
		return out.Interface().(C)
	default:
		return c
	}
}
