package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName      = errors.New("statemachine: machine name cannot be empty")
	ErrNoStates       = errors.New("statemachine: machine needs at least one state")
	ErrNilState       = errors.New("statemachine: state cannot be nil")
	ErrDuplicateState = errors.New("statemachine: duplicate state name")
)

// ErrAmbiguousTransition means more than one transition passed its guards for
// the same state and event. It is a defect in the transition table and must not
// be retried.
type ErrAmbiguousTransition struct {
	StateName string
	EventName string
	Eligible  int
}

func (e *ErrAmbiguousTransition) Error() string {
	return fmt.Sprintf("ambiguous transition in state '%s' for event '%s': %d transitions passed their guards",
		e.StateName, e.EventName, e.Eligible)
}

func NewErrAmbiguousTransition(stateName, eventName string, eligible int) *ErrAmbiguousTransition {
	return &ErrAmbiguousTransition{
		StateName: stateName,
		EventName: eventName,
		Eligible:  eligible,
	}
}

// ErrMachineNotFound is returned by Manager.Send when the event's target is not registered.
type ErrMachineNotFound struct {
	Name string
}

func (e *ErrMachineNotFound) Error() string {
	return fmt.Sprintf("No state machine %s configured", e.Name)
}

func NewErrMachineNotFound(name string) *ErrMachineNotFound {
	return &ErrMachineNotFound{Name: name}
}

// ErrUnknownState is returned at construction when an initial state or a
// transition target is not part of the machine.
type ErrUnknownState struct {
	Machine   string
	StateName string
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("machine '%s' references unknown state '%s'", e.Machine, e.StateName)
}

func NewErrUnknownState(machine, stateName string) *ErrUnknownState {
	return &ErrUnknownState{Machine: machine, StateName: stateName}
}

// ActionError wraps the failure of one action of a transition.
type ActionError struct {
	Index int // position of the action in its transition
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %d failed: %v", e.Index, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func IsAmbiguousTransitionError(err error) bool {
	var e *ErrAmbiguousTransition
	return errors.As(err, &e)
}

func IsMachineNotFoundError(err error) bool {
	var e *ErrMachineNotFound
	return errors.As(err, &e)
}

func IsUnknownStateError(err error) bool {
	var e *ErrUnknownState
	return errors.As(err, &e)
}
