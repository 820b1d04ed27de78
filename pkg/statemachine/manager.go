package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/statekit/pkg/logger"
)

var _ Broker = (*Manager)(nil)

// Manager is a registry of named machines and the broker handed to their
// actions. Machines are only ever added; a name is bound for the lifetime of
// the Manager.
//
// The Manager does not order deliveries. Send and Dispatch to different
// machines proceed independently; to the same machine they are serialized by
// that machine's lock, in whatever order they reach it.
type Manager struct {
	name   string
	logger *slog.Logger
	newID  func() string
	hooks  []TransitionHook

	mu       sync.RWMutex
	machines map[string]Runner
}

// NewManager creates an empty Manager.
func NewManager(name string, opts ...ManagerOption) *Manager {
	m := &Manager{
		name:     name,
		logger:   newNoopLogger(),
		newID:    newEventID,
		machines: make(map[string]Runner),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Name() string {
	return m.name
}

// AddMachineIfAbsent registers r under r.Name() unless that name is taken.
// It reports whether r was inserted; an existing registration is never replaced.
func (m *Manager) AddMachineIfAbsent(r Runner) bool {
	if r == nil {
		return false
	}

	name := r.Name()

	m.mu.Lock()
	_, exists := m.machines[name]
	if !exists {
		m.machines[name] = r
	}
	m.mu.Unlock()

	if exists {
		m.logger.Debug(name+" already exists in machine manager",
			logger.Manager(m.name),
			logger.Machine(name),
		)
		return false
	}
	return true
}

// Machines returns the registered names, sorted.
func (m *Manager) Machines() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.machines))
	for name := range m.machines {
		names = append(names, name)
	}
	m.mu.RUnlock()

	slices.Sort(names)
	return names
}

// CurrentState returns a detached snapshot of the named machine.
func (m *Manager) CurrentState(name string) (Snapshot, error) {
	r, ok := m.lookup(name)
	if !ok {
		return Snapshot{}, NewErrMachineNotFound(name)
	}
	return r.Snapshot(), nil
}

// Send delivers e to e.ToMachine. Unknown targets return *ErrMachineNotFound;
// an ambiguous transition table returns *ErrAmbiguousTransition. The returned
// Step carries the actions future for callers that want to wait on it.
// An empty e.ID is filled in.
func (m *Manager) Send(ctx context.Context, e Event) (Step, error) {
	if e.ID == "" {
		e.ID = m.newID()
	}

	r, ok := m.lookup(e.ToMachine)
	if !ok {
		return Step{Event: e}, NewErrMachineNotFound(e.ToMachine)
	}
	return m.deliver(ctx, r, e)
}

// Dispatch is the Broker side of the Manager. It always assigns a fresh
// correlation id, never returns an error and never queues: events for
// unregistered machines are logged at debug level and dropped.
func (m *Manager) Dispatch(ctx context.Context, e Event) {
	e.ID = m.newID()

	r, ok := m.lookup(e.ToMachine)
	if !ok {
		m.logger.DebugContext(ctx,
			fmt.Sprintf("Cannot route event name %s to machine %s. Event id %s", e.Type, e.ToMachine, e.ID),
			logger.Manager(m.name),
			logger.EventType(e.Type),
			logger.Target(e.ToMachine),
			logger.EventID(e.ID),
		)
		return
	}

	// Errors were already logged by deliver.
	_, _ = m.deliver(ctx, r, e)
}

func (m *Manager) lookup(name string) (Runner, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.machines[name]
	return r, ok
}

func (m *Manager) deliver(ctx context.Context, r Runner, e Event) (Step, error) {
	step, err := r.Accept(logger.WithTrigger(ctx, e.ID), e, m)
	if err != nil {
		m.logger.ErrorContext(ctx, "event rejected by transition table",
			logger.Manager(m.name),
			logger.Machine(r.Name()),
			logger.State(step.Previous),
			logger.EventType(e.Type),
			logger.EventID(e.ID),
			logger.Error(err),
		)
		return step, err
	}

	if !step.Matched {
		m.logger.DebugContext(ctx, "event ignored: no eligible transition",
			logger.Manager(m.name),
			logger.Machine(r.Name()),
			logger.State(step.Previous),
			logger.EventType(e.Type),
			logger.EventID(e.ID),
		)
		return step, nil
	}

	m.logger.DebugContext(ctx, "transition committed",
		logger.Manager(m.name),
		logger.Machine(r.Name()),
		logger.Transition(step.Previous, step.Next),
		logger.EventType(e.Type),
		logger.EventID(e.ID),
	)
	for _, h := range m.hooks {
		h(ctx, step)
	}

	if step.Actions != nil {
		go m.watchActions(context.WithoutCancel(ctx), step)
	}
	return step, nil
}

// watchActions logs action failures; they never reach the sender.
func (m *Manager) watchActions(ctx context.Context, step Step) {
	if _, err := step.Actions.Await(); err != nil {
		m.logger.ErrorContext(ctx, "transition actions failed",
			logger.Manager(m.name),
			logger.Machine(step.Machine),
			logger.Transition(step.Previous, step.Next),
			logger.EventType(step.Event.Type),
			logger.EventID(step.Event.ID),
			logger.Error(err),
		)
	}
}
