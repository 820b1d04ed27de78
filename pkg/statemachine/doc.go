// Package statemachine is a flat finite-state-machine runtime with a broker
// that routes named events between machines.
//
// # Building blocks
//
//   - State: a name plus a transition table keyed by event type. Each entry is
//     an ordered list of candidate Transitions.
//   - Transition: the next state name and three lists of functions sharing one
//     signature per role: Guards, Reducers and Actions.
//   - Machine: one instance. It owns the current state name and the context
//     value C, and mutates both only inside Accept.
//   - Manager: a registry of machines by name. It is the ingress for external
//     events (Send) and the Broker handed to actions (Dispatch).
//
// # Evaluating an event
//
// The active state looks up the candidates for the event type and drops every
// candidate whose guards do not all pass. No survivor is a no-op. More than one
// survivor is *ErrAmbiguousTransition: the table is wrong and the event is not
// applied. A single survivor has its reducers applied in declared order, each
// seeing the output of the previous one. The transition's actions are then all
// started at once, each receiving the reduced context by value, the event and
// the broker, and the machine commits the new state and context. The commit
// happens under the machine lock, so an action that reads the machine through
// the Manager, or dispatches back to it, blocks until the commit has landed.
//
// Actions return an optional Patch. The Step returned by Send carries a
// future that settles when every action has finished, with patches merged in
// completion order. Completion order between actions is not deterministic: if
// two actions write the same key, either may win. Patches are reported only;
// they are never merged back into the machine's context. An action that wants
// to change state dispatches an event.
//
// # Errors
//
// Send fails with *ErrMachineNotFound for an unregistered target and with
// *ErrAmbiguousTransition for an ambiguous table. Dispatch never fails: a
// missing target is logged at debug level with the event type, target and
// correlation id and the event is dropped. Action errors, and panics recovered
// from actions, are joined into the actions future as *ActionError values; the
// Manager logs them and no caller is affected unless it awaits the future.
//
// # Concurrency
//
// Every Send and Dispatch runs on the caller's goroutine; actions run on their
// own. The Manager never blocks one delivery on another. Deliveries to the
// same machine are serialized by the machine's lock around guards, reducers
// and commit, so their order is the order they acquire the lock. Actions do
// not inherit cancellation from the delivering context, and a Dispatch to a
// machine that is not (yet) registered is never queued or retried.
//
// # Usage
//
//	type ticks struct{ Events []statemachine.Event }
//
//	appendEvent := func(c ticks, e statemachine.Event) ticks {
//	    c.Events = append(slices.Clone(c.Events), e)
//	    return c
//	}
//
//	ticker := statemachine.MustNewMachine("Ticker", "StateA", ticks{},
//	    statemachine.NewState("StateA",
//	        statemachine.WithTransition("tick", "StateB",
//	            statemachine.WithReducer(appendEvent),
//	        ),
//	    ),
//	    statemachine.NewState[ticks]("StateB"),
//	)
//
//	mgr := statemachine.NewManager("app", statemachine.WithLogger(log))
//	mgr.AddMachineIfAbsent(ticker)
//	_, err := mgr.Send(ctx, statemachine.NewEvent("tick", "Ticker", nil))
package statemachine
