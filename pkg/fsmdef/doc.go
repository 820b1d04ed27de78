// Package fsmdef builds statemachine machines from YAML or TOML definitions.
//
// A definition names the machine, its initial state and, per state, the
// candidate transitions for each event type. Guards, reducers and actions are
// referenced by name:
//
//	name: Session
//	initial: anonymous
//	states:
//	  anonymous:
//	    on:
//	      login:
//	        - target: authenticating
//	          reducers: [remember_user]
//	          actions: [request_token]
//	  authenticating: {}
//
// The names are bound to Go functions through a Registry and resolved by
// Build:
//
//	reg := fsmdef.NewRegistry[Session]().
//		Reducer("remember_user", rememberUser).
//		Action("request_token", requestToken)
//
//	def, err := fsmdef.ParseFile("session.yaml")
//	if err != nil {
//		return err
//	}
//	m, err := fsmdef.Build(def, reg, Session{})
//
// ParseTOML accepts the same document as TOML, and ParseFile / ParseFS pick
// the decoder from the file extension, so definitions can live next to the
// binary or be embedded with go:embed:
//
//	[states.anonymous.on]
//	login = [{ target = "authenticating", actions = ["request_token"] }]
//
// Parse rejects unknown keys and runs Validate, which reports every
// structural problem joined with ErrInvalidDefinition. Build reports every
// unregistered name, each wrapping ErrUnknownFunc. Candidate order within an
// event is the order of the list; it matters only for readability, since
// more than one eligible candidate is an error at dispatch time.
package fsmdef
