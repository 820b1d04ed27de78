package fsminspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/statekit/pkg/logger"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

// maxWait caps the ?wait= parameter of the events endpoint.
const maxWait = 30 * time.Second

// Option configures the inspect handler.
type Option func(*inspector)

// WithLogger sets the logger for response failures. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(in *inspector) {
		if l != nil {
			in.logger = l
		}
	}
}

type inspector struct {
	mgr    *statemachine.Manager
	logger *slog.Logger
}

// MachineView is the JSON form of a machine snapshot.
type MachineView struct {
	Name         string `json:"name"`
	CurrentState string `json:"current_state"`
	Context      any    `json:"context"`
}

// EventRequest is the body accepted by POST /machines/{name}/events.
type EventRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// EventOutcome reports what a delivered event did. Patch and ActionError are
// set only when the request asked to wait for the transition's actions.
type EventOutcome struct {
	EventID     string             `json:"event_id"`
	Previous    string             `json:"previous"`
	Next        string             `json:"next"`
	Matched     bool               `json:"matched"`
	Changed     bool               `json:"changed"`
	Patch       statemachine.Patch `json:"patch,omitempty"`
	ActionError string             `json:"action_error,omitempty"`
	Pending     bool               `json:"pending,omitempty"`
}

// ErrorDetail is the body of every non-2xx response, wrapped as {"error": ...}.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Handler exposes mgr over HTTP:
//
//	GET  /machines                      registered names
//	GET  /machines/{name}               current state and context
//	POST /machines/{name}/events?wait=  deliver an event through Send
//
// Mount it under any prefix. Every response carries RequestIDHeader.
func Handler(mgr *statemachine.Manager, opts ...Option) http.Handler {
	in := &inspector{
		mgr:    mgr,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(in)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Get("/machines", in.listMachines)
	r.Get("/machines/{name}", in.getMachine)
	r.Post("/machines/{name}/events", in.sendEvent)
	return r
}

func (in *inspector) listMachines(w http.ResponseWriter, r *http.Request) {
	in.writeJSON(w, r, http.StatusOK, map[string][]string{"machines": in.mgr.Machines()})
}

func (in *inspector) getMachine(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	snap, err := in.mgr.CurrentState(name)
	if err != nil {
		in.writeError(w, r, http.StatusNotFound, "machine_not_found", err.Error())
		return
	}
	in.writeJSON(w, r, http.StatusOK, MachineView{
		Name:         name,
		CurrentState: snap.CurrentState,
		Context:      snap.Context,
	})
}

func (in *inspector) sendEvent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			in.writeError(w, r, http.StatusBadRequest, "invalid_wait", "wait must be a non-negative duration such as 500ms")
			return
		}
		wait = min(d, maxWait)
	}

	var req EventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		in.writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.Type == "" {
		in.writeError(w, r, http.StatusBadRequest, "invalid_body", "event type is required")
		return
	}

	e := statemachine.Event{
		Type:      req.Type,
		Payload:   req.Payload,
		ToMachine: name,
		ID:        RequestIDFromContext(r.Context()),
	}
	step, err := in.mgr.Send(r.Context(), e)
	switch {
	case statemachine.IsMachineNotFoundError(err):
		in.writeError(w, r, http.StatusNotFound, "machine_not_found", err.Error())
		return
	case statemachine.IsAmbiguousTransitionError(err):
		in.writeError(w, r, http.StatusConflict, "ambiguous_transition", err.Error())
		return
	case err != nil:
		in.writeError(w, r, http.StatusInternalServerError, "send_failed", err.Error())
		return
	}

	out := EventOutcome{
		EventID:  step.Event.ID,
		Previous: step.Previous,
		Next:     step.Next,
		Matched:  step.Matched,
		Changed:  step.Previous != step.Next,
	}
	if wait > 0 && step.Actions != nil {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-step.Actions.Done():
			patch, err := step.Actions.Await()
			out.Patch = patch
			if err != nil {
				out.ActionError = err.Error()
			}
		case <-timer.C:
			out.Pending = true
		case <-r.Context().Done():
			return
		}
	}
	in.writeJSON(w, r, http.StatusOK, out)
}

func (in *inspector) writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	in.writeJSON(w, r, status, map[string]ErrorDetail{"error": {Code: code, Message: msg}})
}

func (in *inspector) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		in.logger.ErrorContext(r.Context(), "failed to write inspect response",
			logger.Component("fsminspect"),
			logger.Error(err),
		)
	}
}
