package main

import (
	"context"
	"embed"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/statekit/pkg/fsmdef"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

const (
	sessionMachine = "Session"
	tokenMachine   = "Token"
)

// Session states.
const (
	stateAnonymous      = "anonymous"
	stateAuthenticating = "authenticating"
	stateAuthenticated  = "authenticated"
	stateExpired        = "expired"
)

// Token states.
const (
	stateIdle     = "idle"
	stateFetching = "fetching"
	stateReady    = "ready"
	stateFailed   = "failed"
)

// sessionContext never holds the access token itself; snapshots are served
// by the inspect endpoint.
type sessionContext struct {
	Subject   string    `json:"subject"`
	TokenType string    `json:"token_type,omitempty"`
	Expiry    time.Time `json:"expiry,omitzero"`
	Failures  int       `json:"failures"`
	LastError string    `json:"last_error,omitempty"`
}

type tokenContext struct {
	Subject   string `json:"subject"`
	Fetches   int    `json:"fetches"`
	LastError string `json:"last_error,omitempty"`
}

// tokenIssued is the payload of token_ready and fetched.
type tokenIssued struct {
	TokenType string    `json:"token_type"`
	Expiry    time.Time `json:"expiry"`
}

type flowConfig struct {
	// MaxAttempts bounds token fetches per login, including the first.
	MaxAttempts int
	Source      oauth2.TokenSource
}

//go:embed session.yaml
var definitions embed.FS

const sessionDefinition = "session.yaml"

// newSessionMachine builds Session from its embedded definition.
func newSessionMachine(cfg flowConfig) (*statemachine.Machine[sessionContext], error) {
	def, err := fsmdef.ParseFS(definitions, sessionDefinition)
	if err != nil {
		return nil, err
	}

	maxAttempts := max(cfg.MaxAttempts, 1)
	reg := fsmdef.NewRegistry[sessionContext]().
		Guard("can_retry", func(c sessionContext, _ statemachine.Event) bool { return c.Failures+1 < maxAttempts }).
		Guard("attempts_exhausted", func(c sessionContext, _ statemachine.Event) bool { return c.Failures+1 >= maxAttempts }).
		Guard("same_expiry", sameExpiry).
		Reducer("start_login", startLogin).
		Reducer("store_token", storeToken).
		Reducer("record_failure", recordFailure).
		Reducer("clear_session", clearSession).
		Action("request_token", requestToken).
		Action("expire_at_deadline", expireAtDeadline)

	return fsmdef.Build(def, reg, sessionContext{})
}

func startLogin(_ sessionContext, e statemachine.Event) sessionContext {
	subject, _ := e.Payload.(string)
	return sessionContext{Subject: subject}
}

func storeToken(c sessionContext, e statemachine.Event) sessionContext {
	if issued, ok := e.Payload.(tokenIssued); ok {
		c.TokenType = issued.TokenType
		c.Expiry = issued.Expiry
	}
	c.LastError = ""
	return c
}

func recordFailure(c sessionContext, e statemachine.Event) sessionContext {
	c.Failures++
	c.LastError, _ = e.Payload.(string)
	return c
}

func clearSession(sessionContext, statemachine.Event) sessionContext {
	return sessionContext{}
}

// sameExpiry drops expire events scheduled for an earlier token.
func sameExpiry(c sessionContext, e statemachine.Event) bool {
	at, ok := e.Payload.(time.Time)
	return ok && at.Equal(c.Expiry)
}

func requestToken(ctx context.Context, c sessionContext, _ statemachine.Event, b statemachine.Broker) (statemachine.Patch, error) {
	b.Dispatch(ctx, statemachine.NewEvent("fetch", tokenMachine, c.Subject))
	return statemachine.Patch{"requested_for": c.Subject}, nil
}

// expireAtDeadline sends expire once the stored token lapses. Tokens without
// an expiry never lapse.
func expireAtDeadline(ctx context.Context, c sessionContext, _ statemachine.Event, b statemachine.Broker) (statemachine.Patch, error) {
	if c.Expiry.IsZero() {
		return nil, nil
	}

	timer := time.NewTimer(time.Until(c.Expiry))
	defer timer.Stop()
	<-timer.C

	b.Dispatch(ctx, statemachine.NewEvent("expire", sessionMachine, c.Expiry))
	return statemachine.Patch{"expired_at": c.Expiry}, nil
}

func newTokenMachine(cfg flowConfig) *statemachine.Machine[tokenContext] {
	fetch := []statemachine.TransitionOption[tokenContext]{
		statemachine.WithReducer(func(c tokenContext, e statemachine.Event) tokenContext {
			c.Subject, _ = e.Payload.(string)
			c.Fetches++
			c.LastError = ""
			return c
		}),
		statemachine.WithAction(fetchToken(cfg.Source)),
	}
	failed := statemachine.WithReducer(func(c tokenContext, e statemachine.Event) tokenContext {
		c.LastError, _ = e.Payload.(string)
		return c
	})

	return statemachine.MustNewMachine(tokenMachine, stateIdle, tokenContext{},
		statemachine.NewState(stateIdle,
			statemachine.WithTransition[tokenContext]("fetch", stateFetching, fetch...),
		),
		statemachine.NewState(stateFetching,
			statemachine.WithTransition[tokenContext]("fetched", stateReady),
			statemachine.WithTransition("fetch_failed", stateFailed, failed),
		),
		statemachine.NewState(stateReady,
			statemachine.WithTransition[tokenContext]("fetch", stateFetching, fetch...),
		),
		statemachine.NewState(stateFailed,
			statemachine.WithTransition[tokenContext]("fetch", stateFetching, fetch...),
		),
	)
}

// fetchToken asks src for a token and reports the outcome to both machines.
func fetchToken(src oauth2.TokenSource) statemachine.Action[tokenContext] {
	return func(ctx context.Context, c tokenContext, _ statemachine.Event, b statemachine.Broker) (statemachine.Patch, error) {
		tok, err := src.Token()
		if err != nil {
			b.Dispatch(ctx, statemachine.NewEvent("fetch_failed", tokenMachine, err.Error()))
			b.Dispatch(ctx, statemachine.NewEvent("token_failed", sessionMachine, err.Error()))
			return nil, fmt.Errorf("fetch token for %s: %w", c.Subject, err)
		}

		issued := tokenIssued{TokenType: tok.Type(), Expiry: tok.Expiry}
		b.Dispatch(ctx, statemachine.NewEvent("fetched", tokenMachine, issued))
		b.Dispatch(ctx, statemachine.NewEvent("token_ready", sessionMachine, issued))
		return statemachine.Patch{"token_type": issued.TokenType}, nil
	}
}

// registerFlow adds both machines to mgr.
func registerFlow(mgr *statemachine.Manager, cfg flowConfig) error {
	session, err := newSessionMachine(cfg)
	if err != nil {
		return fmt.Errorf("build session machine: %w", err)
	}

	for _, r := range []statemachine.Runner{session, newTokenMachine(cfg)} {
		if !mgr.AddMachineIfAbsent(r) {
			return fmt.Errorf("machine %s already registered", r.Name())
		}
	}
	return nil
}
