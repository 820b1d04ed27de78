package statemachine

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// ManagerOption configures a Manager during construction.
type ManagerOption func(*Manager)

// TransitionHook observes every step that matched a transition, after commit.
// Hooks run synchronously on the delivering goroutine and must not block.
type TransitionHook func(ctx context.Context, step Step)

// WithLogger sets the logger. Nil is ignored.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithIDGenerator replaces the event correlation id source. Nil is ignored.
func WithIDGenerator(fn func() string) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// WithTransitionHook registers a hook. Nil hooks are ignored.
func WithTransitionHook(h TransitionHook) ManagerOption {
	return func(m *Manager) {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
	}
}

func newEventID() string {
	return uuid.NewString()
}
