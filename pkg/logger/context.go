package logger

import (
	"context"
	"log/slog"
)

type triggerKey struct{}

// WithTrigger stores the correlation id of the event whose transition is
// currently running actions.
func WithTrigger(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, triggerKey{}, eventID)
}

// TriggerFromContext returns the id stored by WithTrigger, or "".
func TriggerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(triggerKey{}).(string)
	return id
}

// TriggerExtractor logs the context's trigger id under "trigger_event_id".
func TriggerExtractor() ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := TriggerFromContext(ctx); id != "" {
			return slog.String("trigger_event_id", id), true
		}
		return slog.Attr{}, false
	}
}
