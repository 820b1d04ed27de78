package statemachine_test

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/robbyt/go-loglater"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/async"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

type tickerContext struct {
	Events []statemachine.Event
}

func (c tickerContext) Clone() tickerContext {
	return tickerContext{Events: slices.Clone(c.Events)}
}

func appendEvent(c tickerContext, e statemachine.Event) tickerContext {
	c.Events = append(slices.Clone(c.Events), e)
	return c
}

// newCollector captures every record at debug level and above.
func newCollector() *loglater.LogCollector {
	return loglater.NewLogCollector(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// messagesContaining returns captured messages at level that contain substr.
func messagesContaining(c *loglater.LogCollector, level slog.Level, substr string) []string {
	var out []string
	for _, rec := range c.GetLogs() {
		if rec.Level == level && strings.Contains(rec.Message, substr) {
			out = append(out, rec.Message)
		}
	}
	return out
}

// recordingBroker remembers dispatched events.
type recordingBroker struct {
	mu     sync.Mutex
	events []statemachine.Event
}

func (b *recordingBroker) Dispatch(_ context.Context, e statemachine.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBroker) Events() []statemachine.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.events)
}

func awaitPatch(t *testing.T, f *async.Future[statemachine.Patch]) (statemachine.Patch, error) {
	t.Helper()
	require.NotNil(t, f)
	return f.AwaitWithTimeout(2 * time.Second)
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}
