package fsminspect_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/statekit/pkg/fsminspect"
	"github.com/dmitrymomot/statekit/pkg/statemachine"
)

type door struct {
	Opens int `json:"opens"`
}

func newManager(t *testing.T, release <-chan struct{}) *statemachine.Manager {
	t.Helper()

	mgr := statemachine.NewManager("inspect-test")

	countOpen := statemachine.WithReducer(func(d door, _ statemachine.Event) door {
		d.Opens++
		return d
	})
	whoOpened := statemachine.WithAction(func(_ context.Context, _ door, e statemachine.Event, _ statemachine.Broker) (statemachine.Patch, error) {
		return statemachine.Patch{"opened_by": e.Payload}, nil
	})
	require.True(t, mgr.AddMachineIfAbsent(statemachine.MustNewMachine("door", "closed", door{},
		statemachine.NewState("closed", statemachine.WithTransition("open", "opened", countOpen, whoOpened)),
		statemachine.NewState("opened", statemachine.WithTransition[door]("close", "closed")),
	)))

	require.True(t, mgr.AddMachineIfAbsent(statemachine.MustNewMachine("fork", "root", door{},
		statemachine.NewState("root",
			statemachine.WithTransition[door]("split", "root"),
			statemachine.WithTransition[door]("split", "root"),
		),
	)))

	require.True(t, mgr.AddMachineIfAbsent(statemachine.MustNewMachine("slow", "idle", door{},
		statemachine.NewState("idle",
			statemachine.WithTransition("go", "idle",
				statemachine.WithAction(func(context.Context, door, statemachine.Event, statemachine.Broker) (statemachine.Patch, error) {
					<-release
					return nil, nil
				}),
			),
		),
	)))
	return mgr
}

func serve(t *testing.T, h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]fsminspect.ErrorDetail](t, rec)["error"].Code
}

func TestHandler_ListMachines(t *testing.T) {
	t.Parallel()

	h := fsminspect.Handler(newManager(t, nil))
	rec := serve(t, h, http.MethodGet, "/machines", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string][]string{"machines": {"door", "fork", "slow"}}, decode[map[string][]string](t, rec))
}

func TestHandler_GetMachine(t *testing.T) {
	t.Parallel()

	h := fsminspect.Handler(newManager(t, nil))

	rec := serve(t, h, http.MethodGet, "/machines/door", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"name":"door","current_state":"closed","context":{"opens":0}}`, rec.Body.String())

	rec = serve(t, h, http.MethodGet, "/machines/window", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "machine_not_found", errorCode(t, rec))
}

func TestHandler_SendEvent(t *testing.T) {
	t.Parallel()

	t.Run("delivers and waits for actions", func(t *testing.T) {
		t.Parallel()
		h := fsminspect.Handler(newManager(t, nil))

		rec := serve(t, h, http.MethodPost, "/machines/door/events?wait=1s",
			`{"type":"open","payload":"alice"}`,
			http.Header{fsminspect.RequestIDHeader: {"req-42"}},
		)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "req-42", rec.Header().Get(fsminspect.RequestIDHeader))

		out := decode[fsminspect.EventOutcome](t, rec)
		assert.Equal(t, fsminspect.EventOutcome{
			EventID:  "req-42",
			Previous: "closed",
			Next:     "opened",
			Matched:  true,
			Changed:  true,
			Patch:    statemachine.Patch{"opened_by": "alice"},
		}, out)

		rec = serve(t, h, http.MethodGet, "/machines/door", "", nil)
		assert.JSONEq(t, `{"name":"door","current_state":"opened","context":{"opens":1}}`, rec.Body.String())
	})

	t.Run("malformed request ids are replaced", func(t *testing.T) {
		t.Parallel()
		h := fsminspect.Handler(newManager(t, nil))

		rec := serve(t, h, http.MethodPost, "/machines/door/events",
			`{"type":"open"}`,
			http.Header{fsminspect.RequestIDHeader: {"not a valid id!"}},
		)
		require.Equal(t, http.StatusOK, rec.Code)

		id := rec.Header().Get(fsminspect.RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, decode[fsminspect.EventOutcome](t, rec).EventID)
	})

	t.Run("unmatched events report no change", func(t *testing.T) {
		t.Parallel()
		h := fsminspect.Handler(newManager(t, nil))

		rec := serve(t, h, http.MethodPost, "/machines/door/events", `{"type":"close"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		out := decode[fsminspect.EventOutcome](t, rec)
		assert.False(t, out.Matched)
		assert.False(t, out.Changed)
		assert.Equal(t, "closed", out.Next)
	})

	t.Run("pending actions", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		defer close(release)
		h := fsminspect.Handler(newManager(t, release))

		rec := serve(t, h, http.MethodPost, "/machines/slow/events?wait=20ms", `{"type":"go"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		out := decode[fsminspect.EventOutcome](t, rec)
		assert.True(t, out.Matched)
		assert.False(t, out.Changed, "self transition")
		assert.True(t, out.Pending)
	})

	t.Run("action errors", func(t *testing.T) {
		t.Parallel()
		mgr := statemachine.NewManager("errs")
		mgr.AddMachineIfAbsent(statemachine.MustNewMachine("m", "a", door{},
			statemachine.NewState("a", statemachine.WithTransition("go", "a",
				statemachine.WithAction(func(context.Context, door, statemachine.Event, statemachine.Broker) (statemachine.Patch, error) {
					return statemachine.Patch{"partial": true}, assert.AnError
				}),
			)),
		))

		rec := serve(t, fsminspect.Handler(mgr), http.MethodPost, "/machines/m/events?wait=1s", `{"type":"go"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, "action failures do not fail the request")

		out := decode[fsminspect.EventOutcome](t, rec)
		assert.Contains(t, out.ActionError, assert.AnError.Error())
		assert.Nil(t, out.Patch, "a failed action's patch is discarded")
	})
}

func TestHandler_SendEventErrors(t *testing.T) {
	t.Parallel()

	h := fsminspect.Handler(newManager(t, nil))

	tests := []struct {
		name   string
		target string
		body   string
		status int
		code   string
	}{
		{"unknown machine", "/machines/window/events", `{"type":"open"}`, http.StatusNotFound, "machine_not_found"},
		{"ambiguous transition", "/machines/fork/events", `{"type":"split"}`, http.StatusConflict, "ambiguous_transition"},
		{"malformed json", "/machines/door/events", `{"type":`, http.StatusBadRequest, "invalid_body"},
		{"unknown field", "/machines/door/events", `{"type":"open","to":"x"}`, http.StatusBadRequest, "invalid_body"},
		{"missing type", "/machines/door/events", `{"payload":1}`, http.StatusBadRequest, "invalid_body"},
		{"bad wait", "/machines/door/events?wait=soon", `{"type":"open"}`, http.StatusBadRequest, "invalid_wait"},
		{"negative wait", "/machines/door/events?wait=-1s", `{"type":"open"}`, http.StatusBadRequest, "invalid_wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := serve(t, h, http.MethodPost, tt.target, tt.body, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
			assert.NotEmpty(t, rec.Header().Get(fsminspect.RequestIDHeader))
		})
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	h := fsminspect.Handler(newManager(t, nil))
	rec := serve(t, h, http.MethodDelete, "/machines/door", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
