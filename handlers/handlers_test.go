// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/display"
	"github.com/danielhkuo/stage/lifecycle"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
	"github.com/danielhkuo/stage/screen"
	"github.com/danielhkuo/stage/store"
	"github.com/danielhkuo/stage/testutil"
)

type fixture struct {
	conn *sql.DB
	st   *store.Store
	hub  *realtime.Hub
	bus  *testutil.RecordingBroadcaster

	events    *EventHandler
	questions *QuestionHandler
	polls     *PollHandler
	responses *ResponseHandler
	results   *ResultsHandler
	displays  *DisplayHandler
	registry  *screen.Registry
}

func setup(t *testing.T) *fixture {
	t.Helper()

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	conn := testutil.SetupTestDB(t)
	st := store.New(conn, db.SQLite, hub)
	bus := &testutil.RecordingBroadcaster{}
	displays := display.NewService(st, bus)
	cfg := testutil.GetTestConfig()

	ctx, cancel := context.WithCancel(context.Background())
	registry := screen.NewRegistry(ctx, st, displays, hub, screen.Options{
		Grace:       cfg.GracePeriod,
		Fallback:    cfg.FallbackInterval,
		Debounce:    5 * time.Millisecond,
		ExitDelay:   10 * time.Millisecond,
		SettleDelay: 5 * time.Millisecond,
	})
	t.Cleanup(func() {
		registry.Close()
		cancel()
	})

	return &fixture{
		conn:      conn,
		st:        st,
		hub:       hub,
		bus:       bus,
		events:    NewEventHandler(st, registry, cfg),
		questions: NewQuestionHandler(st),
		polls:     NewPollHandler(st, lifecycle.NewManager(st, bus)),
		responses: NewResponseHandler(st),
		results:   NewResultsHandler(st),
		displays:  NewDisplayHandler(st, displays),
		registry:  registry,
	}
}

// choicePoll creates a poll with one single_choice question and two options
func (f *fixture) choicePoll(t *testing.T, eventID, status string) (pollID, questionID string, optionIDs []string) {
	t.Helper()
	pollID = testutil.CreateTestPoll(t, f.conn, eventID, status)
	questionID = testutil.AddTestPollQuestion(t, f.conn, pollID, "Favorite?", models.SingleChoice, 0)
	optionIDs = []string{
		testutil.AddTestOption(t, f.conn, questionID, "Red", 0),
		testutil.AddTestOption(t, f.conn, questionID, "Blue", 1),
	}
	return pollID, questionID, optionIDs
}

func serve(h http.HandlerFunc, req *http.Request, pathValues ...string) *httptest.ResponseRecorder {
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load: %w", store.ErrNotFound), http.StatusNotFound},
		{"conflict", store.ErrConflict, http.StatusConflict},
		{"transition", lifecycle.ErrInvalidTransition, http.StatusConflict},
		{"directive", display.ErrInvalidDirective, http.StatusBadRequest},
		{"admin code", auth.ErrInvalidAdminCode, http.StatusUnauthorized},
		{"screen stopped", screen.ErrStopped, http.StatusServiceUnavailable},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err, "Thing not found", "Failed to do thing")
			testutil.AssertStatus(t, w, tt.want)
		})
	}
}

func TestResolveEvent(t *testing.T) {
	f := setup(t)
	eventID, accessCode, _ := testutil.CreateTestEvent(t, f.conn, models.EventActive)

	for _, ref := range []string{eventID, accessCode, "  " + accessCode} {
		ev, err := resolveEvent(context.Background(), f.st, ref)
		if err != nil || ev.ID != eventID {
			t.Errorf("resolveEvent(%q) = %v, %v", ref, ev.ID, err)
		}
	}

	if _, err := resolveEvent(context.Background(), f.st, auth.NewID()); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
