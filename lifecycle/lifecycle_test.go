// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
	"github.com/danielhkuo/stage/store"
	"github.com/danielhkuo/stage/testutil"
)

// twoStepStore hides SwapActivePoll so Launch takes the degraded path
type twoStepStore struct {
	Store
}

func setup(t *testing.T) (*sql.DB, *store.Store, *testutil.RecordingBroadcaster) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	return conn, store.New(conn, db.SQLite, nil), &testutil.RecordingBroadcaster{}
}

func TestLaunchAndEnd(t *testing.T) {
	conn, st, bus := setup(t)
	ctx := context.Background()
	eventID, _, _ := testutil.CreateTestEvent(t, conn, models.EventActive)

	tests := []struct {
		name  string
		store Store
	}{
		{"transactional", st},
		{"two-step", twoStepStore{st}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.store, bus)
			previous := testutil.CreateTestPoll(t, conn, eventID, models.StatusDraft)
			target := testutil.CreateTestPoll(t, conn, eventID, models.StatusDraft)

			if _, err := m.Launch(ctx, previous); err != nil {
				t.Fatalf("Launch(previous) error = %v", err)
			}

			p, err := m.Launch(ctx, target)
			if err != nil {
				t.Fatalf("Launch(target) error = %v", err)
			}
			if p.Status != models.StatusActive || p.StartedAt == nil {
				t.Errorf("unexpected launched poll %+v", p)
			}

			prev, _ := st.GetPoll(ctx, previous)
			if prev.Status != models.StatusEnded || prev.EndedAt == nil {
				t.Errorf("previous poll should be ended, got %+v", prev)
			}
			if n := testutil.CountActive(t, conn, db.TablePolls, eventID); n != 1 {
				t.Errorf("expected 1 active poll, got %d", n)
			}

			ended, err := m.End(ctx, target)
			if err != nil {
				t.Fatalf("End() error = %v", err)
			}
			if ended.Status != models.StatusEnded || ended.EndedAt == nil {
				t.Errorf("unexpected ended poll %+v", ended)
			}

			if _, err := m.End(ctx, target); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition ending twice, got %v", err)
			}
			if _, err := m.Launch(ctx, target); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition relaunching, got %v", err)
			}
		})
	}
}

func TestLaunchMissing(t *testing.T) {
	_, st, bus := setup(t)
	m := NewManager(st, bus)

	if _, err := m.Launch(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := m.End(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(bus.Calls()) != 0 {
		t.Error("failed operations must not broadcast")
	}
}

func TestBroadcasts(t *testing.T) {
	conn, st, bus := setup(t)
	ctx := context.Background()
	eventID, _, _ := testutil.CreateTestEvent(t, conn, models.EventActive)
	pollID := testutil.CreateTestPoll(t, conn, eventID, models.StatusDraft)

	m := NewManager(st, bus)
	m.Launch(ctx, pollID)
	m.End(ctx, pollID)

	calls := bus.Calls()
	want := []struct{ channel, event string }{
		{realtime.PresentationChannel(eventID), realtime.EventPollLaunched},
		{realtime.AudienceChannel(eventID), realtime.EventPollLaunched},
		{realtime.PresentationChannel(eventID), realtime.EventPollEnded},
		{realtime.AudienceChannel(eventID), realtime.EventPollEnded},
	}
	if len(calls) != len(want) {
		t.Fatalf("expected %d broadcasts, got %d", len(want), len(calls))
	}
	for i, w := range want {
		if calls[i].Channel != w.channel || calls[i].Event != w.event {
			t.Errorf("broadcast %d: got %s/%s, want %s/%s", i, calls[i].Channel, calls[i].Event, w.channel, w.event)
		}
		sig, ok := calls[i].Payload.(Signal)
		if !ok || sig.PollID != pollID || sig.EventID != eventID || sig.Timestamp.IsZero() {
			t.Errorf("broadcast %d: unexpected payload %+v", i, calls[i].Payload)
		}
	}
}

func TestBroadcastFailureIsNotReturned(t *testing.T) {
	conn, st, bus := setup(t)
	bus.Err = errors.New("channel down")
	eventID, _, _ := testutil.CreateTestEvent(t, conn, models.EventActive)
	pollID := testutil.CreateTestPoll(t, conn, eventID, models.StatusDraft)

	if _, err := NewManager(st, bus).Launch(context.Background(), pollID); err != nil {
		t.Errorf("Launch() error = %v, broadcast failures should be swallowed", err)
	}
}

func TestDelete(t *testing.T) {
	conn, st, bus := setup(t)
	ctx := context.Background()
	eventID, _, _ := testutil.CreateTestEvent(t, conn, models.EventActive)
	m := NewManager(st, bus)

	for _, status := range []string{models.StatusDraft, models.StatusActive, models.StatusEnded} {
		pollID := testutil.CreateTestPoll(t, conn, eventID, status)
		if status == models.StatusEnded {
			// Shown on screen; deleting is still allowed
			st.SwapDisplay(ctx, eventID, models.ShowPollResults{PollID: pollID})
		}
		if err := m.Delete(ctx, pollID); err != nil {
			t.Errorf("Delete(%s) error = %v", status, err)
		}
		if _, err := st.GetPoll(ctx, pollID); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("%s poll should be gone", status)
		}
	}

	// Only the active poll announces its end
	if n := len(bus.Calls()); n != 2 {
		t.Errorf("expected 2 broadcasts, got %d", n)
	}
}

func TestAtMostOneActive(t *testing.T) {
	conn, st, _ := setup(t)
	ctx := context.Background()
	eventID, _, _ := testutil.CreateTestEvent(t, conn, models.EventActive)

	var polls []string
	for i := 0; i < 5; i++ {
		polls = append(polls, testutil.CreateTestPoll(t, conn, eventID, models.StatusDraft))
	}

	for _, s := range []Store{st, twoStepStore{st}} {
		m := NewManager(s, nil)
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 60; i++ {
			id := polls[rng.Intn(len(polls))]
			if rng.Intn(2) == 0 {
				m.Launch(ctx, id)
			} else {
				m.End(ctx, id)
			}
			if n := testutil.CountActive(t, conn, db.TablePolls, eventID); n > 1 {
				t.Fatalf("step %d: %d active polls", i, n)
			}
		}
	}
}

func TestConcurrentLaunches(t *testing.T) {
	conn, st, _ := setup(t)
	ctx := context.Background()
	eventID, _, _ := testutil.CreateTestEvent(t, conn, models.EventActive)
	m := NewManager(st, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		pollID := testutil.CreateTestPoll(t, conn, eventID, models.StatusDraft)
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Launch(ctx, pollID)
		}()
	}
	wg.Wait()

	if n := testutil.CountActive(t, conn, db.TablePolls, eventID); n != 1 {
		t.Errorf("expected exactly 1 active poll, got %d", n)
	}
}
