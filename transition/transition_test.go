// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transition

import (
	"sync/atomic"
	"testing"
	"time"
)

type content struct {
	kind  string
	count int
}

func sameKind(a, b content) bool { return a.kind == b.kind }

const (
	exit   = 30 * time.Millisecond
	settle = 20 * time.Millisecond
)

func newTestSequencer(opts ...Option[content]) *Sequencer[content] {
	opts = append([]Option[content]{WithDelays[content](exit, settle)}, opts...)
	return New(content{kind: "welcome"}, sameKind, opts...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSameContentUpdatesInPlace(t *testing.T) {
	var changes atomic.Int32
	seq := newTestSequencer(WithOnChange(func(State[content]) { changes.Add(1) }))

	for i := 1; i <= 2; i++ {
		if seq.Offer(content{kind: "welcome", count: i}) {
			t.Errorf("offer %d: same content should not animate", i)
		}
	}

	st := seq.State()
	if st.Transitioning || st.Key != 0 || st.Current.count != 2 {
		t.Errorf("unexpected state %+v", st)
	}
	if changes.Load() != 2 {
		t.Errorf("expected 2 change callbacks, got %d", changes.Load())
	}
}

func TestDifferentContentAnimates(t *testing.T) {
	seq := newTestSequencer()

	if !seq.Offer(content{kind: "poll"}) {
		t.Fatal("different content should animate")
	}

	st := seq.State()
	if !st.Transitioning || st.Current.kind != "welcome" {
		t.Errorf("old content should stay during exit, got %+v", st)
	}

	waitFor(t, func() bool { return seq.State().Current.kind == "poll" })
	if st := seq.State(); st.Key != 1 {
		t.Errorf("expected key 1 after swap, got %d", st.Key)
	}

	waitFor(t, func() bool { return !seq.State().Transitioning })
}

func TestNewerOfferDuringExitWins(t *testing.T) {
	var swaps atomic.Int32
	seq := newTestSequencer(WithOnChange(func(st State[content]) {
		if st.Key > 0 && st.Transitioning {
			swaps.Add(1)
		}
	}))

	seq.Offer(content{kind: "question"})
	time.Sleep(exit / 3)
	if !seq.Offer(content{kind: "message"}) {
		t.Error("newer different content should restart the transition")
	}
	// Same as pending: absorbed without restarting
	if seq.Offer(content{kind: "message", count: 9}) {
		t.Error("offer equal to pending content should not restart")
	}

	waitFor(t, func() bool { return !seq.State().Transitioning })

	st := seq.State()
	if st.Current.kind != "message" || st.Current.count != 9 {
		t.Errorf("expected newest content, got %+v", st.Current)
	}
	if st.Key != 1 || swaps.Load() != 1 {
		t.Errorf("expected a single swap, key=%d swaps=%d", st.Key, swaps.Load())
	}
}

func TestStopCancelsTimers(t *testing.T) {
	seq := newTestSequencer()
	seq.Offer(content{kind: "poll"})
	seq.Stop()

	time.Sleep(exit + settle + 20*time.Millisecond)
	if st := seq.State(); st.Current.kind != "welcome" {
		t.Errorf("swap should not happen after Stop, got %+v", st)
	}
	if seq.Offer(content{kind: "qr"}) {
		t.Error("offers after Stop should be ignored")
	}
}

func TestSetSkipsAnimation(t *testing.T) {
	seq := newTestSequencer()
	seq.Offer(content{kind: "poll"})
	seq.Set(content{kind: "qr"})

	st := seq.State()
	if st.Transitioning || st.Current.kind != "qr" {
		t.Errorf("expected immediate content, got %+v", st)
	}

	time.Sleep(exit + settle + 20*time.Millisecond)
	if st := seq.State(); st.Current.kind != "qr" {
		t.Errorf("cancelled transition must not swap later, got %+v", st)
	}
}
