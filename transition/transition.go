// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package transition

import (
	"sync"
	"time"
)

const (
	DefaultExitDelay   = 200 * time.Millisecond
	DefaultSettleDelay = 50 * time.Millisecond
)

// State is what a renderer should draw. Key changes on every swap so the
// entry animation can restart.
type State[T any] struct {
	Current       T
	Transitioning bool
	Key           uint64
}

type Option[T any] func(*Sequencer[T])

// WithDelays overrides the exit and settle delays
func WithDelays[T any](exit, settle time.Duration) Option[T] {
	return func(s *Sequencer[T]) {
		s.exit = exit
		s.settle = settle
	}
}

// WithOnChange registers a callback run after every state change. It is
// called without the sequencer lock held.
func WithOnChange[T any](fn func(State[T])) Option[T] {
	return func(s *Sequencer[T]) {
		s.onChange = fn
	}
}

// Sequencer buffers content changes so a swap only happens after the exit
// delay, and reports the transition as settled after the settle delay.
// Content that is the same as what is shown is replaced in place.
type Sequencer[T any] struct {
	mu       sync.Mutex
	same     func(a, b T) bool
	exit     time.Duration
	settle   time.Duration
	onChange func(State[T])

	state      State[T]
	pending    T
	hasPending bool
	timer      *time.Timer
	gen        uint64
	stopped    bool
}

func New[T any](initial T, same func(a, b T) bool, opts ...Option[T]) *Sequencer[T] {
	s := &Sequencer[T]{
		same:   same,
		exit:   DefaultExitDelay,
		settle: DefaultSettleDelay,
		state:  State[T]{Current: initial},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sequencer[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Offer hands the sequencer freshly fetched content and reports whether a
// transition was started. Same content updates in place. A different
// offer during the exit delay replaces the pending content and restarts
// the delay.
func (s *Sequencer[T]) Offer(next T) bool {
	s.mu.Lock()

	if s.stopped {
		s.mu.Unlock()
		return false
	}

	if s.hasPending {
		if s.same(s.pending, next) {
			s.pending = next
			s.mu.Unlock()
			return false
		}
	} else if s.same(s.state.Current, next) {
		s.state.Current = next
		st := s.state
		s.mu.Unlock()
		s.emit(st)
		return false
	}

	s.pending = next
	s.hasPending = true
	s.state.Transitioning = true
	s.schedule(s.exit, s.swap)
	st := s.state
	s.mu.Unlock()

	s.emit(st)
	return true
}

// Set shows v immediately, dropping any transition in progress. Used for
// the first content a screen receives.
func (s *Sequencer[T]) Set(v T) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	var zero T
	s.pending = zero
	s.hasPending = false
	s.state.Current = v
	s.state.Transitioning = false
	st := s.state
	s.mu.Unlock()

	s.emit(st)
}

// Stop cancels pending timers. Offers after Stop are ignored.
func (s *Sequencer[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
}

// schedule replaces any running timer; callbacks from replaced timers are
// ignored through gen. Caller holds the lock.
func (s *Sequencer[T]) schedule(d time.Duration, fn func(gen uint64)) {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = time.AfterFunc(d, func() { fn(gen) })
}

func (s *Sequencer[T]) swap(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stopped {
		s.mu.Unlock()
		return
	}

	s.state.Current = s.pending
	s.state.Key++
	var zero T
	s.pending = zero
	s.hasPending = false
	s.schedule(s.settle, s.settled)
	st := s.state
	s.mu.Unlock()

	s.emit(st)
}

func (s *Sequencer[T]) settled(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || s.stopped {
		s.mu.Unlock()
		return
	}

	s.state.Transitioning = false
	st := s.state
	s.mu.Unlock()

	s.emit(st)
}

func (s *Sequencer[T]) emit(st State[T]) {
	if s.onChange != nil {
		s.onChange(st)
	}
}
