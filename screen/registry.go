// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package screen

import (
	"context"
	"errors"
	"sync"

	"github.com/danielhkuo/stage/logger"
	"go.uber.org/zap"
)

// ErrStopped is returned by Get when the registry is closed or the screen
// was removed before its first fetch completed.
var ErrStopped = errors.New("screen: stopped")

// entry is a registry slot. ready is closed once the first fetch has
// finished; err is set before that when the screen failed to start.
type entry struct {
	screen *Screen
	ready  chan struct{}
	err    error
}

// Registry runs one Screen per event, started on first use
type Registry struct {
	ctx      context.Context
	store    Store
	displays Displays
	hub      Subscriber
	opts     Options

	mu      sync.Mutex
	screens map[string]*entry
	closed  bool
}

// NewRegistry creates a registry whose screens live until ctx is done or
// Close is called.
func NewRegistry(ctx context.Context, st Store, displays Displays, hub Subscriber, opts Options) *Registry {
	return &Registry{
		ctx:      ctx,
		store:    st,
		displays: displays,
		hub:      hub,
		opts:     opts,
		screens:  make(map[string]*entry),
	}
}

// Get returns the event's screen, starting it with a synchronous first
// fetch if it is not running yet. Concurrent callers for the same event
// wait for that fetch and share its outcome.
func (r *Registry) Get(ctx context.Context, eventID string) (*Screen, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrStopped
	}
	if e, ok := r.screens[eventID]; ok {
		r.mu.Unlock()
		select {
		case <-e.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if e.err != nil {
			return nil, e.err
		}
		return e.screen, nil
	}

	e := &entry{
		screen: New(eventID, r.store, r.displays, r.hub, r.opts),
		ready:  make(chan struct{}),
	}
	r.screens[eventID] = e
	r.mu.Unlock()

	err := e.screen.Refresh(ctx)

	r.mu.Lock()
	current := !r.closed && r.screens[eventID] == e
	if err == nil && !current {
		err = ErrStopped
	}
	if err != nil {
		if current {
			delete(r.screens, eventID)
		}
		e.err = err
		close(e.ready)
		r.mu.Unlock()
		e.screen.Stop()
		return nil, err
	}
	// Start under the lock so a concurrent Remove or Close stops a
	// started screen rather than one that starts after it.
	e.screen.Start(r.ctx)
	close(e.ready)
	r.mu.Unlock()

	logger.Info("presentation screen started",
		zap.String("event_id", eventID))
	return e.screen, nil
}

// Remove stops and forgets an event's screen
func (r *Registry) Remove(eventID string) {
	r.mu.Lock()
	e, ok := r.screens[eventID]
	delete(r.screens, eventID)
	r.mu.Unlock()

	if ok {
		e.stop()
		logger.Info("presentation screen stopped",
			zap.String("event_id", eventID))
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.screens)
}

// Close stops every screen
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	screens := r.screens
	r.screens = make(map[string]*entry)
	r.mu.Unlock()

	for _, e := range screens {
		e.stop()
	}
}

// stop stops a started screen. A screen still on its first fetch is
// stopped by Get once that fetch returns.
func (e *entry) stop() {
	select {
	case <-e.ready:
		if e.err == nil {
			e.screen.Stop()
		}
	default:
	}
}
