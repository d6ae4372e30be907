// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/realtime"
	"go.uber.org/zap"
)

const (
	DefaultGrace    = 5 * time.Second
	DefaultFallback = 10 * time.Second
	DefaultDebounce = 50 * time.Millisecond
)

// Connection is the indicator shown to viewers
type Connection string

const (
	Connecting   Connection = "connecting"
	Connected    Connection = "connected"
	Reconnecting Connection = "reconnecting"
	Unavailable  Connection = "no-realtime-available"
)

type Config[T any] struct {
	// Name identifies the reconciler in logs
	Name string

	// Subscribe opens the signal feed. Nil means polling only.
	Subscribe func() (realtime.Feed, error)

	// Fetch reads authoritative state. It must be safe to repeat.
	Fetch func(ctx context.Context) (T, error)

	// Apply receives fetched state, newest fetch last. Results of a fetch
	// that started before the last applied one are dropped.
	Apply func(T)

	Grace    time.Duration
	Fallback time.Duration
	Debounce time.Duration
}

// Reconciler re-fetches state whenever a signal, the fallback ticker or a
// manual Trigger asks for it. All producers feed one token queue drained
// by a single consumer.
type Reconciler[T any] struct {
	cfg Config[T]

	tokens  chan struct{}
	statusC chan struct{}
	closing atomic.Bool
	issued  atomic.Uint64

	mu         sync.Mutex
	conn       Connection
	subscribed bool
	everUp     bool
	feed       realtime.Feed

	applyMu  sync.Mutex
	applied  uint64
	lastSync time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New[T any](cfg Config[T]) *Reconciler[T] {
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGrace
	}
	if cfg.Fallback <= 0 {
		cfg.Fallback = DefaultFallback
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}

	return &Reconciler[T]{
		cfg:     cfg,
		tokens:  make(chan struct{}, 1),
		statusC: make(chan struct{}, 1),
		conn:    Connecting,
	}
}

// Start subscribes, schedules the fallback and runs an initial fetch.
// It does nothing once Stop has been called.
// Stop must be called to release the subscription.
func (r *Reconciler[T]) Start(ctx context.Context) {
	if r.closing.Load() {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)

	if r.cfg.Subscribe == nil {
		r.setConnection(Unavailable)
	} else if feed, err := r.cfg.Subscribe(); err != nil {
		logger.Warn("realtime subscribe failed, polling only",
			zap.String("reconciler", r.cfg.Name),
			zap.Error(err))
		r.setConnection(Unavailable)
	} else {
		r.mu.Lock()
		r.feed = feed
		r.mu.Unlock()

		r.wg.Add(1)
		go r.watch(ctx, feed)
	}

	r.wg.Add(2)
	go r.consume(ctx)
	go r.fallback(ctx)

	r.Trigger()
}

// Stop sets the closing flag, cancels timers and closes the subscription.
// Signals and fetch results arriving afterwards are ignored.
func (r *Reconciler[T]) Stop() {
	if r.closing.Swap(true) {
		return
	}
	if r.cancel != nil {
		r.cancel()
	}

	r.mu.Lock()
	feed := r.feed
	r.feed = nil
	r.mu.Unlock()
	if feed != nil {
		feed.Close()
	}

	r.wg.Wait()
}

// Trigger asks for a re-fetch. Requests made while one is queued merge.
func (r *Reconciler[T]) Trigger() {
	if r.closing.Load() {
		return
	}
	select {
	case r.tokens <- struct{}{}:
	default:
	}
}

// Refresh fetches and applies immediately on the caller's goroutine
func (r *Reconciler[T]) Refresh(ctx context.Context) error {
	ticket := r.issued.Add(1)
	v, err := r.cfg.Fetch(ctx)
	if err != nil {
		return err
	}
	r.apply(ticket, v)
	return nil
}

func (r *Reconciler[T]) Connection() Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn
}

// LastSync is when state was last applied; zero before the first fetch
func (r *Reconciler[T]) LastSync() time.Time {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()
	return r.lastSync
}

func (r *Reconciler[T]) consume(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.tokens:
		}

		if r.cfg.Debounce > 0 {
			t := time.NewTimer(r.cfg.Debounce)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			// Signals during the window are covered by this fetch
			select {
			case <-r.tokens:
			default:
			}
		}

		r.run(ctx)
	}
}

func (r *Reconciler[T]) run(ctx context.Context) {
	ticket := r.issued.Add(1)
	v, err := r.cfg.Fetch(ctx)
	if r.closing.Load() {
		return
	}
	if err != nil {
		logger.Debug("reconcile fetch failed",
			zap.String("reconciler", r.cfg.Name),
			zap.Error(err))
		return
	}
	r.apply(ticket, v)
}

func (r *Reconciler[T]) apply(ticket uint64, v T) {
	r.applyMu.Lock()
	defer r.applyMu.Unlock()

	if r.closing.Load() {
		return
	}
	if ticket <= r.applied {
		logger.Debug("stale fetch dropped",
			zap.String("reconciler", r.cfg.Name),
			zap.Uint64("ticket", ticket),
			zap.Uint64("applied", r.applied))
		return
	}

	r.applied = ticket
	r.lastSync = time.Now()
	if r.cfg.Apply != nil {
		r.cfg.Apply(v)
	}
}

// watch turns feed signals into tokens and tracks the connection status
func (r *Reconciler[T]) watch(ctx context.Context, feed realtime.Feed) {
	defer r.wg.Done()

	messages := feed.Messages()
	statuses := feed.Status()

	for messages != nil || statuses != nil {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			r.Trigger()

		case st, ok := <-statuses:
			if !ok {
				statuses = nil
				r.setStatus(realtime.StatusClosed)
				continue
			}
			r.setStatus(st)
		}
	}
}

func (r *Reconciler[T]) setStatus(st realtime.Status) {
	if r.closing.Load() {
		return
	}

	r.mu.Lock()
	wasUp := r.subscribed
	switch st {
	case realtime.StatusSubscribed:
		r.subscribed = true
		r.everUp = true
		r.conn = Connected
	case realtime.StatusConnecting:
		r.subscribed = false
		if r.everUp {
			r.conn = Reconnecting
		} else {
			r.conn = Connecting
		}
	case realtime.StatusError:
		r.subscribed = false
		r.conn = Reconnecting
	case realtime.StatusClosed:
		r.subscribed = false
		r.conn = Unavailable
	}
	up := r.subscribed
	conn := r.conn
	r.mu.Unlock()

	if up != wasUp {
		logger.Debug("realtime status changed",
			zap.String("reconciler", r.cfg.Name),
			zap.String("status", string(st)),
			zap.String("connection", string(conn)))
	}

	select {
	case r.statusC <- struct{}{}:
	default:
	}

	// Catch up on anything missed while disconnected
	if up && !wasUp {
		r.Trigger()
	}
}

func (r *Reconciler[T]) setConnection(c Connection) {
	r.mu.Lock()
	r.conn = c
	r.mu.Unlock()
}

func (r *Reconciler[T]) isSubscribed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribed
}

// fallback polls while the feed is not confirmed subscribed: a grace
// period first, then every Fallback interval until subscribed again.
func (r *Reconciler[T]) fallback(ctx context.Context) {
	defer r.wg.Done()

	grace := time.NewTimer(r.cfg.Grace)
	graceC := grace.C
	var ticker *time.Ticker
	var tickC <-chan time.Time

	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tickC = nil, nil
		}
	}
	defer func() {
		grace.Stop()
		stopTicker()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-r.statusC:
			if r.isSubscribed() {
				grace.Stop()
				graceC = nil
				stopTicker()
			} else if graceC == nil && tickC == nil {
				grace.Reset(r.cfg.Grace)
				graceC = grace.C
			}

		case <-graceC:
			graceC = nil
			if r.isSubscribed() {
				continue
			}
			r.mu.Lock()
			if !r.everUp {
				r.conn = Unavailable
			}
			r.mu.Unlock()

			logger.Debug("realtime not confirmed, polling",
				zap.String("reconciler", r.cfg.Name),
				zap.Duration("interval", r.cfg.Fallback))
			ticker = time.NewTicker(r.cfg.Fallback)
			tickC = ticker.C

		case <-tickC:
			if !r.isSubscribed() {
				r.Trigger()
			}
		}
	}
}
