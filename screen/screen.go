// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package screen

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
	"github.com/danielhkuo/stage/reconcile"
	"github.com/danielhkuo/stage/results"
	"github.com/danielhkuo/stage/store"
	"github.com/danielhkuo/stage/transition"
	"github.com/dustin/go-humanize"
)

// Store is the read side a screen needs. *store.Store implements it.
type Store interface {
	GetEvent(ctx context.Context, id string) (models.Event, error)
	GetQuestion(ctx context.Context, id string) (models.Question, error)
	ActivePoll(ctx context.Context, eventID string) (models.PollDetail, error)
	GetPollDetail(ctx context.Context, id string) (models.PollDetail, error)
	ListResponses(ctx context.Context, pollID string) ([]models.PollResponse, error)
}

// Displays resolves the current directive. *display.Service implements it.
type Displays interface {
	Current(ctx context.Context, eventID string) (models.Display, error)
}

// Subscriber opens realtime subscriptions. *realtime.Hub implements it.
type Subscriber interface {
	Subscribe(channel string, spec realtime.Spec) (*realtime.Subscription, error)
}

// Content is one fetch of everything the screen can render
type Content struct {
	Event         models.Event
	Display       models.Display
	Question      *models.Question
	ActivePoll    *models.PollDetail
	ActiveResults *models.PollResults
	ResultsPoll   *models.PollDetail
	Results       *models.PollResults
}

// SameContent compares what is on screen: display type and the question,
// poll and message it references.
func SameContent(a, b Content) bool {
	return directiveOf(a.Display) == directiveOf(b.Display)
}

func directiveOf(d models.Display) models.Directive {
	if d.Directive == nil {
		return models.Welcome{}
	}
	return d.Directive
}

// State is the screen snapshot served to presentation clients
type State struct {
	EventID       string               `json:"event_id"`
	EventName     string               `json:"event_name"`
	AccessCode    string               `json:"access_code"`
	Display       models.Display       `json:"display"`
	Question      *models.Question     `json:"question,omitempty"`
	ActivePoll    *models.PollDetail   `json:"active_poll,omitempty"`
	ActiveResults *models.PollResults  `json:"active_results,omitempty"`
	ResultsPoll   *models.PollDetail   `json:"results_poll,omitempty"`
	Results       *models.PollResults  `json:"results,omitempty"`
	Transitioning bool                 `json:"transitioning"`
	TransitionKey uint64               `json:"transition_key"`
	Connection    reconcile.Connection `json:"connection"`
	LastSync      *time.Time           `json:"last_sync,omitempty"`
	LastSyncAgo   string               `json:"last_sync_ago,omitempty"`
}

type Options struct {
	Grace       time.Duration
	Fallback    time.Duration
	Debounce    time.Duration
	ExitDelay   time.Duration
	SettleDelay time.Duration
}

func (o Options) withDefaults() Options {
	if o.ExitDelay <= 0 {
		o.ExitDelay = transition.DefaultExitDelay
	}
	if o.SettleDelay <= 0 {
		o.SettleDelay = transition.DefaultSettleDelay
	}
	if o.Debounce <= 0 {
		o.Debounce = reconcile.DefaultDebounce
	}
	return o
}

// Screen is the presentation engine for one event: a reconciler on the
// presentation channel feeding a transition sequencer.
type Screen struct {
	eventID  string
	store    Store
	displays Displays
	rec      *reconcile.Reconciler[Content]
	seq      *transition.Sequencer[Content]
	primed   atomic.Bool
}

func New(eventID string, st Store, displays Displays, hub Subscriber, opts Options) *Screen {
	opts = opts.withDefaults()

	s := &Screen{
		eventID:  eventID,
		store:    st,
		displays: displays,
	}

	initial := Content{Display: models.DefaultDisplay(eventID)}
	s.seq = transition.New(initial, SameContent, transition.WithDelays[Content](opts.ExitDelay, opts.SettleDelay))

	cfg := reconcile.Config[Content]{
		Name:     "screen-" + eventID,
		Fetch:    s.Fetch,
		Apply:    s.apply,
		Grace:    opts.Grace,
		Fallback: opts.Fallback,
		Debounce: opts.Debounce,
	}
	if hub != nil {
		cfg.Subscribe = func() (realtime.Feed, error) {
			sub, err := hub.Subscribe(realtime.PresentationChannel(eventID), Subscription(eventID))
			if err != nil {
				return nil, err
			}
			return sub, nil
		}
	}
	s.rec = reconcile.New(cfg)

	return s
}

// Subscription is what a presentation screen listens to
func Subscription(eventID string) realtime.Spec {
	return realtime.Spec{
		Events: []string{
			realtime.EventPresentationUpdate,
			realtime.EventPollLaunched,
			realtime.EventPollEnded,
		},
		Changes: []realtime.ChangeFilter{
			{Table: db.TableDisplay, EventID: eventID},
			{Table: db.TablePolls, EventID: eventID},
			{Table: db.TableQuestions, EventID: eventID},
			{Table: db.TablePollResponses, EventID: eventID},
		},
	}
}

// apply shows the first fetch directly and sequences the rest
func (s *Screen) apply(c Content) {
	if s.primed.CompareAndSwap(false, true) {
		s.seq.Set(c)
		return
	}
	s.seq.Offer(c)
}

func (s *Screen) EventID() string { return s.eventID }

func (s *Screen) Start(ctx context.Context) { s.rec.Start(ctx) }

func (s *Screen) Stop() {
	s.rec.Stop()
	s.seq.Stop()
}

// Refresh fetches now instead of waiting for a signal
func (s *Screen) Refresh(ctx context.Context) error { return s.rec.Refresh(ctx) }

// Trigger queues a background re-fetch
func (s *Screen) Trigger() { s.rec.Trigger() }

func (s *Screen) State() State {
	st := s.seq.State()
	c := st.Current

	out := State{
		EventID:       s.eventID,
		EventName:     c.Event.Name,
		AccessCode:    c.Event.AccessCode,
		Display:       c.Display,
		Question:      c.Question,
		ActivePoll:    c.ActivePoll,
		ActiveResults: c.ActiveResults,
		ResultsPoll:   c.ResultsPoll,
		Results:       c.Results,
		Transitioning: st.Transitioning,
		TransitionKey: st.Key,
		Connection:    s.rec.Connection(),
	}
	if last := s.rec.LastSync(); !last.IsZero() {
		out.LastSync = &last
		out.LastSyncAgo = humanize.Time(last)
	}
	return out
}

// Fetch loads the current directive and everything it references. Missing
// references are left empty rather than failing the fetch.
func (s *Screen) Fetch(ctx context.Context) (Content, error) {
	var c Content

	ev, err := s.store.GetEvent(ctx, s.eventID)
	if err != nil {
		return Content{}, fmt.Errorf("load event: %w", err)
	}
	c.Event = ev

	c.Display, err = s.displays.Current(ctx, s.eventID)
	if err != nil {
		return Content{}, fmt.Errorf("load display: %w", err)
	}

	switch dir := c.Display.Directive.(type) {
	case models.ShowQuestion:
		q, err := s.store.GetQuestion(ctx, dir.QuestionID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return Content{}, fmt.Errorf("load question: %w", err)
		}
		if err == nil {
			c.Question = &q
		}

	case models.ShowPollResults:
		poll, res, err := s.pollWithResults(ctx, func() (models.PollDetail, error) {
			return s.store.GetPollDetail(ctx, dir.PollID)
		})
		if err != nil {
			return Content{}, err
		}
		c.ResultsPoll, c.Results = poll, res
	}

	pinned := ""
	if dir, ok := c.Display.Directive.(models.ShowActivePoll); ok {
		pinned = dir.PollID
	}
	poll, res, err := s.pollWithResults(ctx, func() (models.PollDetail, error) {
		if pinned != "" {
			return s.store.GetPollDetail(ctx, pinned)
		}
		return s.store.ActivePoll(ctx, s.eventID)
	})
	if err != nil {
		return Content{}, err
	}
	c.ActivePoll, c.ActiveResults = poll, res

	return c, nil
}

func (s *Screen) pollWithResults(ctx context.Context, load func() (models.PollDetail, error)) (*models.PollDetail, *models.PollResults, error) {
	poll, err := load()
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load poll: %w", err)
	}

	responses, err := s.store.ListResponses(ctx, poll.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load responses: %w", err)
	}

	res := results.Tally(poll, responses)
	return &poll, &res, nil
}
