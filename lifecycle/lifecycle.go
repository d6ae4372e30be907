// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
	"github.com/danielhkuo/stage/store"
	"go.uber.org/zap"
)

var ErrInvalidTransition = errors.New("invalid poll status transition")

// Store is the persistence the manager needs. *store.Store implements it.
type Store interface {
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	CallActivatePoll(ctx context.Context, id string) (models.Poll, error)
	EndActivePolls(ctx context.Context, eventID string) (int64, error)
	MarkPollActive(ctx context.Context, id string) (models.Poll, error)
	EndPoll(ctx context.Context, id string) (models.Poll, error)
	DeletePoll(ctx context.Context, id string) error
	CurrentDisplay(ctx context.Context, eventID string) (models.Display, error)
}

// Swapper activates a poll and ends the others in one transaction
type Swapper interface {
	SwapActivePoll(ctx context.Context, id string) (models.Poll, error)
}

// Signal is the advisory payload of poll_launched and poll_ended
type Signal struct {
	PollID    string    `json:"poll_id"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
}

type Manager struct {
	store Store
	bus   realtime.Broadcaster
	now   func() time.Time
}

func NewManager(st Store, bus realtime.Broadcaster) *Manager {
	return &Manager{
		store: st,
		bus:   bus,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Launch moves a draft poll to active, ending any other active poll of the
// same event first.
func (m *Manager) Launch(ctx context.Context, pollID string) (models.Poll, error) {
	p, err := m.store.GetPoll(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	if p.Status != models.StatusDraft {
		return models.Poll{}, fmt.Errorf("%w: cannot launch %s poll", ErrInvalidTransition, p.Status)
	}

	launched, err := m.activate(ctx, p)
	if errors.Is(err, store.ErrConflict) {
		return models.Poll{}, fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	if err != nil {
		return models.Poll{}, err
	}

	logger.Info("poll launched",
		zap.String("poll_id", launched.ID),
		zap.String("event_id", launched.EventID))

	m.notify(ctx, realtime.EventPollLaunched, launched)
	return launched, nil
}

// activate prefers the stored procedure, then a transaction, then the
// non-atomic two-step sequence
func (m *Manager) activate(ctx context.Context, p models.Poll) (models.Poll, error) {
	launched, err := m.store.CallActivatePoll(ctx, p.ID)
	if !errors.Is(err, store.ErrProcedureNotFound) {
		return launched, err
	}

	if sw, ok := m.store.(Swapper); ok {
		return sw.SwapActivePoll(ctx, p.ID)
	}

	logger.Warn("activate_poll unavailable, using two-step activation",
		zap.String("poll_id", p.ID),
		zap.String("event_id", p.EventID))

	if _, err := m.store.EndActivePolls(ctx, p.EventID); err != nil {
		return models.Poll{}, err
	}
	return m.store.MarkPollActive(ctx, p.ID)
}

// End moves an active poll to ended. Ended and draft polls are rejected.
func (m *Manager) End(ctx context.Context, pollID string) (models.Poll, error) {
	ended, err := m.store.EndPoll(ctx, pollID)
	if errors.Is(err, store.ErrConflict) {
		return models.Poll{}, fmt.Errorf("%w: poll is not active", ErrInvalidTransition)
	}
	if err != nil {
		return models.Poll{}, err
	}

	logger.Info("poll ended",
		zap.String("poll_id", ended.ID),
		zap.String("event_id", ended.EventID))

	m.notify(ctx, realtime.EventPollEnded, ended)
	return ended, nil
}

// Delete removes a poll in any state. Deleting the poll whose results are
// on screen is allowed; the screen falls back to its default.
func (m *Manager) Delete(ctx context.Context, pollID string) error {
	p, err := m.store.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}

	if d, err := m.store.CurrentDisplay(ctx, p.EventID); err == nil {
		if d.Directive == (models.ShowPollResults{PollID: pollID}) {
			logger.Warn("deleting poll shown on presentation screen",
				zap.String("poll_id", pollID),
				zap.String("event_id", p.EventID))
		}
	}

	if err := m.store.DeletePoll(ctx, pollID); err != nil {
		return err
	}

	logger.Info("poll deleted",
		zap.String("poll_id", pollID),
		zap.String("event_id", p.EventID),
		zap.String("status", p.Status))

	if p.Status == models.StatusActive {
		m.notify(ctx, realtime.EventPollEnded, p)
	}
	return nil
}

// notify broadcasts to the presentation and audience channels. Failures
// are logged; the write already succeeded.
func (m *Manager) notify(ctx context.Context, event string, p models.Poll) {
	if m.bus == nil {
		return
	}

	payload := Signal{PollID: p.ID, EventID: p.EventID, Timestamp: m.now()}
	for _, channel := range []string{
		realtime.PresentationChannel(p.EventID),
		realtime.AudienceChannel(p.EventID),
	} {
		if err := m.bus.Broadcast(ctx, channel, event, payload); err != nil {
			logger.Warn("broadcast failed",
				zap.String("channel", channel),
				zap.String("event", event),
				zap.Error(err))
		}
	}
}
