// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package display

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

var ErrInvalidDirective = models.ErrInvalidDirective

// Store is the persistence the service needs. *store.Store implements it.
type Store interface {
	DeactivateDisplays(ctx context.Context, eventID string) error
	InsertDisplay(ctx context.Context, eventID string, dir models.Directive) (models.Display, error)
	CurrentDisplay(ctx context.Context, eventID string) (models.Display, error)
}

// Swapper replaces the active display in one transaction
type Swapper interface {
	SwapDisplay(ctx context.Context, eventID string, dir models.Directive) (models.Display, error)
}

// Update is the advisory payload of presentation_update
type Update struct {
	EventID       string             `json:"event_id"`
	DisplayType   models.DisplayType `json:"display_type"`
	QuestionID    *string            `json:"question_id"`
	CustomMessage *string            `json:"custom_message"`
	PollID        *string            `json:"poll_id"`
	Timestamp     time.Time          `json:"timestamp"`
}

type Service struct {
	store Store
	bus   realtime.Broadcaster
	now   func() time.Time
}

func NewService(st Store, bus realtime.Broadcaster) *Service {
	return &Service{
		store: st,
		bus:   bus,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks that a directive carries the reference its type needs
func Validate(dir models.Directive) error {
	if dir == nil {
		return fmt.Errorf("%w: missing directive", ErrInvalidDirective)
	}
	q, p, m := models.DirectiveFields(dir)
	_, err := models.DirectiveFromFields(dir.DisplayType(), q, p, m)
	return err
}

// Set makes dir the event's only active display and returns the stored
// row.
func (s *Service) Set(ctx context.Context, eventID string, dir models.Directive) (models.Display, error) {
	if err := Validate(dir); err != nil {
		return models.Display{}, err
	}

	d, err := s.replace(ctx, eventID, dir)
	if err != nil {
		return models.Display{}, err
	}

	logger.Info("display changed",
		zap.String("event_id", eventID),
		zap.String("display_type", string(d.Type())))

	s.notify(ctx, d)
	return d, nil
}

func (s *Service) replace(ctx context.Context, eventID string, dir models.Directive) (models.Display, error) {
	if sw, ok := s.store.(Swapper); ok {
		return sw.SwapDisplay(ctx, eventID, dir)
	}

	// Readers see the welcome default between these two writes
	if err := s.store.DeactivateDisplays(ctx, eventID); err != nil {
		return models.Display{}, err
	}
	return s.store.InsertDisplay(ctx, eventID, dir)
}

// Current returns the event's active display, or the welcome default when
// there is none.
func (s *Service) Current(ctx context.Context, eventID string) (models.Display, error) {
	d, err := s.store.CurrentDisplay(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return models.DefaultDisplay(eventID), nil
	}
	if err != nil {
		return models.Display{}, err
	}
	return d, nil
}

func (s *Service) notify(ctx context.Context, d models.Display) {
	if s.bus == nil {
		return
	}

	q, p, m := models.DirectiveFields(d.Directive)
	payload := Update{
		EventID:       d.EventID,
		DisplayType:   d.Type(),
		QuestionID:    q,
		CustomMessage: m,
		PollID:        p,
		Timestamp:     s.now(),
	}

	channel := realtime.PresentationChannel(d.EventID)
	if err := s.bus.Broadcast(ctx, channel, realtime.EventPresentationUpdate, payload); err != nil {
		logger.Warn("broadcast failed",
			zap.String("channel", channel),
			zap.String("event", realtime.EventPresentationUpdate),
			zap.Error(err))
	}
}
