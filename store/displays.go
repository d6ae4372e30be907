// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
	"go.uber.org/zap"
)

const displayColumns = `id, event_id, display_type, question_id, poll_id, custom_message, is_active, created_at`

func scanDisplay(row rowScanner) (models.Display, error) {
	var d models.Display
	var displayType string
	var questionID, pollID, message sql.NullString
	if err := row.Scan(&d.ID, &d.EventID, &displayType, &questionID, &pollID, &message, &d.IsActive, &d.CreatedAt); err != nil {
		return models.Display{}, err
	}
	d.CreatedAt = d.CreatedAt.UTC()

	dir, err := models.DirectiveFromFields(models.DisplayType(displayType), nullString(questionID), nullString(pollID), nullString(message))
	if err != nil {
		// The referenced row was deleted; show the default instead
		logger.Debug("display directive lost its reference",
			zap.String("display_id", d.ID),
			zap.String("display_type", displayType),
			zap.Error(err))
		dir = models.Welcome{}
	}
	d.Directive = dir
	return d, nil
}

// DeactivateDisplays clears the event's active display, if any
func (s *Store) DeactivateDisplays(ctx context.Context, eventID string) error {
	res, err := s.conn.ExecContext(ctx, s.q(`
		UPDATE presentation_display SET is_active = FALSE
		WHERE event_id = ? AND is_active
	`), eventID)
	if err != nil {
		return fmt.Errorf("failed to deactivate displays: %w", err)
	}

	if n, _ := res.RowsAffected(); n > 0 {
		s.notify(db.TableDisplay, realtime.OpUpdate, eventID, "")
	}
	return nil
}

// InsertDisplay adds an active display row. Fails with ErrConflict while
// another row is still active.
func (s *Store) InsertDisplay(ctx context.Context, eventID string, dir models.Directive) (models.Display, error) {
	d := s.newDisplay(eventID, dir)
	if err := s.insertDisplay(ctx, s.conn, d); err != nil {
		return models.Display{}, err
	}

	s.notify(db.TableDisplay, realtime.OpInsert, eventID, d.ID)
	return d, nil
}

// SwapDisplay deactivates the current display and inserts the new one in
// one transaction.
func (s *Store) SwapDisplay(ctx context.Context, eventID string, dir models.Directive) (models.Display, error) {
	d := s.newDisplay(eventID, dir)

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`
			UPDATE presentation_display SET is_active = FALSE
			WHERE event_id = ? AND is_active
		`), eventID); err != nil {
			return fmt.Errorf("failed to deactivate displays: %w", err)
		}
		return s.insertDisplay(ctx, tx, d)
	})
	if err != nil {
		return models.Display{}, err
	}

	s.notify(db.TableDisplay, realtime.OpInsert, eventID, d.ID)
	return d, nil
}

func (s *Store) newDisplay(eventID string, dir models.Directive) models.Display {
	return models.Display{
		ID:        auth.NewID(),
		EventID:   eventID,
		Directive: dir,
		IsActive:  true,
		CreatedAt: s.now(),
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertDisplay(ctx context.Context, ex execer, d models.Display) error {
	questionID, pollID, message := models.DirectiveFields(d.Directive)
	_, err := ex.ExecContext(ctx, s.q(`
		INSERT INTO presentation_display (`+displayColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, TRUE, ?)
	`), d.ID, d.EventID, string(d.Type()), questionID, pollID, message, d.CreatedAt)
	if err != nil {
		return classify(fmt.Errorf("failed to insert display: %w", err))
	}
	return nil
}

// CurrentDisplay returns the event's active display, or ErrNotFound when
// none is active. If a race left more than one, the newest wins.
func (s *Store) CurrentDisplay(ctx context.Context, eventID string) (models.Display, error) {
	d, err := scanDisplay(s.conn.QueryRowContext(ctx, s.q(`
		SELECT `+displayColumns+`
		FROM presentation_display
		WHERE event_id = ? AND is_active
		ORDER BY created_at DESC, id
		LIMIT 1
	`), eventID))
	if err != nil {
		return models.Display{}, classify(err)
	}
	return d, nil
}
