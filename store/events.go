// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
)

const eventColumns = `id, name, description, access_code, admin_code, status, created_at`

// CreateEvent inserts ev, filling ID, status and CreatedAt when empty.
// A taken access or admin code yields ErrConflict.
func (s *Store) CreateEvent(ctx context.Context, ev models.Event) (models.Event, error) {
	if ev.ID == "" {
		ev.ID = auth.NewID()
	}
	if ev.Status == "" {
		ev.Status = models.EventActive
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now()
	}

	_, err := s.conn.ExecContext(ctx, s.q(`
		INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`), ev.ID, ev.Name, ev.Description, ev.AccessCode, ev.AdminCode, ev.Status, ev.CreatedAt)
	if err != nil {
		return models.Event{}, classify(fmt.Errorf("failed to insert event: %w", err))
	}

	s.notify(db.TableEvents, realtime.OpInsert, ev.ID, ev.ID)
	return ev, nil
}

func (s *Store) GetEvent(ctx context.Context, id string) (models.Event, error) {
	return s.scanEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
}

// GetEventByAccessCode matches case-insensitively
func (s *Store) GetEventByAccessCode(ctx context.Context, code string) (models.Event, error) {
	return s.scanEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE access_code = ?`, auth.NormalizeCode(code))
}

func (s *Store) scanEvent(ctx context.Context, query string, arg string) (models.Event, error) {
	var ev models.Event
	err := s.conn.QueryRowContext(ctx, s.q(query), arg).Scan(
		&ev.ID, &ev.Name, &ev.Description, &ev.AccessCode, &ev.AdminCode, &ev.Status, &ev.CreatedAt,
	)
	if err != nil {
		return models.Event{}, classify(err)
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	return ev, nil
}

func (s *Store) UpdateEventStatus(ctx context.Context, id, status string) error {
	res, err := s.conn.ExecContext(ctx, s.q(`UPDATE events SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return classify(fmt.Errorf("failed to update event status: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	s.notify(db.TableEvents, realtime.OpUpdate, id, id)
	return nil
}
