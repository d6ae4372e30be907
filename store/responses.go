// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
)

// InsertResponses stores one respondent's answers to an active poll in a
// single transaction. Insertion order is preserved for ListResponses.
// Polls that are not active yield ErrConflict.
func (s *Store) InsertResponses(ctx context.Context, pollID, respondentID string, answers []models.PollResponse) ([]models.PollResponse, error) {
	now := s.now()
	var eventID string

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var status string
		// The poll row lock serializes sequence allocation on postgres
		err := tx.QueryRowContext(ctx, s.forUpdate(`SELECT event_id, status FROM polls WHERE id = ?`), pollID).Scan(&eventID, &status)
		if err != nil {
			return classify(err)
		}
		if status != models.StatusActive {
			return ErrConflict
		}

		var seq int64
		if err := tx.QueryRowContext(ctx, s.q(`SELECT COALESCE(MAX(seq), 0) FROM poll_responses WHERE poll_id = ?`), pollID).Scan(&seq); err != nil {
			return fmt.Errorf("failed to read response sequence: %w", err)
		}

		for i := range answers {
			seq++
			r := &answers[i]
			r.ID = auth.NewID()
			r.PollID = pollID
			r.RespondentID = respondentID
			r.CreatedAt = now

			_, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO poll_responses (id, poll_id, question_id, option_id, response_text, respondent_id, created_at, seq)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`), r.ID, pollID, r.QuestionID, r.OptionID, r.Text, respondentID, now, seq)
			if err != nil {
				return classify(fmt.Errorf("failed to insert response: %w", err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(db.TablePollResponses, realtime.OpInsert, eventID, pollID)
	return answers, nil
}

// ListResponses returns a poll's responses in insertion order
func (s *Store) ListResponses(ctx context.Context, pollID string) ([]models.PollResponse, error) {
	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT id, poll_id, question_id, option_id, response_text, respondent_id, created_at
		FROM poll_responses
		WHERE poll_id = ?
		ORDER BY seq, id
	`), pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	responses := []models.PollResponse{}
	for rows.Next() {
		var r models.PollResponse
		var optionID, text sql.NullString
		if err := rows.Scan(&r.ID, &r.PollID, &r.QuestionID, &optionID, &text, &r.RespondentID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		r.OptionID = nullString(optionID)
		r.Text = nullString(text)
		r.CreatedAt = r.CreatedAt.UTC()
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// HasResponded reports whether respondentID already answered the poll.
// Respondent ids are client generated; this is advisory only.
func (s *Store) HasResponded(ctx context.Context, pollID, respondentID string) (bool, error) {
	var exists int
	err := s.conn.QueryRowContext(ctx, s.q(`
		SELECT 1 FROM poll_responses WHERE poll_id = ? AND respondent_id = ? LIMIT 1
	`), pollID, respondentID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query responses: %w", err)
	}
	return true, nil
}
