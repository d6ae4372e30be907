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

const pollColumns = `id, event_id, title, status, started_at, ended_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (models.Poll, error) {
	var p models.Poll
	var startedAt, endedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.EventID, &p.Title, &p.Status, &startedAt, &endedAt, &p.CreatedAt); err != nil {
		return models.Poll{}, err
	}
	p.StartedAt = nullTime(startedAt)
	p.EndedAt = nullTime(endedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// CreatePoll inserts a draft poll with its ordered questions and options
func (s *Store) CreatePoll(ctx context.Context, eventID, title string, questions []models.PollQuestionInput) (models.PollDetail, error) {
	detail := models.PollDetail{
		Poll: models.Poll{
			ID:        auth.NewID(),
			EventID:   eventID,
			Title:     title,
			Status:    models.StatusDraft,
			CreatedAt: s.now(),
		},
	}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO polls (id, event_id, title, status, created_at)
			VALUES (?, ?, ?, ?, ?)
		`), detail.ID, eventID, title, models.StatusDraft, detail.CreatedAt)
		if err != nil {
			return classify(fmt.Errorf("failed to insert poll: %w", err))
		}

		detail.Questions, err = s.insertPollQuestions(ctx, tx, detail.ID, questions)
		return err
	})
	if err != nil {
		return models.PollDetail{}, err
	}

	s.notify(db.TablePolls, realtime.OpInsert, eventID, detail.ID)
	return detail, nil
}

// ReplaceDraft swaps the title and content of a draft poll. Non-draft polls
// yield ErrConflict.
func (s *Store) ReplaceDraft(ctx context.Context, pollID, title string, questions []models.PollQuestionInput) (models.PollDetail, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.q(`UPDATE polls SET title = ? WHERE id = ? AND status = 'draft'`), title, pollID)
		if err != nil {
			return fmt.Errorf("failed to update poll: %w", err)
		}
		if err := s.affected(ctx, tx, res, db.TablePolls, pollID); err != nil {
			return err
		}

		// Options cascade
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM poll_questions WHERE poll_id = ?`), pollID); err != nil {
			return fmt.Errorf("failed to clear poll questions: %w", err)
		}

		_, err = s.insertPollQuestions(ctx, tx, pollID, questions)
		return err
	})
	if err != nil {
		return models.PollDetail{}, err
	}

	detail, err := s.GetPollDetail(ctx, pollID)
	if err != nil {
		return models.PollDetail{}, err
	}

	s.notify(db.TablePolls, realtime.OpUpdate, detail.EventID, pollID)
	return detail, nil
}

func (s *Store) insertPollQuestions(ctx context.Context, tx *sql.Tx, pollID string, inputs []models.PollQuestionInput) ([]models.PollQuestion, error) {
	questions := make([]models.PollQuestion, 0, len(inputs))

	for i, in := range inputs {
		q := models.PollQuestion{
			ID:         auth.NewID(),
			PollID:     pollID,
			Text:       in.Text,
			Type:       in.Type,
			IsRequired: in.IsRequired,
			Position:   i,
			Options:    []models.PollOption{},
		}

		_, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO poll_questions (id, poll_id, question_text, question_type, is_required, position)
			VALUES (?, ?, ?, ?, ?, ?)
		`), q.ID, pollID, q.Text, string(q.Type), q.IsRequired, q.Position)
		if err != nil {
			return nil, fmt.Errorf("failed to insert poll question: %w", err)
		}

		if q.Type.IsChoice() {
			for j, text := range in.Options {
				opt := models.PollOption{ID: auth.NewID(), QuestionID: q.ID, Text: text, Position: j}
				_, err := tx.ExecContext(ctx, s.q(`
					INSERT INTO poll_options (id, question_id, option_text, position)
					VALUES (?, ?, ?, ?)
				`), opt.ID, q.ID, opt.Text, opt.Position)
				if err != nil {
					return nil, fmt.Errorf("failed to insert poll option: %w", err)
				}
				q.Options = append(q.Options, opt)
			}
		}

		questions = append(questions, q)
	}

	return questions, nil
}

func (s *Store) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	p, err := scanPoll(s.conn.QueryRowContext(ctx, s.q(`SELECT `+pollColumns+` FROM polls WHERE id = ?`), id))
	if err != nil {
		return models.Poll{}, classify(err)
	}
	return p, nil
}

// GetPollDetail loads a poll with its questions and options in order
func (s *Store) GetPollDetail(ctx context.Context, id string) (models.PollDetail, error) {
	p, err := s.GetPoll(ctx, id)
	if err != nil {
		return models.PollDetail{}, err
	}
	return s.withQuestions(ctx, p)
}

// ListPolls returns every poll of an event, newest first
func (s *Store) ListPolls(ctx context.Context, eventID string) ([]models.PollDetail, error) {
	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT `+pollColumns+`
		FROM polls
		WHERE event_id = ?
		ORDER BY created_at DESC, id
	`), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query polls: %w", err)
	}

	var polls []models.Poll
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	details := make([]models.PollDetail, 0, len(polls))
	for _, p := range polls {
		d, err := s.withQuestions(ctx, p)
		if err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, nil
}

// ActivePoll returns the event's active poll. If a race left more than one,
// the most recently started wins.
func (s *Store) ActivePoll(ctx context.Context, eventID string) (models.PollDetail, error) {
	p, err := scanPoll(s.conn.QueryRowContext(ctx, s.q(`
		SELECT `+pollColumns+`
		FROM polls
		WHERE event_id = ? AND status = 'active'
		ORDER BY started_at DESC, id
		LIMIT 1
	`), eventID))
	if err != nil {
		return models.PollDetail{}, classify(err)
	}
	return s.withQuestions(ctx, p)
}

func (s *Store) withQuestions(ctx context.Context, p models.Poll) (models.PollDetail, error) {
	detail := models.PollDetail{Poll: p, Questions: []models.PollQuestion{}}

	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT id, poll_id, question_text, question_type, is_required, position
		FROM poll_questions
		WHERE poll_id = ?
		ORDER BY position, id
	`), p.ID)
	if err != nil {
		return models.PollDetail{}, fmt.Errorf("failed to query poll questions: %w", err)
	}
	index := map[string]int{}
	for rows.Next() {
		var q models.PollQuestion
		var qtype string
		if err := rows.Scan(&q.ID, &q.PollID, &q.Text, &qtype, &q.IsRequired, &q.Position); err != nil {
			rows.Close()
			return models.PollDetail{}, fmt.Errorf("failed to scan poll question: %w", err)
		}
		q.Type = models.QuestionType(qtype)
		q.Options = []models.PollOption{}
		index[q.ID] = len(detail.Questions)
		detail.Questions = append(detail.Questions, q)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return models.PollDetail{}, err
	}

	rows, err = s.conn.QueryContext(ctx, s.q(`
		SELECT o.id, o.question_id, o.option_text, o.position
		FROM poll_options o
		JOIN poll_questions q ON q.id = o.question_id
		WHERE q.poll_id = ?
		ORDER BY o.position, o.id
	`), p.ID)
	if err != nil {
		return models.PollDetail{}, fmt.Errorf("failed to query poll options: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var o models.PollOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Position); err != nil {
			return models.PollDetail{}, fmt.Errorf("failed to scan poll option: %w", err)
		}
		if i, ok := index[o.QuestionID]; ok {
			detail.Questions[i].Options = append(detail.Questions[i].Options, o)
		}
	}
	return detail, rows.Err()
}

// CallActivatePoll runs the activate_poll procedure: end the event's
// active polls and activate pollID as one statement. Returns
// ErrProcedureNotFound where the procedure does not exist, ErrConflict
// when pollID is not a draft.
func (s *Store) CallActivatePoll(ctx context.Context, pollID string) (models.Poll, error) {
	if s.dialect != db.Postgres {
		return models.Poll{}, ErrProcedureNotFound
	}

	if _, err := s.conn.ExecContext(ctx, s.q(`SELECT activate_poll(?)`), pollID); err != nil {
		return models.Poll{}, classify(fmt.Errorf("activate_poll: %w", err))
	}

	p, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	s.notify(db.TablePolls, realtime.OpUpdate, p.EventID, p.ID)
	return p, nil
}

// SwapActivePoll is the transactional form of CallActivatePoll
func (s *Store) SwapActivePoll(ctx context.Context, pollID string) (models.Poll, error) {
	now := s.now()

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var eventID, status string
		err := tx.QueryRowContext(ctx, s.q(`SELECT event_id, status FROM polls WHERE id = ?`), pollID).Scan(&eventID, &status)
		if err != nil {
			return classify(err)
		}
		if status != models.StatusDraft {
			return ErrConflict
		}

		if _, err := tx.ExecContext(ctx, s.q(`
			UPDATE polls SET status = 'ended', ended_at = ?
			WHERE event_id = ? AND status = 'active'
		`), now, eventID); err != nil {
			return fmt.Errorf("failed to end active polls: %w", err)
		}

		res, err := tx.ExecContext(ctx, s.q(`
			UPDATE polls SET status = 'active', started_at = ?
			WHERE id = ? AND status = 'draft'
		`), now, pollID)
		if err != nil {
			return classify(fmt.Errorf("failed to activate poll: %w", err))
		}
		return s.affected(ctx, tx, res, db.TablePolls, pollID)
	})
	if err != nil {
		return models.Poll{}, err
	}

	p, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	s.notify(db.TablePolls, realtime.OpUpdate, p.EventID, p.ID)
	return p, nil
}

// EndActivePolls ends every active poll of an event and reports how many
// were ended.
func (s *Store) EndActivePolls(ctx context.Context, eventID string) (int64, error) {
	res, err := s.conn.ExecContext(ctx, s.q(`
		UPDATE polls SET status = 'ended', ended_at = ?
		WHERE event_id = ? AND status = 'active'
	`), s.now(), eventID)
	if err != nil {
		return 0, fmt.Errorf("failed to end active polls: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.notify(db.TablePolls, realtime.OpUpdate, eventID, "")
	}
	return n, nil
}

// MarkPollActive moves a draft poll to active without touching other
// polls. A second active poll for the event yields ErrConflict.
func (s *Store) MarkPollActive(ctx context.Context, pollID string) (models.Poll, error) {
	return s.transition(ctx, pollID, `
		UPDATE polls SET status = 'active', started_at = ?
		WHERE id = ? AND status = 'draft'
	`)
}

// EndPoll moves an active poll to ended
func (s *Store) EndPoll(ctx context.Context, pollID string) (models.Poll, error) {
	return s.transition(ctx, pollID, `
		UPDATE polls SET status = 'ended', ended_at = ?
		WHERE id = ? AND status = 'active'
	`)
}

func (s *Store) transition(ctx context.Context, pollID, query string) (models.Poll, error) {
	res, err := s.conn.ExecContext(ctx, s.q(query), s.now(), pollID)
	if err != nil {
		return models.Poll{}, classify(fmt.Errorf("failed to update poll status: %w", err))
	}
	if err := s.affected(ctx, s.conn, res, db.TablePolls, pollID); err != nil {
		return models.Poll{}, err
	}

	p, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return models.Poll{}, err
	}
	s.notify(db.TablePolls, realtime.OpUpdate, p.EventID, p.ID)
	return p, nil
}

// DeletePoll removes a poll in any state along with its content and
// responses.
func (s *Store) DeletePoll(ctx context.Context, pollID string) error {
	var eventID string
	err := s.conn.QueryRowContext(ctx, s.q(`DELETE FROM polls WHERE id = ? RETURNING event_id`), pollID).Scan(&eventID)
	if err != nil {
		return classify(err)
	}

	s.notify(db.TablePolls, realtime.OpDelete, eventID, pollID)
	return nil
}
