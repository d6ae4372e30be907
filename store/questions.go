// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
)

type QuestionOrder int

const (
	// OrderAudience sorts by votes, newest first on ties
	OrderAudience QuestionOrder = iota
	// OrderModeration puts featured questions first, then OrderAudience
	OrderModeration
)

func (o QuestionOrder) clause() string {
	if o == OrderModeration {
		return `is_featured DESC, votes DESC, created_at DESC, id`
	}
	return `votes DESC, created_at DESC, id`
}

const questionColumns = `id, event_id, content, author_name, votes, is_answered, is_featured, created_at`

// InsertQuestion stores a new audience question with zero votes
func (s *Store) InsertQuestion(ctx context.Context, eventID, content, authorName string) (models.Question, error) {
	if strings.TrimSpace(authorName) == "" {
		authorName = models.DefaultAuthorName
	}

	q := models.Question{
		ID:         auth.NewID(),
		EventID:    eventID,
		Content:    strings.TrimSpace(content),
		AuthorName: strings.TrimSpace(authorName),
		CreatedAt:  s.now(),
	}

	_, err := s.conn.ExecContext(ctx, s.q(`
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, 0, FALSE, FALSE, ?)
	`), q.ID, q.EventID, q.Content, q.AuthorName, q.CreatedAt)
	if err != nil {
		return models.Question{}, classify(fmt.Errorf("failed to insert question: %w", err))
	}

	s.notify(db.TableQuestions, realtime.OpInsert, eventID, q.ID)
	return q, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (models.Question, error) {
	var q models.Question
	err := s.conn.QueryRowContext(ctx, s.q(`SELECT `+questionColumns+` FROM questions WHERE id = ?`), id).Scan(
		&q.ID, &q.EventID, &q.Content, &q.AuthorName, &q.Votes, &q.IsAnswered, &q.IsFeatured, &q.CreatedAt,
	)
	if err != nil {
		return models.Question{}, classify(err)
	}
	q.CreatedAt = q.CreatedAt.UTC()
	return q, nil
}

func (s *Store) ListQuestions(ctx context.Context, eventID string, order QuestionOrder) ([]models.Question, error) {
	rows, err := s.conn.QueryContext(ctx, s.q(`
		SELECT `+questionColumns+`
		FROM questions
		WHERE event_id = ?
		ORDER BY `+order.clause()), eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	questions := []models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.EventID, &q.Content, &q.AuthorName, &q.Votes, &q.IsAnswered, &q.IsFeatured, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.CreatedAt = q.CreatedAt.UTC()
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// UpvoteQuestion increments votes in place and returns the new count
func (s *Store) UpvoteQuestion(ctx context.Context, id string) (int, error) {
	var votes int
	var eventID string
	err := s.conn.QueryRowContext(ctx, s.q(`
		UPDATE questions SET votes = votes + 1
		WHERE id = ?
		RETURNING votes, event_id
	`), id).Scan(&votes, &eventID)
	if err != nil {
		return 0, classify(err)
	}

	s.notify(db.TableQuestions, realtime.OpUpdate, eventID, id)
	return votes, nil
}

func (s *Store) SetQuestionAnswered(ctx context.Context, id string, value bool) (models.Question, error) {
	return s.setQuestionFlag(ctx, id, "is_answered", value)
}

func (s *Store) SetQuestionFeatured(ctx context.Context, id string, value bool) (models.Question, error) {
	return s.setQuestionFlag(ctx, id, "is_featured", value)
}

// column is one of the fixed flag names above
func (s *Store) setQuestionFlag(ctx context.Context, id, column string, value bool) (models.Question, error) {
	res, err := s.conn.ExecContext(ctx, s.q(`UPDATE questions SET `+column+` = ? WHERE id = ?`), value, id)
	if err != nil {
		return models.Question{}, fmt.Errorf("failed to update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Question{}, ErrNotFound
	}

	q, err := s.GetQuestion(ctx, id)
	if err != nil {
		return models.Question{}, err
	}

	s.notify(db.TableQuestions, realtime.OpUpdate, q.EventID, id)
	return q, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	var eventID string
	err := s.conn.QueryRowContext(ctx, s.q(`DELETE FROM questions WHERE id = ? RETURNING event_id`), id).Scan(&eventID)
	if err != nil {
		return classify(err)
	}

	s.notify(db.TableQuestions, realtime.OpDelete, eventID, id)
	return nil
}
