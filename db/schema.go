// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, d Dialect) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if d == Postgres {
		if _, err := db.Exec(activatePollFunction); err != nil {
			return fmt.Errorf("failed to create activate_poll function: %w", err)
		}
	}

	return nil
}

// Table names, shared with row-change notifications
const (
	TableEvents        = "events"
	TableQuestions     = "questions"
	TablePolls         = "polls"
	TablePollQuestions = "poll_questions"
	TablePollOptions   = "poll_options"
	TablePollResponses = "poll_responses"
	TableDisplay       = "presentation_display"
)

const schema = `
-- Events
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    access_code TEXT NOT NULL UNIQUE,
    admin_code TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'paused', 'ended')),
    created_at TIMESTAMP NOT NULL
);

-- Audience questions
CREATE TABLE IF NOT EXISTS questions (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    content TEXT NOT NULL,
    author_name TEXT NOT NULL DEFAULT 'Anonymous',
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
    is_answered BOOLEAN NOT NULL DEFAULT FALSE,
    is_featured BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_questions_event_id ON questions(event_id);

-- Polls
CREATE TABLE IF NOT EXISTS polls (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'active', 'ended')),
    started_at TIMESTAMP,
    ended_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_polls_event_id ON polls(event_id);

-- At most one active poll per event
CREATE UNIQUE INDEX IF NOT EXISTS idx_polls_one_active ON polls(event_id) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS poll_questions (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    question_text TEXT NOT NULL,
    question_type TEXT NOT NULL CHECK (question_type IN ('single_choice', 'multiple_choice', 'text')),
    is_required BOOLEAN NOT NULL DEFAULT TRUE,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_questions_poll_id ON poll_questions(poll_id);

CREATE TABLE IF NOT EXISTS poll_options (
    id TEXT PRIMARY KEY,
    question_id TEXT NOT NULL REFERENCES poll_questions(id) ON DELETE CASCADE,
    option_text TEXT NOT NULL,
    position INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_options_question_id ON poll_options(question_id);

CREATE TABLE IF NOT EXISTS poll_responses (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL REFERENCES poll_questions(id) ON DELETE CASCADE,
    option_id TEXT REFERENCES poll_options(id) ON DELETE CASCADE,
    response_text TEXT,
    respondent_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    seq INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_responses_poll_id ON poll_responses(poll_id);
CREATE INDEX IF NOT EXISTS idx_poll_responses_respondent ON poll_responses(poll_id, respondent_id);

-- Presentation display directives
CREATE TABLE IF NOT EXISTS presentation_display (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    display_type TEXT NOT NULL CHECK (display_type IN ('welcome', 'qr_code', 'question', 'custom_message', 'active_poll', 'poll_results')),
    question_id TEXT REFERENCES questions(id) ON DELETE SET NULL,
    poll_id TEXT REFERENCES polls(id) ON DELETE SET NULL,
    custom_message TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_presentation_display_event_id ON presentation_display(event_id);

-- At most one active display per event
CREATE UNIQUE INDEX IF NOT EXISTS idx_presentation_display_one_active ON presentation_display(event_id) WHERE is_active;
`

// activatePollFunction ends every other active poll of the event and
// activates the target in one statement. Raises when the target is not a
// draft so the whole call rolls back.
const activatePollFunction = `
CREATE OR REPLACE FUNCTION activate_poll(p_poll_id TEXT) RETURNS VOID AS $fn$
DECLARE
    v_event_id TEXT;
BEGIN
    SELECT event_id INTO v_event_id FROM polls WHERE id = p_poll_id AND status = 'draft' FOR UPDATE;
    IF v_event_id IS NULL THEN
        RAISE EXCEPTION 'poll % is not a draft', p_poll_id USING ERRCODE = 'P0001';
    END IF;

    UPDATE polls SET status = 'ended', ended_at = NOW()
    WHERE event_id = v_event_id AND status = 'active';

    UPDATE polls SET status = 'active', started_at = NOW()
    WHERE id = p_poll_id;
END;
$fn$ LANGUAGE plpgsql;
`
