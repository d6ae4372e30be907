// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates the schema.

# Drivers

Two drivers are supported, chosen by Config.DatabaseType:

  - postgres: github.com/lib/pq
  - sqlite:   modernc.org/sqlite (pure Go, used for local runs and tests)

	conn, dialect, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	err = db.CreateSchema(conn, dialect)

Queries are written with ? placeholders and passed through Rebind, which
turns them into $1, $2, ... for PostgreSQL.

# Tables

  - events: name, access/admin codes, status
  - questions: audience questions, votes, moderation flags
  - polls, poll_questions, poll_options: poll builder content
  - poll_responses: one row per answered question (seq keeps insertion order)
  - presentation_display: display directives, one active per event

# Invariants

Partial unique indexes back the two mutual-exclusion rules:

	idx_polls_one_active                (event_id) WHERE status = 'active'
	idx_presentation_display_one_active (event_id) WHERE is_active

A racing second activation fails with a unique violation instead of
leaving two active rows.

# Procedures

On PostgreSQL, CreateSchema also installs activate_poll(p_poll_id), the
atomic "end all active polls for the event, then activate this one" call.
SQLite has no stored procedures; callers fall back to a transaction.
*/
package db
