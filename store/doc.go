// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the typed data access layer over database/sql.

# Overview

Every read and write the application performs goes through a *Store:

	st := store.New(conn, dialect, hub)
	ev, err := st.GetEventByAccessCode(ctx, "ABC123")

Queries are written once with ? placeholders and rebound for the active
dialect (see package db).

# Change notifications

After a write commits, the store reports a realtime.Change
{table, op, event_id, row_id} to its ChangeSink. This is the row-change
feed that reconcilers and WebSocket clients subscribe to. Nothing is
reported for failed or rolled back writes.

# Errors

	ErrNotFound           row absent (sql.ErrNoRows)
	ErrConflict           unique violation, or a guarded transition that
	                      found the row in the wrong state
	ErrProcedureNotFound  activate_poll is unavailable (SQLite, or a
	                      PostgreSQL database without the function)

# Guarded writes

Status transitions are single UPDATE statements with the expected
current state in the WHERE clause. Zero affected rows means the row is
missing (ErrNotFound) or in another state (ErrConflict).

# Atomic activation

Two paths keep "one active poll" and "one active display" per event:

  - CallActivatePoll / SwapActivePoll and SwapDisplay do the
    deactivate-then-activate pair as one operation
  - EndActivePolls + MarkPollActive and DeactivateDisplays + InsertDisplay
    are the two-step sequence, kept for callers that need it

The partial unique indexes from package db reject a second active row in
either path.
*/
package store
