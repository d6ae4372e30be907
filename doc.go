// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Stage API server.

Stage runs live event Q&A and polling. Attendees join with a short access
code, ask and upvote questions, and answer polls. Organizers moderate
questions, launch polls and choose what the presentation screen shows.
The screen follows those choices in realtime and falls back to polling
when the realtime feed is down.

# Starting the Server

With no configuration the server uses an embedded SQLite file:

	go run .

PostgreSQL, with the activate_poll procedure installed by the schema:

	DATABASE_TYPE=postgres DATABASE_URL=postgres://... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -redis redis://localhost:6379/0

A .env file in the working directory is loaded first; variables already
set in the environment win.

# Configuration

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): connection string, required for postgres
  - REDIS_URL (-redis): relays broadcasts and row changes between instances
  - PUBLIC_BASE_URL (-base-url): used for the join link in QR codes
  - DEBUG (-debug): development logging at Debug level
  - REALTIME_GRACE (-grace): time a screen waits for its feed before polling (default: 5s)
  - REALTIME_FALLBACK (-fallback): screen polling interval while the feed is down (default: 10s)

# Architecture

  - handlers: HTTP request handlers (events, questions, polls, responses, results, display)
  - router: Route definitions using Go 1.22+ routing, service wiring
  - middleware: CORS, zap request logging, JSON helpers, validation
  - models: Domain, request and response types, display directives
  - auth: Access/admin codes, respondent ids, sessions
  - db: Driver selection and schema creation
  - store: SQL persistence with row-change notifications
  - realtime: Channels, the in-process hub, WebSocket bridge, Redis relay
  - lifecycle: Poll launch/end/delete with broadcasts
  - display: The active presentation directive per event
  - results: Poll tallies and percentages
  - export: xlsx export of results
  - reconcile: Generic realtime-plus-fallback reconciler
  - transition: Exit/settle sequencing of screen content
  - screen: Per-event presentation engine and its registry
  - logger: Process-wide zap logger
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
