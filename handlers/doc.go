// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Stage API.

# Handler Types

Each handler is a struct over the store and the services it drives:

  - EventHandler: events, join QR code, presentation screen state
  - QuestionHandler: audience questions, upvotes, moderation
  - PollHandler: draft builder and the launch/end/delete lifecycle
  - ResponseHandler: poll submissions and the advisory duplicate check
  - ResultsHandler: tallies as JSON and as an xlsx workbook
  - DisplayHandler: what the presentation screen shows

	pollHandler := handlers.NewPollHandler(st, lifecycle.NewManager(st, hub))

# Sessions

Organizer requests carry the event's admin code in X-Admin-Code. The
handler loads the event that owns the target (the question's or poll's
event for item routes) and builds an auth.Session from it; a wrong or
missing code is 401.

Audience submissions identify themselves with X-Respondent-ID, a UUID the
client keeps. A missing id is minted and echoed back in the same header.
Respondent ids are not verified, so GET /polls/{id}/my-response is only
advisory.

# Errors

Store and service sentinels map to statuses in one place:

	store.ErrNotFound              404
	store.ErrConflict              409
	lifecycle.ErrInvalidTransition 409
	display.ErrInvalidDirective    400
	auth.ErrInvalidAdminCode       401

Anything else is logged with zap and reported as a 500 with a generic
message.

# Event Rules

Questions and poll responses are only accepted while the event is
active. Ending an event stops its presentation screen engine; it restarts
on the next screen request.
*/
package handlers
