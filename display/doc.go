// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package display holds what the presentation screen should show.

An event has at most one active directive:

	welcome | qr_code | question{question_id} | custom_message{text}
	active_poll{poll_id?} | poll_results{poll_id}

Set replaces the active directive. It swaps rows in one transaction when
the store supports it, otherwise deactivates then inserts; a reader
between those steps sees no active row and gets the welcome default from
Current. Either way the database refuses a second active row.

After a successful Set the service broadcasts presentation_update to
presentation-{eventId} only, with event_id, display_type, question_id,
custom_message, poll_id and timestamp. The payload is a hint; screens
re-fetch.
*/
package display
