// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle runs polls through draft -> active -> ended.

# Launch

Only a draft poll can be launched. Launching ends every other active poll
of the same event and activates the target. The manager tries, in order:

 1. the activate_poll stored procedure (one statement)
 2. a transaction, when the store implements Swapper
 3. EndActivePolls then MarkPollActive, logged as degraded

The database rejects a second active poll in every path.

# End

Only an active poll can be ended; ended_at is set. Ending twice returns
ErrInvalidTransition.

# Delete

Allowed from any state. Deleting the poll currently shown as poll_results
logs a warning and the presentation screen falls back to its default.

# Notifications

After a successful launch or end the manager broadcasts poll_launched or
poll_ended with {poll_id, event_id, timestamp} to presentation-{eventId}
and event-{eventId}. Broadcast failures are logged and never returned.
*/
package lifecycle
