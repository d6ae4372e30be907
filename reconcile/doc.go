// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package reconcile keeps a client's view of server state current despite
unreliable push delivery.

# Model

Three producers push "reconcile" tokens into a one-slot queue:

  - the realtime feed (any broadcast or row change)
  - the fallback ticker
  - Trigger, for manual refreshes

A single consumer drains the queue, waits a short debounce window, then
runs Fetch and hands the result to Apply. Fetch always asks what is true
now; signal payloads are never applied as deltas, so duplicate or
reordered signals are harmless.

# Stale fetches

Every fetch takes a ticket when it starts. A result is applied only if
its ticket is newer than the last applied one, so a slow fetch can never
overwrite a newer result.

# Fallback

If the feed is not confirmed subscribed after Grace (5s), the reconciler
re-fetches every Fallback interval (10s) until it is. Losing the
subscription later restarts the grace period.

# Connection indicator

	connecting              feed opened, not yet confirmed
	connected               feed subscribed
	reconnecting            feed was up and dropped
	no-realtime-available   no feed, feed closed, or never confirmed within Grace

# Teardown

Stop sets a closing flag, cancels timers and closes the feed. Callbacks
that fire during teardown see the flag and do nothing.
*/
package reconcile
