// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package realtime carries change hints between organizer actions and the
clients watching an event.

# Channels

Every event has three logical channels:

	presentation-{eventId}   presentation screen
	event-{eventId}          audience views
	admin-{eventId}          moderation panel

Poll launch and end broadcast poll_launched / poll_ended to both the
presentation and audience channels. Display changes broadcast
presentation_update to the presentation channel only.

# Signals

A subscription receives two kinds of signal:

  - broadcasts: ephemeral, tagged by event name, payload advisory
  - row changes: emitted by the store after each committed write and
    routed by table and event id

Both mean "something changed, re-fetch". Neither carries state a
consumer should apply as a delta. Delivery is best effort: a full
subscriber buffer drops signals.

# Status

Each subscription exposes a status stream (connecting, subscribed,
closed, error). Only the latest state is kept.

# Transports

Hub.ServeWS bridges a channel to a WebSocket client as JSON frames:

	GET /realtime/presentation-{id}?events=presentation_update&tables=polls,presentation_display&event_id={id}

RedisRelay shares broadcasts and row changes between instances through a
single Redis pub/sub channel. While the relay is disconnected, local
subscriptions report StatusError.
*/
package realtime
