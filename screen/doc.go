// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package screen is the presentation screen engine.

One Screen runs per event. It listens on presentation-{eventId} for

	broadcasts:   presentation_update, poll_launched, poll_ended
	row changes:  presentation_display, polls, questions, poll_responses

and on any of them re-fetches the full screen content:

  - the event (name and access code for the join QR)
  - the current display directive (welcome when none is active)
  - the featured question, for question directives
  - the active poll with live tallies (or the pinned poll)
  - the referenced poll with final tallies, for poll_results

Fetched content goes through a transition.Sequencer. Content is the same
when the display type and its question, poll and message references
match; the same content updates in place (new votes, new tallies) and a
different directive animates.

The first fetch is shown directly. After that, State reports the
sequenced content together with the connection indicator and the time
of the last successful sync.

Registry starts screens on demand and stops them on Remove or Close.
*/
package screen
