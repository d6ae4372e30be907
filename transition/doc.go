// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package transition sequences visible content swaps.

A Sequencer holds the content currently shown. When new content arrives:

  - same content (per the caller's comparison): replaced in place, no
    animation, Offer returns false
  - different content: Transitioning is set, the new content waits for
    the exit delay (200ms), then becomes Current and Key increments; after
    the settle delay (50ms) Transitioning clears

A different offer during the exit delay replaces the waiting content and
restarts the delay, so only the newest content is swapped in. Repeated
re-fetches that return identical content never animate.

	seq := transition.New(initial, func(a, b Content) bool { return a.Directive == b.Directive })
	animated := seq.Offer(fetched)
*/
package transition
