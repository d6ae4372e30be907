// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

// Broadcast event names
const (
	EventPollLaunched       = "poll_launched"
	EventPollEnded          = "poll_ended"
	EventPresentationUpdate = "presentation_update"
)

// PresentationChannel is watched by the presentation screen
func PresentationChannel(eventID string) string {
	return "presentation-" + eventID
}

// AudienceChannel is watched by audience views
func AudienceChannel(eventID string) string {
	return "event-" + eventID
}

// AdminChannel is watched by the moderation panel
func AdminChannel(eventID string) string {
	return "admin-" + eventID
}
