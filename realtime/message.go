// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"encoding/json"
	"net/url"
	"slices"
	"strings"
)

// Row change operations
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change describes a committed row write
type Change struct {
	Table   string `json:"table"`
	Op      string `json:"op"`
	EventID string `json:"event_id"`
	RowID   string `json:"row_id,omitempty"`
}

// ChangeFilter matches changes on one table. An empty EventID matches
// every event.
type ChangeFilter struct {
	Table   string `json:"table"`
	EventID string `json:"event_id,omitempty"`
}

func (f ChangeFilter) Matches(c Change) bool {
	if f.Table != c.Table {
		return false
	}
	return f.EventID == "" || f.EventID == c.EventID
}

// Spec selects the signals a subscription receives. Nil Events receives
// every broadcast on the channel.
type Spec struct {
	Events  []string
	Changes []ChangeFilter
}

func (s Spec) wantsEvent(event string) bool {
	return s.Events == nil || slices.Contains(s.Events, event)
}

func (s Spec) wantsChange(c Change) bool {
	for _, f := range s.Changes {
		if f.Matches(c) {
			return true
		}
	}
	return false
}

// SpecFromQuery reads ?events=a,b&tables=x,y&event_id=id
func SpecFromQuery(q url.Values) Spec {
	var spec Spec
	if events := splitList(q.Get("events")); len(events) > 0 {
		spec.Events = events
	}
	eventID := q.Get("event_id")
	for _, table := range splitList(q.Get("tables")) {
		spec.Changes = append(spec.Changes, ChangeFilter{Table: table, EventID: eventID})
	}
	return spec
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Status is a subscription's connection state
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusSubscribed Status = "subscribed"
	StatusClosed     Status = "closed"
	StatusError      Status = "error"
)

// Message types
const (
	TypeBroadcast = "broadcast"
	TypeChange    = "change"
	TypeStatus    = "status"
)

// Message is one signal delivered to a subscription. It is also the JSON
// frame written to WebSocket clients.
type Message struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Change  *Change         `json:"change,omitempty"`
	Status  Status          `json:"status,omitempty"`
}
