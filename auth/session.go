// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import "github.com/danielhkuo/stage/models"

type Role string

const (
	RoleAudience  Role = "audience"
	RoleOrganizer Role = "organizer"
)

// Session is the explicit "who is acting" value handed to handlers and
// services. It is created per request and discarded afterwards.
type Session struct {
	EventID      string
	Role         Role
	RespondentID string
}

// OrganizerSession grants organizer rights when code matches the event's
// admin code.
func OrganizerSession(event models.Event, code string) (Session, error) {
	if err := ValidateAdminCode(event.AdminCode, code); err != nil {
		return Session{}, err
	}
	return Session{EventID: event.ID, Role: RoleOrganizer}, nil
}

// AudienceSession identifies an anonymous attendee. A missing respondent id
// is replaced with a fresh one that the client should persist.
func AudienceSession(eventID, respondentID string) (Session, error) {
	id, err := ParseRespondentID(respondentID)
	if err != nil {
		return Session{}, err
	}
	if id == "" {
		id = NewRespondentID()
	}
	return Session{EventID: eventID, Role: RoleAudience, RespondentID: id}, nil
}

func (s Session) IsOrganizer() bool {
	return s.Role == RoleOrganizer
}
