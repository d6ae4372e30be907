// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type DisplayType string

const (
	DisplayWelcome       DisplayType = "welcome"
	DisplayQRCode        DisplayType = "qr_code"
	DisplayQuestion      DisplayType = "question"
	DisplayCustomMessage DisplayType = "custom_message"
	DisplayActivePoll    DisplayType = "active_poll"
	DisplayPollResults   DisplayType = "poll_results"
)

var ErrInvalidDirective = errors.New("invalid display directive")

// Directive is what the presentation screen should render. Each variant
// carries only the reference it needs. All variants are comparable, so two
// directives show the same content exactly when they are ==.
type Directive interface {
	DisplayType() DisplayType
	directive()
}

type Welcome struct{}

type QRCode struct{}

type ShowQuestion struct {
	QuestionID string
}

type CustomMessage struct {
	Text string
}

// ShowActivePoll optionally pins a poll; empty PollID means whichever poll
// is active for the event.
type ShowActivePoll struct {
	PollID string
}

type ShowPollResults struct {
	PollID string
}

func (Welcome) DisplayType() DisplayType         { return DisplayWelcome }
func (QRCode) DisplayType() DisplayType          { return DisplayQRCode }
func (ShowQuestion) DisplayType() DisplayType    { return DisplayQuestion }
func (CustomMessage) DisplayType() DisplayType   { return DisplayCustomMessage }
func (ShowActivePoll) DisplayType() DisplayType  { return DisplayActivePoll }
func (ShowPollResults) DisplayType() DisplayType { return DisplayPollResults }

func (Welcome) directive()         {}
func (QRCode) directive()          {}
func (ShowQuestion) directive()    {}
func (CustomMessage) directive()   {}
func (ShowActivePoll) directive()  {}
func (ShowPollResults) directive() {}

// DirectiveFromFields builds a directive from the flat storage/wire shape,
// ignoring references that don't belong to the given type.
func DirectiveFromFields(t DisplayType, questionID, pollID, message *string) (Directive, error) {
	switch t {
	case DisplayWelcome:
		return Welcome{}, nil
	case DisplayQRCode:
		return QRCode{}, nil
	case DisplayQuestion:
		if deref(questionID) == "" {
			return nil, fmt.Errorf("%w: question display requires question_id", ErrInvalidDirective)
		}
		return ShowQuestion{QuestionID: *questionID}, nil
	case DisplayCustomMessage:
		if strings.TrimSpace(deref(message)) == "" {
			return nil, fmt.Errorf("%w: custom_message display requires text", ErrInvalidDirective)
		}
		return CustomMessage{Text: *message}, nil
	case DisplayActivePoll:
		return ShowActivePoll{PollID: deref(pollID)}, nil
	case DisplayPollResults:
		if deref(pollID) == "" {
			return nil, fmt.Errorf("%w: poll_results display requires poll_id", ErrInvalidDirective)
		}
		return ShowPollResults{PollID: *pollID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown display_type %q", ErrInvalidDirective, t)
	}
}

// DirectiveFields flattens a directive back to its nullable references.
func DirectiveFields(d Directive) (questionID, pollID, message *string) {
	switch v := d.(type) {
	case ShowQuestion:
		questionID = &v.QuestionID
	case CustomMessage:
		message = &v.Text
	case ShowActivePoll:
		if v.PollID != "" {
			pollID = &v.PollID
		}
	case ShowPollResults:
		pollID = &v.PollID
	}
	return questionID, pollID, message
}

// Display is a presentation_display row. A zero ID means the synthesized
// welcome default used when an event has no active row.
type Display struct {
	ID        string
	EventID   string
	Directive Directive
	IsActive  bool
	CreatedAt time.Time
}

// DefaultDisplay is what a screen shows before any directive exists
func DefaultDisplay(eventID string) Display {
	return Display{EventID: eventID, Directive: Welcome{}}
}

// Type returns the display type, treating a missing directive as welcome
func (d Display) Type() DisplayType {
	if d.Directive == nil {
		return DisplayWelcome
	}
	return d.Directive.DisplayType()
}

type displayJSON struct {
	ID            string      `json:"id,omitempty"`
	EventID       string      `json:"event_id"`
	DisplayType   DisplayType `json:"display_type"`
	QuestionID    *string     `json:"question_id"`
	PollID        *string     `json:"poll_id"`
	CustomMessage *string     `json:"custom_message"`
	IsActive      bool        `json:"is_active"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
}

func (d Display) MarshalJSON() ([]byte, error) {
	dir := d.Directive
	if dir == nil {
		dir = Welcome{}
	}
	q, p, m := DirectiveFields(dir)
	out := displayJSON{
		ID:            d.ID,
		EventID:       d.EventID,
		DisplayType:   dir.DisplayType(),
		QuestionID:    q,
		PollID:        p,
		CustomMessage: m,
		IsActive:      d.IsActive,
	}
	if !d.CreatedAt.IsZero() {
		out.CreatedAt = &d.CreatedAt
	}
	return json.Marshal(out)
}

func (d *Display) UnmarshalJSON(data []byte) error {
	var in displayJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	dir, err := DirectiveFromFields(in.DisplayType, in.QuestionID, in.PollID, in.CustomMessage)
	if err != nil {
		return err
	}
	*d = Display{
		ID:        in.ID,
		EventID:   in.EventID,
		Directive: dir,
		IsActive:  in.IsActive,
	}
	if in.CreatedAt != nil {
		d.CreatedAt = *in.CreatedAt
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
