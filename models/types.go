// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Event status constants
const (
	EventActive = "active"
	EventPaused = "paused"
	EventEnded  = "ended"
)

// Poll status constants
const (
	StatusDraft  = "draft"
	StatusActive = "active"
	StatusEnded  = "ended"
)

// DefaultAuthorName is used for questions submitted without a name
const DefaultAuthorName = "Anonymous"

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	TextAnswer     QuestionType = "text"
)

// IsChoice reports whether answers reference options
func (t QuestionType) IsChoice() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Domain types

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AccessCode  string    `json:"access_code"`
	AdminCode   string    `json:"-"` // Never expose in JSON
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Question struct {
	ID         string    `json:"id"`
	EventID    string    `json:"event_id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	Votes      int       `json:"votes"`
	IsAnswered bool      `json:"is_answered"`
	IsFeatured bool      `json:"is_featured"`
	CreatedAt  time.Time `json:"created_at"`
	AskedAgo   string    `json:"asked_ago,omitempty"`
}

type Poll struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type PollOption struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"option_text"`
	Position   int    `json:"position"`
}

type PollQuestion struct {
	ID         string       `json:"id"`
	PollID     string       `json:"poll_id"`
	Text       string       `json:"question_text"`
	Type       QuestionType `json:"question_type"`
	IsRequired bool         `json:"is_required"`
	Position   int          `json:"position"`
	Options    []PollOption `json:"options"`
}

// PollDetail is a poll with its ordered questions and options
type PollDetail struct {
	Poll
	Questions []PollQuestion `json:"questions"`
}

// PollResponse is one answer row. Choice answers carry OptionID, text
// answers carry Text. RespondentID is client generated and advisory only.
type PollResponse struct {
	ID           string    `json:"id"`
	PollID       string    `json:"poll_id"`
	QuestionID   string    `json:"question_id"`
	OptionID     *string   `json:"option_id,omitempty"`
	Text         *string   `json:"response_text,omitempty"`
	RespondentID string    `json:"respondent_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Result types

type OptionTally struct {
	OptionID   string `json:"option_id"`
	Text       string `json:"text"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type QuestionResult struct {
	QuestionID string        `json:"question_id"`
	Question   string        `json:"question"`
	Type       QuestionType  `json:"type"`
	Options    []OptionTally `json:"options,omitempty"`
	Answers    []string      `json:"answers,omitempty"`
	Total      int           `json:"total"`
}

type PollResults struct {
	PollID      string           `json:"poll_id"`
	Title       string           `json:"title"`
	Questions   []QuestionResult `json:"questions"`
	Respondents int              `json:"respondents"`
}

// Request types

type CreateEventRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	AccessCode  string `json:"access_code" validate:"omitempty,alphanum,min=4,max=12"`
}

type UpdateEventStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused ended"`
}

type SubmitQuestionRequest struct {
	Content    string `json:"content" validate:"required,max=1000"`
	AuthorName string `json:"author_name" validate:"max=100"`
}

type SetFlagRequest struct {
	Value *bool `json:"value" validate:"required"`
}

type PollQuestionInput struct {
	Text       string       `json:"question_text" validate:"required,max=500"`
	Type       QuestionType `json:"question_type" validate:"required,oneof=single_choice multiple_choice text"`
	IsRequired bool         `json:"is_required"`
	Options    []string     `json:"options" validate:"dive,required,max=200"`
}

type CreatePollRequest struct {
	Title     string              `json:"title" validate:"required,max=200"`
	Questions []PollQuestionInput `json:"questions" validate:"required,min=1,dive"`
}

type AnswerInput struct {
	QuestionID string   `json:"question_id" validate:"required"`
	OptionIDs  []string `json:"option_ids"`
	Text       string   `json:"response_text" validate:"max=2000"`
}

type SubmitResponsesRequest struct {
	Answers []AnswerInput `json:"answers" validate:"required,min=1,dive"`
}

type SetDisplayRequest struct {
	DisplayType   DisplayType `json:"display_type" validate:"required"`
	QuestionID    *string     `json:"question_id"`
	PollID        *string     `json:"poll_id"`
	CustomMessage *string     `json:"custom_message"`
}

// Response types

type CreateEventResponse struct {
	Event     Event  `json:"event"`
	AdminCode string `json:"admin_code"`
}

type SubmitResponsesResponse struct {
	RespondentID string `json:"respondent_id"`
	Count        int    `json:"count"`
}

type MyResponseResponse struct {
	Responded bool `json:"responded"`
}

type UpvoteResponse struct {
	Votes int `json:"votes"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
