// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for Stage.

# Domain Types

  - Event: name, access code (audience), admin code (never serialized), status
  - Question: audience question with votes and moderation flags
  - Poll, PollQuestion, PollOption, PollDetail: poll and its ordered builder content
  - PollResponse: one answer row (option reference or free text)
  - Display: a presentation_display row carrying a Directive

# Display Directives

Directive is a closed set of variants keyed by display type:

	Welcome{}                  welcome
	QRCode{}                   qr_code
	ShowQuestion{QuestionID}   question
	CustomMessage{Text}        custom_message
	ShowActivePoll{PollID}     active_poll (PollID optional)
	ShowPollResults{PollID}    poll_results

Display marshals to the flat wire shape (display_type, question_id, poll_id,
custom_message) so broadcast payloads and JSON responses match what browser
clients expect.

# Result Types

  - OptionTally: option text, raw count, rounded percentage
  - QuestionResult: per-question tallies or free-text answers
  - PollResults: all questions of a poll plus distinct respondents

# Constants

Poll status values:

	StatusDraft  = "draft"
	StatusActive = "active"
	StatusEnded  = "ended"

Event status values:

	EventActive = "active"
	EventPaused = "paused"
	EventEnded  = "ended"

Question types:

	SingleChoice   = "single_choice"
	MultipleChoice = "multiple_choice"
	TextAnswer     = "text"
*/
package models
