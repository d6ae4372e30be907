// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/store"
	"go.uber.org/zap"
)

type ResponseHandler struct {
	store *store.Store
}

func NewResponseHandler(st *store.Store) *ResponseHandler {
	return &ResponseHandler{store: st}
}

// buildResponses checks a submission against the poll and flattens it into
// one row per chosen option or text answer
func buildResponses(poll models.PollDetail, answers []models.AnswerInput) ([]models.PollResponse, error) {
	byID := make(map[string]models.PollQuestion, len(poll.Questions))
	for _, q := range poll.Questions {
		byID[q.ID] = q
	}

	answered := make(map[string]bool, len(answers))
	var rows []models.PollResponse

	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("question %s is not part of this poll", a.QuestionID)
		}
		if answered[q.ID] {
			return nil, fmt.Errorf("question %s answered more than once", q.ID)
		}

		if !q.Type.IsChoice() {
			text := strings.TrimSpace(a.Text)
			if text == "" {
				continue
			}
			answered[q.ID] = true
			rows = append(rows, models.PollResponse{QuestionID: q.ID, Text: &text})
			continue
		}

		if len(a.OptionIDs) == 0 {
			continue
		}
		if q.Type == models.SingleChoice && len(a.OptionIDs) > 1 {
			return nil, fmt.Errorf("question %s accepts a single option", q.ID)
		}

		valid := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			valid[o.ID] = true
		}
		seen := make(map[string]bool, len(a.OptionIDs))
		for _, id := range a.OptionIDs {
			if !valid[id] {
				return nil, fmt.Errorf("option %s does not belong to question %s", id, q.ID)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			optionID := id
			rows = append(rows, models.PollResponse{QuestionID: q.ID, OptionID: &optionID})
		}
		answered[q.ID] = true
	}

	for _, q := range poll.Questions {
		if q.IsRequired && !answered[q.ID] {
			return nil, fmt.Errorf("question %q is required", q.Text)
		}
	}
	if len(rows) == 0 {
		return nil, errors.New("at least one answer is required")
	}
	return rows, nil
}

// SubmitResponses handles POST /polls/{id}/responses
func (h *ResponseHandler) SubmitResponses(w http.ResponseWriter, r *http.Request) {
	poll, err := h.store.GetPollDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to load poll")
		return
	}
	if poll.Status != models.StatusActive {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not accepting responses")
		return
	}

	event, err := h.store.GetEvent(r.Context(), poll.EventID)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}
	if event.Status != models.EventActive {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not accepting responses")
		return
	}

	session, ok := audience(w, r, poll.EventID)
	if !ok {
		return
	}

	var req models.SubmitResponsesRequest
	if !parseBody(w, r, &req) {
		return
	}

	rows, err := buildResponses(poll, req.Answers)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := h.store.InsertResponses(r.Context(), poll.ID, session.RespondentID, rows)
	if errors.Is(err, store.ErrConflict) {
		middleware.ErrorResponse(w, http.StatusConflict, "Poll is not accepting responses")
		return
	}
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to submit responses")
		return
	}

	logger.Info("poll responses submitted",
		zap.String("event_id", poll.EventID),
		zap.String("poll_id", poll.ID),
		zap.Int("rows", len(saved)))

	w.Header().Set(middleware.HeaderRespondentID, session.RespondentID)
	middleware.JSONResponse(w, http.StatusCreated, models.SubmitResponsesResponse{
		RespondentID: session.RespondentID,
		Count:        len(saved),
	})
}

// MyResponse handles GET /polls/{id}/my-response. Respondent ids are
// client generated so the answer is advisory.
func (h *ResponseHandler) MyResponse(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	if _, err := h.store.GetPoll(r.Context(), pollID); err != nil {
		writeError(w, err, "Poll not found", "Failed to load poll")
		return
	}

	respondentID, err := auth.ParseRespondentID(r.Header.Get(middleware.HeaderRespondentID))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid respondent id")
		return
	}
	if respondentID == "" {
		middleware.JSONResponse(w, http.StatusOK, models.MyResponseResponse{Responded: false})
		return
	}

	responded, err := h.store.HasResponded(r.Context(), pollID, respondentID)
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to check responses")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MyResponseResponse{Responded: responded})
}
