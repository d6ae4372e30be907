// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/danielhkuo/stage/lifecycle"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/store"
	"go.uber.org/zap"
)

// MinChoiceOptions is the fewest options a choice question may have
const MinChoiceOptions = 2

type PollHandler struct {
	store     *store.Store
	lifecycle *lifecycle.Manager
}

func NewPollHandler(st *store.Store, lc *lifecycle.Manager) *PollHandler {
	return &PollHandler{store: st, lifecycle: lc}
}

// validatePollRequest trims the request in place and enforces the builder
// rules the struct tags can't express
func validatePollRequest(req *models.CreatePollRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return errors.New("title is required")
	}

	for i := range req.Questions {
		q := &req.Questions[i]
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			return fmt.Errorf("question %d: question_text is required", i+1)
		}
		if !q.Type.IsChoice() {
			q.Options = nil
			continue
		}

		opts := q.Options[:0]
		for _, o := range q.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		q.Options = opts
		if len(q.Options) < MinChoiceOptions {
			return fmt.Errorf("question %d: %s needs at least %d options", i+1, q.Type, MinChoiceOptions)
		}
	}
	return nil
}

// CreatePoll handles POST /events/{id}/polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, _, ok := organizer(w, r, h.store, eventID); !ok {
		return
	}

	var req models.CreatePollRequest
	if !parseBody(w, r, &req) {
		return
	}
	if err := validatePollRequest(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	poll, err := h.store.CreatePoll(r.Context(), eventID, req.Title, req.Questions)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to create poll")
		return
	}

	logger.Info("poll created",
		zap.String("event_id", eventID),
		zap.String("poll_id", poll.ID),
		zap.Int("questions", len(poll.Questions)))

	middleware.JSONResponse(w, http.StatusCreated, poll)
}

// ReplacePoll handles PUT /polls/{id}. Only drafts can be edited.
func (h *PollHandler) ReplacePoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.managePoll(w, r)
	if !ok {
		return
	}
	if poll.Status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Only draft polls can be edited")
		return
	}

	var req models.CreatePollRequest
	if !parseBody(w, r, &req) {
		return
	}
	if err := validatePollRequest(&req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.store.ReplaceDraft(r.Context(), poll.ID, req.Title, req.Questions)
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to update poll")
		return
	}

	logger.Info("poll draft replaced",
		zap.String("event_id", detail.EventID),
		zap.String("poll_id", detail.ID))

	middleware.JSONResponse(w, http.StatusOK, detail)
}

// ListPolls handles GET /events/{id}/polls, newest first
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := h.store.GetEvent(r.Context(), eventID); err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}

	polls, err := h.store.ListPolls(r.Context(), eventID)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load polls")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, polls)
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.store.GetPollDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to load poll")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, poll)
}

// LaunchPoll handles POST /polls/{id}/launch
func (h *PollHandler) LaunchPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.managePoll(w, r)
	if !ok {
		return
	}

	launched, err := h.lifecycle.Launch(r.Context(), poll.ID)
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to launch poll")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, launched)
}

// EndPoll handles POST /polls/{id}/end
func (h *PollHandler) EndPoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.managePoll(w, r)
	if !ok {
		return
	}

	ended, err := h.lifecycle.End(r.Context(), poll.ID)
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to end poll")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, ended)
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	poll, ok := h.managePoll(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.Delete(r.Context(), poll.ID); err != nil {
		writeError(w, err, "Poll not found", "Failed to delete poll")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// managePoll loads the poll and checks the organizer code of its event
func (h *PollHandler) managePoll(w http.ResponseWriter, r *http.Request) (models.Poll, bool) {
	poll, err := h.store.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to load poll")
		return models.Poll{}, false
	}
	if _, _, ok := organizer(w, r, h.store, poll.EventID); !ok {
		return models.Poll{}, false
	}
	return poll, true
}
