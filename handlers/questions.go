// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/store"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type QuestionHandler struct {
	store *store.Store
	now   func() time.Time
}

func NewQuestionHandler(st *store.Store) *QuestionHandler {
	return &QuestionHandler{store: st, now: time.Now}
}

// ListQuestions handles GET /events/{id}/questions.
// ?view=admin returns moderation order (featured first).
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := h.store.GetEvent(r.Context(), eventID); err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}

	order := store.OrderAudience
	if r.URL.Query().Get("view") == "admin" {
		order = store.OrderModeration
	}

	questions, err := h.store.ListQuestions(r.Context(), eventID, order)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load questions")
		return
	}

	now := h.now()
	for i := range questions {
		questions[i].AskedAgo = humanize.RelTime(questions[i].CreatedAt, now, "ago", "from now")
	}

	middleware.JSONResponse(w, http.StatusOK, questions)
}

// SubmitQuestion handles POST /events/{id}/questions
func (h *QuestionHandler) SubmitQuestion(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")

	var req models.SubmitQuestionRequest
	if !parseBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	event, err := h.store.GetEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}
	if event.Status != models.EventActive {
		middleware.ErrorResponse(w, http.StatusConflict, "Event is not accepting questions")
		return
	}

	q, err := h.store.InsertQuestion(r.Context(), eventID, req.Content, req.AuthorName)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to submit question")
		return
	}

	logger.Info("question submitted",
		zap.String("event_id", eventID),
		zap.String("question_id", q.ID))

	middleware.JSONResponse(w, http.StatusCreated, q)
}

// Upvote handles POST /questions/{id}/upvote
func (h *QuestionHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	votes, err := h.store.UpvoteQuestion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Question not found", "Failed to upvote question")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.UpvoteResponse{Votes: votes})
}

// SetAnswered handles POST /questions/{id}/answered
func (h *QuestionHandler) SetAnswered(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "answered", h.store.SetQuestionAnswered)
}

// SetFeatured handles POST /questions/{id}/featured
func (h *QuestionHandler) SetFeatured(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, "featured", h.store.SetQuestionFeatured)
}

func (h *QuestionHandler) setFlag(w http.ResponseWriter, r *http.Request, flag string, set func(context.Context, string, bool) (models.Question, error)) {
	questionID := r.PathValue("id")
	q, ok := h.moderate(w, r, questionID)
	if !ok {
		return
	}

	var req models.SetFlagRequest
	if !parseBody(w, r, &req) {
		return
	}

	q, err := set(r.Context(), questionID, *req.Value)
	if err != nil {
		writeError(w, err, "Question not found", "Failed to update question")
		return
	}

	logger.Info("question moderated",
		zap.String("event_id", q.EventID),
		zap.String("question_id", questionID),
		zap.String("flag", flag),
		zap.Bool("value", *req.Value))

	middleware.JSONResponse(w, http.StatusOK, q)
}

// DeleteQuestion handles DELETE /questions/{id}
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	questionID := r.PathValue("id")
	q, ok := h.moderate(w, r, questionID)
	if !ok {
		return
	}

	if err := h.store.DeleteQuestion(r.Context(), questionID); err != nil {
		writeError(w, err, "Question not found", "Failed to delete question")
		return
	}

	logger.Info("question deleted",
		zap.String("event_id", q.EventID),
		zap.String("question_id", questionID))

	w.WriteHeader(http.StatusNoContent)
}

// moderate loads the question and checks the organizer code of its event
func (h *QuestionHandler) moderate(w http.ResponseWriter, r *http.Request, questionID string) (models.Question, bool) {
	q, err := h.store.GetQuestion(r.Context(), questionID)
	if err != nil {
		writeError(w, err, "Question not found", "Failed to load question")
		return models.Question{}, false
	}
	if _, _, ok := organizer(w, r, h.store, q.EventID); !ok {
		return models.Question{}, false
	}
	return q, true
}
