// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielhkuo/stage/display"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/store"
)

var errForeignReference = errors.New("referenced item belongs to another event")

type DisplayHandler struct {
	store    *store.Store
	displays *display.Service
}

func NewDisplayHandler(st *store.Store, displays *display.Service) *DisplayHandler {
	return &DisplayHandler{store: st, displays: displays}
}

// SetDisplay handles POST /events/{id}/display
func (h *DisplayHandler) SetDisplay(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, _, ok := organizer(w, r, h.store, eventID); !ok {
		return
	}

	var req models.SetDisplayRequest
	if !parseBody(w, r, &req) {
		return
	}

	dir, err := models.DirectiveFromFields(req.DisplayType, req.QuestionID, req.PollID, req.CustomMessage)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.checkReferences(r.Context(), eventID, dir); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, errForeignReference) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Display references an unknown question or poll")
			return
		}
		writeError(w, err, "Event not found", "Failed to update display")
		return
	}

	d, err := h.displays.Set(r.Context(), eventID, dir)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to update display")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, d)
}

// checkReferences makes sure a directive only points at items of its event
func (h *DisplayHandler) checkReferences(ctx context.Context, eventID string, dir models.Directive) error {
	questionID, pollID, _ := models.DirectiveFields(dir)

	if questionID != nil {
		q, err := h.store.GetQuestion(ctx, *questionID)
		if err != nil {
			return err
		}
		if q.EventID != eventID {
			return errForeignReference
		}
	}
	if pollID != nil {
		p, err := h.store.GetPoll(ctx, *pollID)
		if err != nil {
			return err
		}
		if p.EventID != eventID {
			return errForeignReference
		}
	}
	return nil
}

// GetDisplay handles GET /events/{id}/display
func (h *DisplayHandler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if _, err := h.store.GetEvent(r.Context(), eventID); err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}

	d, err := h.displays.Current(r.Context(), eventID)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load display")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, d)
}
