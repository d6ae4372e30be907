// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/display"
	"github.com/danielhkuo/stage/lifecycle"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/screen"
	"github.com/danielhkuo/stage/store"
	"go.uber.org/zap"
)

// writeError maps domain errors to HTTP statuses. Anything unrecognized is
// logged and reported as a generic failure.
func writeError(w http.ResponseWriter, err error, notFound, failure string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, notFound)
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrConflict):
		middleware.ErrorResponse(w, http.StatusConflict, failure+": conflicting state")
	case errors.Is(err, display.ErrInvalidDirective):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidAdminCode):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin code")
	case errors.Is(err, screen.ErrStopped):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, failure+": screen stopped")
	default:
		logger.Error(failure, zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, failure)
	}
}

// parseBody decodes and validates a JSON body, writing a 400 on failure
func parseBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := middleware.ParseJSONBody(r, v)
	if err == nil {
		return true
	}
	if errors.Is(err, middleware.ErrValidation) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return false
	}
	middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
	return false
}

// resolveEvent looks an event up by id, or by access code when ref is not
// a UUID
func resolveEvent(ctx context.Context, st *store.Store, ref string) (models.Event, error) {
	if auth.IsUUID(ref) {
		return st.GetEvent(ctx, ref)
	}
	return st.GetEventByAccessCode(ctx, ref)
}

// organizer loads the event and checks X-Admin-Code against it. On failure
// the response has been written and ok is false.
func organizer(w http.ResponseWriter, r *http.Request, st *store.Store, eventID string) (models.Event, auth.Session, bool) {
	event, err := st.GetEvent(r.Context(), eventID)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return models.Event{}, auth.Session{}, false
	}

	session, err := auth.OrganizerSession(event, r.Header.Get(middleware.HeaderAdminCode))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin code")
	case errors.Is(err, screen.ErrStopped):
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, failure+": screen stopped")
		return models.Event{}, auth.Session{}, false
	}
	return event, session, true
}

// audience builds the respondent session from X-Respondent-ID, minting a
// fresh id when the header is absent
func audience(w http.ResponseWriter, r *http.Request, eventID string) (auth.Session, bool) {
	session, err := auth.AudienceSession(eventID, r.Header.Get(middleware.HeaderRespondentID))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid respondent id")
		return auth.Session{}, false
	}
	return session, true
}
