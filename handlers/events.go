// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/cliparse"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/screen"
	"github.com/danielhkuo/stage/store"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// codeAttempts bounds retries when a generated code is already taken
const codeAttempts = 5

// QRCodeSize is the edge length in pixels of the join QR code
const QRCodeSize = 512

type EventHandler struct {
	store    *store.Store
	registry *screen.Registry
	cfg      cliparse.Config
}

func NewEventHandler(st *store.Store, registry *screen.Registry, cfg cliparse.Config) *EventHandler {
	return &EventHandler{store: st, registry: registry, cfg: cfg}
}

// CreateEvent handles POST /events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEventRequest
	if !parseBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	custom := auth.NormalizeCode(req.AccessCode)

	var event models.Event
	var err error
	for attempt := 0; attempt < codeAttempts; attempt++ {
		ev := models.Event{Name: name, Description: strings.TrimSpace(req.Description), AccessCode: custom}
		if ev.AccessCode == "" {
			if ev.AccessCode, err = auth.GenerateAccessCode(); err != nil {
				break
			}
		}
		if ev.AdminCode, err = auth.GenerateAdminCode(); err != nil {
			break
		}

		event, err = h.store.CreateEvent(r.Context(), ev)
		if !errors.Is(err, store.ErrConflict) {
			break
		}
		if custom != "" {
			middleware.ErrorResponse(w, http.StatusConflict, "Access code already in use")
			return
		}
		logger.Debug("generated event code collided, retrying", zap.Int("attempt", attempt+1))
	}
	if err != nil {
		writeError(w, err, "Event not found", "Failed to create event")
		return
	}

	logger.Info("event created",
		zap.String("event_id", event.ID),
		zap.String("access_code", event.AccessCode))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateEventResponse{
		Event:     event,
		AdminCode: event.AdminCode,
	})
}

// GetEvent handles GET /events/{ref}, where ref is an event id or access code
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := resolveEvent(r.Context(), h.store, r.PathValue("ref"))
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, event)
}

// UpdateStatus handles POST /events/{id}/status
func (h *EventHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	event, _, ok := organizer(w, r, h.store, eventID)
	if !ok {
		return
	}

	var req models.UpdateEventStatusRequest
	if !parseBody(w, r, &req) {
		return
	}

	if err := h.store.UpdateEventStatus(r.Context(), eventID, req.Status); err != nil {
		writeError(w, err, "Event not found", "Failed to update event")
		return
	}
	event.Status = req.Status

	if req.Status == models.EventEnded && h.registry != nil {
		h.registry.Remove(eventID)
	}

	logger.Info("event status changed",
		zap.String("event_id", eventID),
		zap.String("status", req.Status))

	middleware.JSONResponse(w, http.StatusOK, event)
}

// JoinURL is the audience link encoded in the QR code
func (h *EventHandler) JoinURL(event models.Event) string {
	return strings.TrimRight(h.cfg.BaseURL, "/") + "/stage/event/" + event.AccessCode
}

// QRCode handles GET /events/{id}/qr.png
func (h *EventHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	event, err := resolveEvent(r.Context(), h.store, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}

	png, err := qrcode.Encode(h.JoinURL(event), qrcode.Medium, QRCodeSize)
	if err != nil {
		logger.Error("failed to encode QR code", zap.String("event_id", event.ID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to render QR code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Screen handles GET /events/{ref}/screen: the reconciled presentation
// state, starting the event's screen engine on first use
func (h *EventHandler) Screen(w http.ResponseWriter, r *http.Request) {
	event, err := resolveEvent(r.Context(), h.store, r.PathValue("ref"))
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load event")
		return
	}

	s, err := h.registry.Get(r.Context(), event.ID)
	if err != nil {
		writeError(w, err, "Event not found", "Failed to load presentation")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, s.State())
}
