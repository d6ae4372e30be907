// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/danielhkuo/stage/export"
	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/results"
	"github.com/danielhkuo/stage/store"
	"go.uber.org/zap"
)

type ResultsHandler struct {
	store *store.Store
	now   func() time.Time
}

func NewResultsHandler(st *store.Store) *ResultsHandler {
	return &ResultsHandler{store: st, now: time.Now}
}

func (h *ResultsHandler) tally(r *http.Request, pollID string) (models.PollDetail, models.PollResults, error) {
	poll, err := h.store.GetPollDetail(r.Context(), pollID)
	if err != nil {
		return models.PollDetail{}, models.PollResults{}, err
	}
	responses, err := h.store.ListResponses(r.Context(), pollID)
	if err != nil {
		return models.PollDetail{}, models.PollResults{}, err
	}
	return poll, results.Tally(poll, responses), nil
}

// GetResults handles GET /polls/{id}/results for polls in any state
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	_, res, err := h.tally(r, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to load results")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, res)
}

// ExportResults handles GET /polls/{id}/results.xlsx
func (h *ResultsHandler) ExportResults(w http.ResponseWriter, r *http.Request) {
	pollID := r.PathValue("id")
	poll, err := h.store.GetPoll(r.Context(), pollID)
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to load poll")
		return
	}
	if _, _, ok := organizer(w, r, h.store, poll.EventID); !ok {
		return
	}

	_, res, err := h.tally(r, pollID)
	if err != nil {
		writeError(w, err, "Poll not found", "Failed to load results")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteResultsXLSX(&buf, res); err != nil {
		logger.Error("failed to build results workbook", zap.String("poll_id", pollID), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export results")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(res.Title, h.now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
