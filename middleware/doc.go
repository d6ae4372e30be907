// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start at Debug and completion (status, duration_ms) at Info,
or Warn for 5xx responses. The wrapped writer still supports hijacking so
WebSocket routes can be logged too.

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-Admin-Code, X-Respondent-ID.

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

ParseJSONBody decodes and then validates `validate` struct tags with
go-playground/validator:

	var req models.SubmitQuestionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		if errors.Is(err, middleware.ErrValidation) {
			middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Handles X-Forwarded-For and X-Real-IP before falling back to RemoteAddr.
*/
package middleware
