// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/stage/logger"
	"github.com/danielhkuo/stage/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	testCases := []struct {
		name       string
		statusCode int
		body       string
		wantLevel  zapcore.Level
	}{
		{"OK", http.StatusOK, "ok", zapcore.InfoLevel},
		{"Created", http.StatusCreated, `{"id":"123"}`, zapcore.InfoLevel},
		{"NotFound", http.StatusNotFound, "not found", zapcore.InfoLevel},
		{"InternalError", http.StatusInternalServerError, "error", zapcore.WarnLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logs.TakeAll()
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/events", nil)
			w := httptest.NewRecorder()
			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}

			done := logs.FilterMessage("request completed").All()
			if len(done) != 1 {
				t.Fatalf("Expected one completion entry, got %d", len(done))
			}
			if done[0].Level != tc.wantLevel {
				t.Errorf("Expected level %v, got %v", tc.wantLevel, done[0].Level)
			}
			if got := done[0].ContextMap()["status"]; got != int64(tc.statusCode) {
				t.Errorf("Expected logged status %d, got %v", tc.statusCode, got)
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       any
		expected   string
	}{
		{"simple map", http.StatusOK, map[string]string{"message": "hello"}, `{"message":"hello"}`},
		{"upvote", http.StatusOK, models.UpvoteResponse{Votes: 3}, `{"votes":3}`},
		{"error", http.StatusBadRequest, models.ErrorResponse{Error: "Bad Request", Message: "missing field"}, `{"error":"Bad Request","message":"missing field"}`},
		{"array", http.StatusOK, []string{"a", "b"}, `["a","b"]`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", ct)
			}
			if body := strings.TrimSpace(w.Body.String()); body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestErrorResponse(t *testing.T) {
	testCases := []struct {
		statusCode    int
		message       string
		expectedError string
	}{
		{http.StatusBadRequest, "content is required", "Bad Request"},
		{http.StatusUnauthorized, "invalid admin code", "Unauthorized"},
		{http.StatusNotFound, "event not found", "Not Found"},
		{http.StatusConflict, "poll is not a draft", "Conflict"},
	}

	for _, tc := range testCases {
		t.Run(tc.expectedError, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorResponse(w, tc.statusCode, tc.message)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error != tc.expectedError || resp.Message != tc.message {
				t.Errorf("Unexpected error response %+v", resp)
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		wantErr        bool
		wantValidation bool
		wantMessage    string
	}{
		{"valid", `{"content":"What's next?","author_name":"Ana"}`, false, false, ""},
		{"extra fields ignored", `{"content":"Hi","unknown":1}`, false, false, ""},
		{"invalid JSON", `{invalid json}`, true, false, ""},
		{"empty body", ``, true, false, ""},
		{"missing content", `{"author_name":"Ana"}`, true, true, "Content is required"},
		{"content too long", `{"content":"` + strings.Repeat("x", 1001) + `"}`, true, true, "Content must be at most 1000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var parsed models.SubmitQuestionRequest
			err := ParseJSONBody(req, &parsed)

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error")
			}
			if errors.Is(err, ErrValidation) != tt.wantValidation {
				t.Errorf("errors.Is(ErrValidation) = %v, want %v (%v)", !tt.wantValidation, tt.wantValidation, err)
			}
			if tt.wantMessage != "" && !strings.Contains(err.Error(), tt.wantMessage) {
				t.Errorf("Expected message containing %q, got %q", tt.wantMessage, err.Error())
			}
		})
	}
}

func TestParseJSONBody_NestedValidation(t *testing.T) {
	body := `{"title":"Pulse","questions":[{"question_text":"Q","question_type":"ranking"}]}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))

	var parsed models.CreatePollRequest
	err := ParseJSONBody(req, &parsed)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Questions[0].Type must be one of") {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("handled"))
	})
	h := CORS(next)

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/events", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusOK || w.Body.String() != "" {
			t.Errorf("Expected empty 200, got %d %q", w.Code, w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected origin to be reflected")
		}
		allowed := w.Header().Get("Access-Control-Allow-Headers")
		for _, hdr := range []string{"Content-Type", HeaderAdminCode, HeaderRespondentID} {
			if !strings.Contains(allowed, hdr) {
				t.Errorf("Expected %s in allowed headers", hdr)
			}
		}
	})

	t.Run("no origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/events", nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected wildcard origin")
		}
		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{"forwarded chain", "203.0.113.1, 10.0.0.1", "", "10.0.0.2:1234", "203.0.113.1"},
		{"single forwarded", "203.0.113.9", "", "10.0.0.2:1234", "203.0.113.9"},
		{"real ip", "", "198.51.100.7", "10.0.0.2:1234", "198.51.100.7"},
		{"remote addr", "", "", "192.0.2.4:5678", "192.0.2.4"},
		{"ipv6 remote", "", "", "[::1]:5678", "::1"},
		{"no port", "", "", "192.0.2.4", "192.0.2.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
