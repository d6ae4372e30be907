// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/cliparse"
	"github.com/danielhkuo/stage/db"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/realtime"
)

// SetupTestDB opens a throw-away SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := "file:" + filepath.Join(t.TempDir(), "stage_test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	conn, dialect, err := db.Open("sqlite", url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, dialect); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     "sqlite",
		BaseURL:          "http://stage.test",
		GracePeriod:      50 * time.Millisecond,
		FallbackInterval: 100 * time.Millisecond,
	}
}

// CreateTestEvent inserts an event and returns its ID and codes.
// status should be "active", "paused", or "ended"
func CreateTestEvent(t *testing.T, conn *sql.DB, status string) (eventID, accessCode, adminCode string) {
	t.Helper()

	eventID = auth.NewID()
	accessCode, _ = auth.GenerateAccessCode()
	adminCode, _ = auth.GenerateAdminCode()

	_, err := conn.Exec(`
		INSERT INTO events (id, name, description, access_code, admin_code, status, created_at)
		VALUES (?, 'Test Event', 'A test event', ?, ?, ?, ?)
	`, eventID, accessCode, adminCode, status, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test event: %v", err)
	}

	return eventID, accessCode, adminCode
}

// CreateTestQuestion inserts an audience question and returns its ID
func CreateTestQuestion(t *testing.T, conn *sql.DB, eventID, content string, votes int) string {
	t.Helper()

	questionID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO questions (id, event_id, content, author_name, votes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, questionID, eventID, content, models.DefaultAuthorName, votes, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}

	return questionID
}

// CreateTestPoll inserts a poll and returns its ID.
// status should be "draft", "active", or "ended"
func CreateTestPoll(t *testing.T, conn *sql.DB, eventID, status string) string {
	t.Helper()

	pollID := auth.NewID()
	now := time.Now().UTC()

	var startedAt, endedAt *time.Time
	if status == models.StatusActive || status == models.StatusEnded {
		startedAt = &now
	}
	if status == models.StatusEnded {
		endedAt = &now
	}

	_, err := conn.Exec(`
		INSERT INTO polls (id, event_id, title, status, started_at, ended_at, created_at)
		VALUES (?, ?, 'Test Poll', ?, ?, ?, ?)
	`, pollID, eventID, status, startedAt, endedAt, now)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return pollID
}

// AddTestPollQuestion adds a question to a poll and returns its ID
func AddTestPollQuestion(t *testing.T, conn *sql.DB, pollID, text string, qtype models.QuestionType, position int) string {
	t.Helper()

	questionID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO poll_questions (id, poll_id, question_text, question_type, is_required, position)
		VALUES (?, ?, ?, ?, TRUE, ?)
	`, questionID, pollID, text, string(qtype), position)
	if err != nil {
		t.Fatalf("Failed to create test poll question: %v", err)
	}

	return questionID
}

// AddTestOption adds an option to a poll question and returns its ID
func AddTestOption(t *testing.T, conn *sql.DB, questionID, text string, position int) string {
	t.Helper()

	optionID := auth.NewID()
	_, err := conn.Exec(`
		INSERT INTO poll_options (id, question_id, option_text, position)
		VALUES (?, ?, ?, ?)
	`, optionID, questionID, text, position)
	if err != nil {
		t.Fatalf("Failed to create test option: %v", err)
	}

	return optionID
}

// AddTestResponse records one answer row. Pass an empty optionID for
// text answers.
func AddTestResponse(t *testing.T, conn *sql.DB, pollID, questionID, optionID, text, respondentID string) {
	t.Helper()

	var option, answer *string
	if optionID != "" {
		option = &optionID
	} else {
		answer = &text
	}

	_, err := conn.Exec(`
		INSERT INTO poll_responses (id, poll_id, question_id, option_id, response_text, respondent_id, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM poll_responses))
	`, auth.NewID(), pollID, questionID, option, answer, respondentID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test response: %v", err)
	}
}

// CountActive returns how many rows of table are active for an event.
// table must be "polls" or "presentation_display".
func CountActive(t *testing.T, conn *sql.DB, table, eventID string) int {
	t.Helper()

	query := `SELECT COUNT(*) FROM polls WHERE event_id = ? AND status = 'active'`
	if table == db.TableDisplay {
		query = `SELECT COUNT(*) FROM presentation_display WHERE event_id = ? AND is_active`
	}

	var n int
	if err := conn.QueryRow(query, eventID).Scan(&n); err != nil {
		t.Fatalf("Failed to count active rows: %v", err)
	}
	return n
}

// RecordingSink collects row changes
type RecordingSink struct {
	mu      sync.Mutex
	changes []realtime.Change
}

func (s *RecordingSink) NotifyChange(c realtime.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.changes = append(s.changes, c)
}

func (s *RecordingSink) Changes() []realtime.Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]realtime.Change(nil), s.changes...)
}

// Broadcast is one recorded broadcast call
type Broadcast struct {
	Channel string
	Event   string
	Payload any
}

// RecordingBroadcaster collects broadcasts. Err, when set, is returned
// from every call after recording it.
type RecordingBroadcaster struct {
	mu    sync.Mutex
	calls []Broadcast
	Err   error
}

func (b *RecordingBroadcaster) Broadcast(ctx context.Context, channel, event string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, Broadcast{Channel: channel, Event: event, Payload: payload})
	return b.Err
}

func (b *RecordingBroadcaster) Calls() []Broadcast {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Broadcast(nil), b.calls...)
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AdminHeaders returns the header map for organizer requests
func AdminHeaders(adminCode string) map[string]string {
	return map[string]string{"X-Admin-Code": adminCode}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
