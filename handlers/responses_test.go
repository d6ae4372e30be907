// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/danielhkuo/stage/auth"
	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/testutil"
)

func TestBuildResponses(t *testing.T) {
	poll := models.PollDetail{
		Questions: []models.PollQuestion{
			{ID: "single", Type: models.SingleChoice, IsRequired: true, Text: "Pick one",
				Options: []models.PollOption{{ID: "s1"}, {ID: "s2"}}},
			{ID: "multi", Type: models.MultipleChoice,
				Options: []models.PollOption{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}},
			{ID: "text", Type: models.TextAnswer},
		},
	}

	tests := []struct {
		name     string
		answers  []models.AnswerInput
		wantRows int
		wantErr  string
	}{
		{"required only", []models.AnswerInput{{QuestionID: "single", OptionIDs: []string{"s1"}}}, 1, ""},
		{"everything", []models.AnswerInput{
			{QuestionID: "single", OptionIDs: []string{"s2"}},
			{QuestionID: "multi", OptionIDs: []string{"m1", "m3"}},
			{QuestionID: "text", Text: " great "},
		}, 4, ""},
		{"duplicate option collapsed", []models.AnswerInput{
			{QuestionID: "single", OptionIDs: []string{"s1"}},
			{QuestionID: "multi", OptionIDs: []string{"m2", "m2"}},
		}, 2, ""},
		{"blank text skipped", []models.AnswerInput{
			{QuestionID: "single", OptionIDs: []string{"s1"}},
			{QuestionID: "text", Text: "   "},
		}, 1, ""},
		{"missing required", []models.AnswerInput{{QuestionID: "text", Text: "hi"}}, 0, `"Pick one" is required`},
		{"two options on single", []models.AnswerInput{{QuestionID: "single", OptionIDs: []string{"s1", "s2"}}}, 0, "accepts a single option"},
		{"foreign option", []models.AnswerInput{{QuestionID: "single", OptionIDs: []string{"m1"}}}, 0, "does not belong"},
		{"unknown question", []models.AnswerInput{{QuestionID: "nope", OptionIDs: []string{"s1"}}}, 0, "not part of this poll"},
		{"answered twice", []models.AnswerInput{
			{QuestionID: "single", OptionIDs: []string{"s1"}},
			{QuestionID: "single", OptionIDs: []string{"s2"}},
		}, 0, "more than once"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := buildResponses(poll, tt.answers)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rows) != tt.wantRows {
				t.Errorf("expected %d rows, got %d", tt.wantRows, len(rows))
			}
			for _, r := range rows {
				if r.Text != nil && *r.Text != strings.TrimSpace(*r.Text) {
					t.Errorf("text should be trimmed: %q", *r.Text)
				}
			}
		})
	}
}

func TestSubmitResponses(t *testing.T) {
	f := setup(t)
	eventID, _, _ := testutil.CreateTestEvent(t, f.conn, models.EventActive)
	pausedID, _, _ := testutil.CreateTestEvent(t, f.conn, models.EventPaused)

	activeID, questionID, options := f.choicePoll(t, eventID, models.StatusActive)
	draftID, draftQ, draftOpts := f.choicePoll(t, eventID, models.StatusDraft)
	pausedPoll, pausedQ, pausedOpts := f.choicePoll(t, pausedID, models.StatusActive)

	answer := func(q, opt string) models.SubmitResponsesRequest {
		return models.SubmitResponsesRequest{Answers: []models.AnswerInput{{QuestionID: q, OptionIDs: []string{opt}}}}
	}
	respondent := auth.NewRespondentID()

	tests := []struct {
		name         string
		pollID       string
		respondentID string
		body         any
		wantStatus   int
	}{
		{"new respondent", activeID, "", answer(questionID, options[0]), http.StatusCreated},
		{"known respondent", activeID, respondent, answer(questionID, options[1]), http.StatusCreated},
		{"bad respondent id", activeID, "not-a-uuid", answer(questionID, options[0]), http.StatusBadRequest},
		{"no answers", activeID, "", models.SubmitResponsesRequest{}, http.StatusBadRequest},
		{"foreign option", activeID, "", answer(questionID, draftOpts[0]), http.StatusBadRequest},
		{"draft poll", draftID, "", answer(draftQ, draftOpts[0]), http.StatusConflict},
		{"paused event", pausedPoll, "", answer(pausedQ, pausedOpts[0]), http.StatusConflict},
		{"unknown poll", auth.NewID(), "", answer(questionID, options[0]), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.respondentID != "" {
				headers[middleware.HeaderRespondentID] = tt.respondentID
			}
			w := serve(f.responses.SubmitResponses, testutil.MakeRequest("POST", "/", tt.body, headers), "id", tt.pollID)
			testutil.AssertStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var resp models.SubmitResponsesResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Count != 1 || !auth.IsUUID(resp.RespondentID) {
				t.Errorf("unexpected response %+v", resp)
			}
			if tt.respondentID != "" && resp.RespondentID != tt.respondentID {
				t.Errorf("expected respondent %s to be kept, got %s", tt.respondentID, resp.RespondentID)
			}
			if w.Header().Get(middleware.HeaderRespondentID) != resp.RespondentID {
				t.Error("expected respondent id echoed in header")
			}
		})
	}

	responses, _ := f.st.ListResponses(t.Context(), activeID)
	if len(responses) != 2 {
		t.Errorf("expected 2 stored responses, got %d", len(responses))
	}
}

func TestMyResponse(t *testing.T) {
	f := setup(t)
	eventID, _, _ := testutil.CreateTestEvent(t, f.conn, models.EventActive)
	pollID, questionID, options := f.choicePoll(t, eventID, models.StatusActive)

	answered := auth.NewRespondentID()
	testutil.AddTestResponse(t, f.conn, pollID, questionID, options[0], "", answered)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		want       bool
	}{
		{"answered", answered, http.StatusOK, true},
		{"fresh", auth.NewRespondentID(), http.StatusOK, false},
		{"no header", "", http.StatusOK, false},
		{"invalid", "abc", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{middleware.HeaderRespondentID: tt.header}
			w := serve(f.responses.MyResponse, testutil.MakeRequest("GET", "/", nil, headers), "id", pollID)
			testutil.AssertStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp models.MyResponseResponse
			testutil.AssertJSON(t, w, &resp)
			if resp.Responded != tt.want {
				t.Errorf("expected responded=%v, got %v", tt.want, resp.Responded)
			}
		})
	}

	w := serve(f.responses.MyResponse, testutil.MakeRequest("GET", "/", nil, nil), "id", auth.NewID())
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
