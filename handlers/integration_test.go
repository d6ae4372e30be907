// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/stage/middleware"
	"github.com/danielhkuo/stage/models"
	"github.com/danielhkuo/stage/testutil"
)

// TestFullEventWorkflow walks an event from creation to showing poll
// results on the presentation screen:
// 1. Create event
// 2. Audience asks and upvotes a question
// 3. Organizer puts the question on screen
// 4. Organizer builds and launches a poll, screen shows it
// 5. Audience responds
// 6. Organizer ends the poll and shows its results
func TestFullEventWorkflow(t *testing.T) {
	f := setup(t)

	// Step 1
	w := serve(f.events.CreateEvent, testutil.MakeRequest("POST", "/events", models.CreateEventRequest{Name: "All Hands"}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.CreateEventResponse
	testutil.AssertJSON(t, w, &created)
	eventID := created.Event.ID
	admin := testutil.AdminHeaders(created.AdminCode)

	s, err := f.registry.Get(t.Context(), eventID)
	if err != nil {
		t.Fatalf("registry.Get() error = %v", err)
	}
	if s.State().Display.Type() != models.DisplayWelcome {
		t.Fatalf("expected welcome screen, got %+v", s.State().Display)
	}

	// Step 2
	w = serve(f.questions.SubmitQuestion, testutil.MakeRequest("POST", "/", models.SubmitQuestionRequest{Content: "Remote policy?"}, nil), "id", eventID)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var question models.Question
	testutil.AssertJSON(t, w, &question)

	w = serve(f.questions.Upvote, testutil.MakeRequest("POST", "/", nil, nil), "id", question.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Step 3
	w = serve(f.displays.SetDisplay, testutil.MakeRequest("POST", "/", models.SetDisplayRequest{
		DisplayType: models.DisplayQuestion, QuestionID: &question.ID,
	}, admin), "id", eventID)
	testutil.AssertStatus(t, w, http.StatusOK)

	eventually(t, "question on screen", func() bool {
		st := s.State()
		return st.Question != nil && st.Question.ID == question.ID && st.Question.Votes == 1 && !st.Transitioning
	})

	// Step 4
	w = serve(f.polls.CreatePoll, testutil.MakeRequest("POST", "/", pollRequest("Office days",
		models.PollQuestionInput{Text: "How many?", Type: models.SingleChoice, IsRequired: true, Options: []string{"2", "3", "5"}},
	), admin), "id", eventID)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var poll models.PollDetail
	testutil.AssertJSON(t, w, &poll)

	w = serve(f.polls.LaunchPoll, testutil.MakeRequest("POST", "/", nil, admin), "id", poll.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(f.displays.SetDisplay, testutil.MakeRequest("POST", "/", models.SetDisplayRequest{DisplayType: models.DisplayActivePoll}, admin), "id", eventID)
	testutil.AssertStatus(t, w, http.StatusOK)

	eventually(t, "active poll on screen", func() bool {
		st := s.State()
		return st.Display.Type() == models.DisplayActivePoll && st.ActivePoll != nil && st.ActivePoll.ID == poll.ID
	})

	// Step 5
	opts := poll.Questions[0].Options
	for i, choice := range []int{1, 1, 0} {
		body := models.SubmitResponsesRequest{Answers: []models.AnswerInput{
			{QuestionID: poll.Questions[0].ID, OptionIDs: []string{opts[choice].ID}},
		}}
		w = serve(f.responses.SubmitResponses, testutil.MakeRequest("POST", "/", body, nil), "id", poll.ID)
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 5 - response %d failed: %d - %s", i, w.Code, w.Body.String())
		}
		respondent := w.Header().Get(middleware.HeaderRespondentID)

		w = serve(f.responses.MyResponse, testutil.MakeRequest("GET", "/", nil, map[string]string{middleware.HeaderRespondentID: respondent}), "id", poll.ID)
		var mine models.MyResponseResponse
		testutil.AssertJSON(t, w, &mine)
		if !mine.Responded {
			t.Errorf("Step 5 - respondent %d should be marked as responded", i)
		}
	}

	eventually(t, "live tally on screen", func() bool {
		st := s.State()
		return st.ActiveResults != nil && st.ActiveResults.Respondents == 3
	})

	// Step 6
	w = serve(f.polls.EndPoll, testutil.MakeRequest("POST", "/", nil, admin), "id", poll.ID)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = serve(f.displays.SetDisplay, testutil.MakeRequest("POST", "/", models.SetDisplayRequest{
		DisplayType: models.DisplayPollResults, PollID: &poll.ID,
	}, admin), "id", eventID)
	testutil.AssertStatus(t, w, http.StatusOK)

	eventually(t, "results on screen", func() bool {
		st := s.State()
		return st.Display.Type() == models.DisplayPollResults && st.Results != nil && !st.Transitioning
	})

	res := s.State().Results
	tally := res.Questions[0].Options
	if tally[0].Count != 1 || tally[1].Count != 2 || tally[1].Percentage != 67 || tally[2].Count != 0 {
		t.Errorf("unexpected results on screen %+v", tally)
	}
	if s.State().ActivePoll != nil {
		t.Error("no poll should be active after ending")
	}
}
