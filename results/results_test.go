// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"testing"

	"github.com/danielhkuo/stage/models"
)

func choiceQuestion(id string, qtype models.QuestionType, optionIDs ...string) models.PollQuestion {
	q := models.PollQuestion{ID: id, Text: "Question " + id, Type: qtype}
	for i, o := range optionIDs {
		q.Options = append(q.Options, models.PollOption{ID: o, QuestionID: id, Text: "Option " + o, Position: i})
	}
	return q
}

func choice(questionID, optionID, respondent string) models.PollResponse {
	return models.PollResponse{QuestionID: questionID, OptionID: &optionID, RespondentID: respondent}
}

func text(questionID, answer, respondent string) models.PollResponse {
	return models.PollResponse{QuestionID: questionID, Text: &answer, RespondentID: respondent}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		count, total, want int
	}{
		{3, 4, 75},
		{1, 4, 25},
		{0, 4, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{1, 2, 50},
		{0, 0, 0},
		{5, 5, 100},
	}

	for _, tt := range tests {
		if got := Percentage(tt.count, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.count, tt.total, got, tt.want)
		}
	}
}

func TestTallySingleChoice(t *testing.T) {
	poll := models.PollDetail{
		Poll:      models.Poll{ID: "p1", Title: "Poll"},
		Questions: []models.PollQuestion{choiceQuestion("q1", models.SingleChoice, "a", "b", "c")},
	}
	responses := []models.PollResponse{
		choice("q1", "a", "r1"),
		choice("q1", "a", "r2"),
		choice("q1", "b", "r3"),
		choice("q1", "a", "r4"),
	}

	res := Tally(poll, responses)
	q := res.Questions[0]

	if q.Total != 4 {
		t.Errorf("expected total 4, got %d", q.Total)
	}
	want := []struct{ count, pct int }{{3, 75}, {1, 25}, {0, 0}}
	for i, w := range want {
		if q.Options[i].Count != w.count || q.Options[i].Percentage != w.pct {
			t.Errorf("option %d: got %+v, want count %d pct %d", i, q.Options[i], w.count, w.pct)
		}
	}
	if res.Respondents != 4 {
		t.Errorf("expected 4 respondents, got %d", res.Respondents)
	}
}

func TestTallyEvenSplitDoesNotSumTo100(t *testing.T) {
	poll := models.PollDetail{Questions: []models.PollQuestion{choiceQuestion("q1", models.SingleChoice, "a", "b", "c")}}
	res := Tally(poll, []models.PollResponse{
		choice("q1", "a", "r1"),
		choice("q1", "b", "r2"),
		choice("q1", "c", "r3"),
	})

	sum := 0
	for _, o := range res.Questions[0].Options {
		if o.Percentage != 33 {
			t.Errorf("expected 33%%, got %d", o.Percentage)
		}
		sum += o.Percentage
	}
	if sum != 99 {
		t.Errorf("expected independent rounding to sum to 99, got %d", sum)
	}
}

func TestTallyMultipleChoiceCountsRows(t *testing.T) {
	poll := models.PollDetail{Questions: []models.PollQuestion{choiceQuestion("q1", models.MultipleChoice, "a", "b", "c")}}
	res := Tally(poll, []models.PollResponse{
		choice("q1", "a", "r1"),
		choice("q1", "b", "r1"),
	})

	q := res.Questions[0]
	if q.Total != 2 {
		t.Errorf("expected total 2 (rows), got %d", q.Total)
	}
	if res.Respondents != 1 {
		t.Errorf("expected 1 respondent, got %d", res.Respondents)
	}
	if q.Options[0].Percentage != 50 || q.Options[1].Percentage != 50 {
		t.Errorf("unexpected percentages %+v", q.Options)
	}
}

func TestTallyEmpty(t *testing.T) {
	poll := models.PollDetail{Questions: []models.PollQuestion{
		choiceQuestion("q1", models.SingleChoice, "a", "b"),
		choiceQuestion("q2", models.MultipleChoice, "c"),
		{ID: "q3", Type: models.TextAnswer},
	}}

	res := Tally(poll, nil)
	if len(res.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(res.Questions))
	}
	for _, q := range res.Questions {
		if q.Total != 0 {
			t.Errorf("%s: expected total 0, got %d", q.QuestionID, q.Total)
		}
		for _, o := range q.Options {
			if o.Count != 0 || o.Percentage != 0 {
				t.Errorf("%s: expected zero option, got %+v", q.QuestionID, o)
			}
		}
	}
	if res.Questions[2].Answers == nil || len(res.Questions[2].Answers) != 0 {
		t.Errorf("expected empty answers list, got %v", res.Questions[2].Answers)
	}
}

func TestTallyText(t *testing.T) {
	poll := models.PollDetail{Questions: []models.PollQuestion{{ID: "q1", Type: models.TextAnswer}}}
	res := Tally(poll, []models.PollResponse{
		text("q1", "first", "r1"),
		text("q1", "  ", "r2"),
		text("q1", "second", "r3"),
	})

	q := res.Questions[0]
	if q.Total != 3 {
		t.Errorf("expected total 3, got %d", q.Total)
	}
	if len(q.Answers) != 2 || q.Answers[0] != "first" || q.Answers[1] != "second" {
		t.Errorf("unexpected answers %v", q.Answers)
	}
}

func TestTallyIgnoresUnknownRows(t *testing.T) {
	poll := models.PollDetail{Questions: []models.PollQuestion{choiceQuestion("q1", models.SingleChoice, "a")}}
	res := Tally(poll, []models.PollResponse{
		choice("q1", "a", "r1"),
		choice("q1", "gone", "r2"),
		choice("other", "a", "r3"),
		{QuestionID: "q1", RespondentID: "r4"},
	})

	q := res.Questions[0]
	if q.Total != 1 || q.Options[0].Percentage != 100 {
		t.Errorf("unexpected result %+v", q)
	}
}
