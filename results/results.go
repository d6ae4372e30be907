// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package results

import (
	"strings"

	"github.com/danielhkuo/stage/models"
)

// Tally aggregates a poll's response rows into per-question results, in
// poll question order. Rows for unknown questions or options are ignored.
func Tally(poll models.PollDetail, responses []models.PollResponse) models.PollResults {
	out := models.PollResults{
		PollID:    poll.ID,
		Title:     poll.Title,
		Questions: make([]models.QuestionResult, 0, len(poll.Questions)),
	}

	byQuestion := make(map[string][]models.PollResponse, len(poll.Questions))
	for _, r := range responses {
		byQuestion[r.QuestionID] = append(byQuestion[r.QuestionID], r)
	}

	respondents := map[string]struct{}{}
	for _, q := range poll.Questions {
		rows := byQuestion[q.ID]
		for _, r := range rows {
			respondents[r.RespondentID] = struct{}{}
		}

		if q.Type.IsChoice() {
			out.Questions = append(out.Questions, tallyChoice(q, rows))
		} else {
			out.Questions = append(out.Questions, tallyText(q, rows))
		}
	}
	out.Respondents = len(respondents)

	return out
}

// total counts rows that reference one of the question's options, so a
// multi-select respondent contributes once per selected option
func tallyChoice(q models.PollQuestion, rows []models.PollResponse) models.QuestionResult {
	counts := make(map[string]int, len(q.Options))
	for _, o := range q.Options {
		counts[o.ID] = 0
	}

	total := 0
	for _, r := range rows {
		if r.OptionID == nil {
			continue
		}
		if _, ok := counts[*r.OptionID]; ok {
			counts[*r.OptionID]++
			total++
		}
	}

	res := models.QuestionResult{
		QuestionID: q.ID,
		Question:   q.Text,
		Type:       q.Type,
		Options:    make([]models.OptionTally, 0, len(q.Options)),
		Total:      total,
	}
	for _, o := range q.Options {
		res.Options = append(res.Options, models.OptionTally{
			OptionID:   o.ID,
			Text:       o.Text,
			Count:      counts[o.ID],
			Percentage: Percentage(counts[o.ID], total),
		})
	}
	return res
}

func tallyText(q models.PollQuestion, rows []models.PollResponse) models.QuestionResult {
	res := models.QuestionResult{
		QuestionID: q.ID,
		Question:   q.Text,
		Type:       q.Type,
		Answers:    []string{},
		Total:      len(rows),
	}
	for _, r := range rows {
		if r.Text != nil && strings.TrimSpace(*r.Text) != "" {
			res.Answers = append(res.Answers, *r.Text)
		}
	}
	return res
}

// Percentage returns count/total as a whole percent, rounding halves up.
// Zero total yields 0. Options are rounded independently and need not sum
// to 100.
func Percentage(count, total int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	return (count*200 + total) / (2 * total)
}
