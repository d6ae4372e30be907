// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/danielhkuo/stage/models"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SheetResults = "Results"
	SheetAnswers = "Text answers"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FileName builds an attachment name like "pulse_results_20250102_150405.xlsx"
func FileName(title string, at time.Time) string {
	slug := strings.Trim(strings.ToLower(unsafeName.ReplaceAllString(title, "_")), "_")
	if slug == "" {
		slug = "poll"
	}
	return fmt.Sprintf("%s_results_%s.xlsx", slug, at.Format("20060102_150405"))
}

// WriteResultsXLSX writes one row per option to the Results sheet and one
// row per free-text answer to the Text answers sheet.
func WriteResultsXLSX(w io.Writer, res models.PollResults) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetAnswers); err != nil {
		return err
	}

	writeRow(f, SheetResults, 1, "Poll", res.Title)
	writeRow(f, SheetResults, 2, "Respondents", res.Respondents)
	writeRow(f, SheetResults, 4, "Question", "Type", "Option", "Count", "Percentage", "Total")

	row := 5
	answerRow := 2
	writeRow(f, SheetAnswers, 1, "Question", "Answer")

	for _, q := range res.Questions {
		if !q.Type.IsChoice() {
			writeRow(f, SheetResults, row, q.Question, string(q.Type), "", len(q.Answers), "", q.Total)
			row++
			for _, a := range q.Answers {
				writeRow(f, SheetAnswers, answerRow, q.Question, a)
				answerRow++
			}
			continue
		}

		for _, o := range q.Options {
			writeRow(f, SheetResults, row, q.Question, string(q.Type), o.Text, o.Count, float64(o.Percentage)/100, q.Total)
			row++
		}
	}

	if row > 5 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 9})
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetResults, "E5", fmt.Sprintf("E%d", row-1), style); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, v)
	}
}
