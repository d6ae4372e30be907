// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package results turns poll response rows into tallies.

Tally is pure: it takes a poll with its questions and options plus the
full list of response rows and returns models.PollResults. No I/O.

# Choice questions

Each option gets a count and a percentage of the question total. The
total is the number of rows referencing one of the question's options:

	counts (3, 1, 0) -> total 4 -> 75%, 25%, 0%
	counts (1, 1, 1) -> total 3 -> 33%, 33%, 33%

Percentages round to the nearest integer per option and are not adjusted
to sum to 100. A question with no responses reports total 0 and 0% for
every option.

# Text questions

Answers lists the non-blank free-text answers in response order; Total is
the number of rows for the question, blank ones included.

# Respondents

PollResults.Respondents is the number of distinct respondent ids. It is
for display only; respondent ids are client generated.
*/
package results
