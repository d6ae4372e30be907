// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package export writes poll results as an Excel workbook.

The Results sheet has a header block (poll title, respondent count)
followed by one row per choice option:

	Question | Type | Option | Count | Percentage | Total

Text questions get a single row with their answer count; their answers
are listed on the Text answers sheet in response order.
*/
package export
