// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides code generation and the per-request Session.

# Codes

Every event has two codes drawn from an unambiguous upper-case alphabet:

	access, _ := auth.GenerateAccessCode() // 6 chars, shown to the audience
	admin, _ := auth.GenerateAdminCode()   // 8 chars, kept by the organizer

Admin codes are compared in constant time and case-insensitively:

	err := auth.ValidateAdminCode(event.AdminCode, r.Header.Get("X-Admin-Code"))

# Sessions

Session replaces an ambient "current user": handlers build one per request
and pass it to the code that needs it.

	s, err := auth.OrganizerSession(event, code)
	s, err := auth.AudienceSession(eventID, r.Header.Get("X-Respondent-ID"))

Respondent ids are client-generated UUIDs used only for the advisory
"already answered this poll" check. They are not identities.

# Identifiers

Row ids are random UUIDs (NewID). IsUUID tells event ids apart from access
codes in URLs.
*/
package auth
