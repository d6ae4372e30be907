// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrInvalidAdminCode    = errors.New("invalid admin code")
	ErrInvalidRespondentID = errors.New("invalid respondent id")
)

// Code alphabet: upper-case letters and digits without the easily confused
// 0/O and 1/I, so codes can be read off a projector and typed on a phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	AccessCodeLength = 6
	AdminCodeLength  = 8
)

// NewID returns a random UUID string for row primary keys
func NewID() string {
	return uuid.NewString()
}

// IsUUID reports whether s parses as a UUID. Event references that are not
// UUIDs are treated as access codes.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// GenerateAccessCode creates the short code audience members type to join
func GenerateAccessCode() (string, error) {
	code, err := gonanoid.Generate(codeAlphabet, AccessCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate access code: %w", err)
	}
	return code, nil
}

// GenerateAdminCode creates the secret code granting moderation rights
func GenerateAdminCode() (string, error) {
	code, err := gonanoid.Generate(codeAlphabet, AdminCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate admin code: %w", err)
	}
	return code, nil
}

// NormalizeCode upper-cases and trims a human-entered code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateAdminCode compares the provided code against the event's code in
// constant time. Codes are compared case-insensitively.
func ValidateAdminCode(expected, provided string) error {
	if expected == "" || provided == "" {
		return ErrInvalidAdminCode
	}
	if subtle.ConstantTimeCompare([]byte(NormalizeCode(expected)), []byte(NormalizeCode(provided))) != 1 {
		return ErrInvalidAdminCode
	}
	return nil
}

// NewRespondentID creates a per-browser respondent identifier
func NewRespondentID() string {
	return uuid.NewString()
}

// ParseRespondentID accepts a client-supplied respondent id. An empty value
// is valid and means "not yet assigned".
func ParseRespondentID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", ErrInvalidRespondentID
	}
	return id.String(), nil
}
