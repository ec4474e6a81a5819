package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxNameLength     = 100
	MaxEmailLength    = 320
	MaxTitleLength    = 200
	MaxTags           = 20
	MaxTagLength      = 32
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// NormalizeEmail converts email to lowercase for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail returns a user-facing message, or "" when the email is acceptable.
func ValidateEmail(email string) string {
	switch {
	case email == "":
		return "Email is required"
	case len(email) > MaxEmailLength || !emailRegex.MatchString(email):
		return "Email is invalid"
	}
	return ""
}

func ValidatePassword(password string) string {
	switch {
	case password == "":
		return "Password is required"
	case len(password) < MinPasswordLength:
		return "Password must be at least 8 characters"
	case len(password) > MaxPasswordLength:
		return "Password must be at most 128 characters"
	}
	return ""
}

func ValidateName(name string) string {
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "Name must be at most 100 characters"
	}
	return ""
}

// NormalizeTags trims labels, drops blanks and duplicates, and keeps first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ValidateTags checks already-normalized tags.
func ValidateTags(tags []string) string {
	if len(tags) > MaxTags {
		return "At most 20 tags are allowed"
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > MaxTagLength {
			return "Tags must be at most 32 characters"
		}
	}
	return ""
}
