package validation

import (
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail validates email format
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(strings.TrimSpace(email))
}

// IsNotEmpty checks if string is not empty after trimming
func IsNotEmpty(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidFrequency validates subscription frequency
func IsValidFrequency(frequency string) bool {
	return frequency == "hourly" || frequency == "daily"
}

// NormalizeEmail trims the address and lower-cases it. Every store access keys on the
// normalized form, so email uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
