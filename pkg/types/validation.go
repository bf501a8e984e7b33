package types

import (
	"regexp"
	"strings"
)

var (
	namePattern = regexp.MustCompile(`^[A-Za-z. ]+$`)
	rollPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
)

// SanitizeText trims surrounding whitespace and strips ASCII control
// characters (0x00-0x1F and 0x7F) from the value.
func SanitizeText(value string) string {
	value = strings.TrimSpace(value)
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, value)
}

// ValidateName sanitizes and validates a display name. Allowed characters are
// letters, spaces and the period. Length must be 2-100 after sanitization.
func ValidateName(name string) (string, error) {
	name = SanitizeText(name)
	if len(name) < 2 || len(name) > 100 {
		return "", ErrInvalidName
	}
	if !namePattern.MatchString(name) {
		return "", ErrInvalidName
	}
	return name, nil
}

// ValidateRoll sanitizes and validates a roll identifier. Allowed characters
// are letters, digits and the hyphen. Length must be 1-30 after sanitization.
// The returned roll is normalized to uppercase.
func ValidateRoll(roll string) (string, error) {
	roll = SanitizeText(roll)
	if len(roll) < 1 || len(roll) > 30 {
		return "", ErrInvalidRoll
	}
	if !rollPattern.MatchString(roll) {
		return "", ErrInvalidRoll
	}
	return strings.ToUpper(roll), nil
}

// SanitizeCode control-strips a candidate session code. No charset or length
// validation happens here; the session manager does the exact-match check.
func SanitizeCode(code string) string {
	return SanitizeText(code)
}
