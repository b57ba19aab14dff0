package utils

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned when a number is not a valid Indian mobile number.
var ErrInvalidPhone = errors.New("phone must be a 10-digit Indian mobile number")

// NormalizePhone canonicalises an Indian mobile number to +91XXXXXXXXXX.
// Spaces, dashes, parentheses and a leading + are ignored; a 12-digit input
// starting with 91 has the country code stripped. The remaining ten digits
// must start with 6, 7, 8 or 9.
func NormalizePhone(in string) (string, error) {
	var b strings.Builder
	for _, r := range in {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) == 11 && digits[0] == '0' {
		digits = digits[1:]
	}
	if len(digits) != 10 || digits[0] < '6' {
		return "", ErrInvalidPhone
	}
	return "+91" + digits, nil
}

// LooksLikePhone reports whether a login identifier should be treated as a
// phone number rather than an email.
func LooksLikePhone(identifier string) bool {
	return !strings.Contains(identifier, "@")
}
