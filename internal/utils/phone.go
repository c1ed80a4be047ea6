package utils

import (
	"regexp"
	"strings"
)

const phonePrefix = "+380"

var (
	phonePattern = regexp.MustCompile(`^\+380\d{9}$`)
	localPattern = regexp.MustCompile(`^\d{9}$`)
	trunkPattern = regexp.MustCompile(`^0\d{9}$`)
)

// NormalizePhone strips spaces, dashes and brackets and rewrites local
// forms (501234567, 0501234567, 380501234567) to +380501234567.
// The result is not validated.
func NormalizePhone(phone string) string {
	phone = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))

	switch {
	case localPattern.MatchString(phone):
		return phonePrefix + phone
	case trunkPattern.MatchString(phone):
		return "+38" + phone
	case strings.HasPrefix(phone, "380") && len(phone) == 12:
		return "+" + phone
	}
	return phone
}

// ValidPhone reports whether phone is a normalized +380XXXXXXXXX number.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
