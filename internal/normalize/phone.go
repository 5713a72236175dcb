// Package normalize implements the four pure value normalizers the
// reconciliation engine applies to mapped cells before staging: phone
// numbers, timestamps, call durations, and per-minute rates.
package normalize

import "strings"

// Phone coerces v to a string of ASCII digits, then strips one recognized
// country-code prefix, applied once:
//
//	11 digits starting with "1"   -> drop the leading "1"
//	12 digits starting with "01"  -> drop the leading "01"
//	13 digits starting with "001" -> drop the leading "001"
//
// A nil, empty, or non-digit-bearing input normalizes to "".
func Phone(v any) string {
	digits := digitsOf(v)

	switch {
	case len(digits) == 11 && digits[0] == '1':
		return digits[1:]
	case len(digits) == 12 && strings.HasPrefix(digits, "01"):
		return digits[2:]
	case len(digits) == 13 && strings.HasPrefix(digits, "001"):
		return digits[3:]
	default:
		return digits
	}
}

// digitsOf coerces v to its string form and keeps only ASCII digit runes.
func digitsOf(v any) string {
	if v == nil {
		return ""
	}
	s := stringify(v)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
