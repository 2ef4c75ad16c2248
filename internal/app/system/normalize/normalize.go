// Package normalize canonicalizes user-entered values before they are
// validated and stored.
package normalize

import (
	"strings"
	"unicode"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person or place name and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// City is Name for city names.
func City(s string) string {
	return Name(s)
}

// Phone trims a phone number and collapses inner whitespace. Punctuation
// is kept so the number reads the way it was entered.
func Phone(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// PhoneDigits strips everything but digits, for comparisons.
func PhoneDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// Role trims and lowercases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query-string value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
