package inputval

import "strings"

const (
	phoneMin = 7
	phoneMax = 20
)

// IsValidEmail applies a practical subset of RFC 5322: one @, a non-empty
// local part and domain, no spaces, no leading, trailing or doubled dots.
// Single-label domains are accepted.
func IsValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>") {
		return false
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at != strings.LastIndexByte(s, '@') || at == len(s)-1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	return dotted(local, isLocalRune) && dotted(domain, isDomainRune)
}

// dotted reports whether s is made of ok runes, with dots only between
// non-empty segments.
func dotted(s string, ok func(rune) bool) bool {
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") || strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if r != '.' && !ok(r) {
			return false
		}
	}
	return true
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func isLocalRune(r rune) bool {
	return isAlnum(r) || strings.ContainsRune("!#$%&'*+/=?^_`{|}~-", r)
}

func isDomainRune(r rune) bool {
	return isAlnum(r) || r == '-'
}

// IsValidPhone accepts 7 to 20 characters of digits, spaces and + - ( ),
// with at least one digit.
func IsValidPhone(s string) bool {
	if len(s) < phoneMin || len(s) > phoneMax {
		return false
	}
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(" +-()", r):
		default:
			return false
		}
	}
	return digits > 0
}
