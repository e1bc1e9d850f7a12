package service

import (
	"regexp"
	"strings"

	"github.com/octobees/hero-savings/api/internal/entity"
)

// RE2's \s is ASCII only, so the separator classes and U+FEFF are listed too.
var (
	emailPattern  = regexp.MustCompile(`^[^\s\v\pZ\x{0085}\x{FEFF}@]+@[^\s\v\pZ\x{0085}\x{FEFF}@]+\.[^\s\v\pZ\x{0085}\x{FEFF}@]+$`)
	nonDigitsExpr = regexp.MustCompile(`\D+`)
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

// NormalizeName collapses all runs of whitespace and trims the result.
func NormalizeName(raw string) string {
	return collapseWhitespace(raw)
}

// NormalizeEmail lower-cases the address and returns "" when it does not look
// like local@domain.tld.
func NormalizeEmail(raw string) string {
	email := strings.ToLower(collapseWhitespace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

// NormalizePhoneToE164 converts a user-entered phone number into "+<digits>".
// Ten-digit numbers are treated as North American. Anything that cannot be
// normalized yields "".
func NormalizePhoneToE164(raw string) string {
	digits := nonDigitsExpr.ReplaceAllString(raw, "")
	switch n := len(digits); {
	case n < minPhoneDigits || n > maxPhoneDigits:
		return ""
	case n == 10:
		return "+1" + digits
	case n == 11:
		if strings.HasPrefix(digits, "1") {
			return "+" + digits
		}
		return ""
	default:
		return "+" + digits
	}
}

// SanitizeLead normalizes the contact fields of a lead and passes the rest
// through untouched. Malformed values become "".
func SanitizeLead(lead entity.Lead) entity.Lead {
	lead.Name = NormalizeName(lead.Name)
	lead.Email = NormalizeEmail(lead.Email)
	lead.Phone = NormalizePhoneToE164(lead.Phone)
	return lead
}

func collapseWhitespace(value string) string {
	value = strings.ReplaceAll(value, "\uFEFF", " ")
	return strings.Join(strings.Fields(value), " ")
}
