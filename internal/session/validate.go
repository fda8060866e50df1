package session

import (
	"regexp"
	"strings"
	"unicode"

	"foodcourt/internal/domain"
)

const DefaultCountryCode = "+91"

var (
	e164    = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	otpCode = regexp.MustCompile(`^\d{6}$`)
)

// NormalizePhone strips all whitespace and prefixes cc when the number has no leading '+'.
func NormalizePhone(raw, cc string) string {
	if cc == "" {
		cc = DefaultCountryCode
	}
	phone := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	if phone == "" || strings.HasPrefix(phone, "+") {
		return phone
	}
	return cc + phone
}

// ValidatePhone checks an already normalized number.
func ValidatePhone(phone string) error {
	if !e164.MatchString(phone) || len(phone) < 12 || len(phone) > 15 {
		return domain.Invalid("phone", "invalid phone number format")
	}
	return nil
}

func ValidateCode(code string) error {
	if !otpCode.MatchString(code) {
		return domain.Invalid("otp", "please enter a valid 6-digit OTP")
	}
	return nil
}

func validateRole(role domain.Role) error {
	if !role.Valid() {
		return domain.Invalid("role", "unknown role %q", role)
	}
	return nil
}
