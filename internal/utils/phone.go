package utils

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers entered without a country code.
const DefaultRegion = "DE"

// NormalizePhoneNumber normalizes a phone number to E.164 format.
// Numbers without a country code are parsed as German numbers.
func NormalizePhoneNumber(phone string) (string, error) {
	phone = strings.TrimSpace(phone)

	num, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil {
		return "", err
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", phonenumbers.ErrNotANumber
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// CleanPhone returns the E.164 form of phone when it can be parsed and the
// trimmed input otherwise. Registrations accept free text phone numbers.
func CleanPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	if normalized, err := NormalizePhoneNumber(phone); err == nil {
		return normalized
	}
	return phone
}

// FormatPhone renders an E.164 number in international notation for
// participant lists. Anything else is returned unchanged.
func FormatPhone(phone string) string {
	if !strings.HasPrefix(phone, "+") {
		return phone
	}
	num, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil {
		return phone
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
