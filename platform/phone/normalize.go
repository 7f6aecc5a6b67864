// Package phone normalizes customer phone numbers for storage and for the
// delay notices sent by the notification module.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Bookings come from international tour customers. Numbers without a +
// country prefix are assumed to be US; anything in full E.164 form parses
// region-independently.
const defaultRegion = "US"

// NormalizeE164 formats a phone number to E.164 so the same customer never
// appears under two spellings of one number. Input that cannot be parsed or
// is not a valid number is stored as typed, trimmed.
func NormalizeE164(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}

	number, err := phonenumbers.Parse(trimmed, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}
