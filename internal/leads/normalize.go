package leads

import (
	"errors"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var ErrInvalidPhone = errors.New("invalid phone number length")

// CleanPhone normalizes a phone number to +<countrycode><number>.
// Ten-digit numbers are treated as Indian mobiles. The result must carry
// between 10 and 15 digits.
func CleanPhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if len(digits) == 10 {
		digits = "91" + digits
	}

	if len(digits) < 10 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return "+" + digits, nil
}

// PhoneRegion returns the ISO region of a normalized number, or "" when it
// cannot be resolved.
func PhoneRegion(phone string) string {
	num, err := phonenumbers.Parse(phone, "IN")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CleanEmail lowercases and trims; malformed addresses become "".
func CleanEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

// NormalizeStatus maps free text onto a Status, defaulting to New.
func NormalizeStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "contacted":
		return StatusContacted
	case "interested":
		return StatusInterested
	case "not interested":
		return StatusNotInterested
	case "callback":
		return StatusCallback
	case "appointment booked":
		return StatusAppointmentBooked
	case "closed":
		return StatusClosed
	default:
		return StatusNew
	}
}

// NormalizePriority maps free text (including h/m/l) onto a Priority, defaulting to Medium.
func NormalizePriority(raw string) Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "h":
		return PriorityHigh
	case "low", "l":
		return PriorityLow
	default:
		return PriorityMedium
	}
}
