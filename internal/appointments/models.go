package appointments

import (
	"strings"
	"time"
)

// Appointment is a scheduled site visit. Lead contact details are snapshotted.
type Appointment struct {
	ID     string `json:"id" db:"id"`
	LeadID string `json:"lead_id" db:"lead_id"`
	CallID string `json:"call_id,omitempty" db:"call_id"`

	LeadName  string `json:"lead_name" db:"lead_name"`
	LeadPhone string `json:"lead_phone" db:"lead_phone"`
	LeadEmail string `json:"lead_email,omitempty" db:"lead_email"`

	AppointmentDate time.Time `json:"appointment_date" db:"appointment_date"`
	AppointmentTime string    `json:"appointment_time" db:"appointment_time"`

	PropertyName    string `json:"property_name" db:"property_name"`
	PropertyAddress string `json:"property_address" db:"property_address"`

	Status Status `json:"status" db:"status"`
	Notes  string `json:"notes,omitempty" db:"notes"`

	ReminderSent       bool       `json:"reminder_sent" db:"reminder_sent"`
	ReminderSentAt     *time.Time `json:"reminder_sent_at,omitempty" db:"reminder_sent_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason string     `json:"cancellation_reason,omitempty" db:"cancellation_reason"`

	Metadata map[string]string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusScheduled   Status = "Scheduled"
	StatusConfirmed   Status = "Confirmed"
	StatusCompleted   Status = "Completed"
	StatusCancelled   Status = "Cancelled"
	StatusRescheduled Status = "Rescheduled"
	StatusNoShow      Status = "No Show"
)

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	AppointmentDate    *time.Time
	AppointmentTime    *string
	PropertyName       *string
	PropertyAddress    *string
	Status             *Status
	Notes              *string
	ReminderSent       *bool
	ReminderSentAt     *time.Time
	ConfirmedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string
	Metadata           map[string]string
}

func (p Patch) Apply(a *Appointment) {
	if p.AppointmentDate != nil {
		a.AppointmentDate = *p.AppointmentDate
	}
	if p.AppointmentTime != nil {
		a.AppointmentTime = *p.AppointmentTime
	}
	if p.PropertyName != nil {
		a.PropertyName = *p.PropertyName
	}
	if p.PropertyAddress != nil {
		a.PropertyAddress = *p.PropertyAddress
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.ReminderSent != nil {
		a.ReminderSent = *p.ReminderSent
	}
	if p.ReminderSentAt != nil {
		t := *p.ReminderSentAt
		a.ReminderSentAt = &t
	}
	if p.ConfirmedAt != nil {
		t := *p.ConfirmedAt
		a.ConfirmedAt = &t
	}
	if p.CancelledAt != nil {
		t := *p.CancelledAt
		a.CancelledAt = &t
	}
	if p.CancellationReason != nil {
		a.CancellationReason = *p.CancellationReason
	}
	if p.Metadata != nil {
		a.Metadata = p.Metadata
	}
}

// Filter is an exact-match conjunction; empty fields match everything.
type Filter struct {
	LeadID string
	CallID string
	Status Status
}

func (f Filter) Match(a Appointment) bool {
	if f.LeadID != "" && a.LeadID != f.LeadID {
		return false
	}
	if f.CallID != "" && a.CallID != f.CallID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
}

// ParseDate parses a free-form appointment date. When the date carries no
// clock part, an HH:MM clock string is added to it.
func ParseDate(date, clock string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, date, loc)
		if err != nil {
			continue
		}
		if len(layout) <= len("2006-01-02") {
			if hm, err := time.Parse("15:04", strings.TrimSpace(clock)); err == nil {
				t = t.Add(time.Duration(hm.Hour())*time.Hour + time.Duration(hm.Minute())*time.Minute)
			}
		}
		return t, true
	}
	return time.Time{}, false
}
