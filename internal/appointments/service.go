package appointments

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"sales-dialer/internal/leads"
	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/validate"
)

// Repository is the appointment slice of the persistence port.
// FindAll returns appointments ordered by appointment date ascending.
type Repository interface {
	Create(ctx context.Context, a Appointment) (Appointment, error)
	FindAll(ctx context.Context, f Filter) ([]Appointment, error)
	FindByID(ctx context.Context, id string) (Appointment, error)
	Update(ctx context.Context, id string, p Patch) (Appointment, error)
}

type LeadLookup interface {
	FindByID(ctx context.Context, id string) (leads.Lead, error)
}

// Defaults fill property fields left empty on creation.
type Defaults struct {
	PropertyName    string
	PropertyAddress string
}

type Service struct {
	repo     Repository
	leads    LeadLookup
	defaults Defaults
	validate *validate.Validator
	clock    func() time.Time
	log      *slog.Logger
}

func NewService(repo Repository, leads LeadLookup, defaults Defaults, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		leads:    leads,
		defaults: defaults,
		validate: validate.New(),
		clock:    time.Now,
		log:      log,
	}
}

type CreateInput struct {
	LeadID          string            `json:"lead_id" validate:"required"`
	CallID          string            `json:"call_id"`
	LeadName        string            `json:"lead_name"`
	LeadPhone       string            `json:"lead_phone"`
	LeadEmail       string            `json:"lead_email"`
	AppointmentDate time.Time         `json:"appointment_date" validate:"required"`
	AppointmentTime string            `json:"appointment_time" validate:"required"`
	PropertyName    string            `json:"property_name"`
	PropertyAddress string            `json:"property_address"`
	Notes           string            `json:"notes"`
	Metadata        map[string]string `json:"metadata"`
}

type UpdateInput struct {
	AppointmentDate    *time.Time        `json:"appointment_date"`
	AppointmentTime    *string           `json:"appointment_time" validate:"omitempty,min=1"`
	PropertyName       *string           `json:"property_name"`
	PropertyAddress    *string           `json:"property_address"`
	Status             *Status           `json:"status" validate:"omitempty,oneof=Scheduled Confirmed Completed Cancelled Rescheduled 'No Show'"`
	Notes              *string           `json:"notes"`
	ReminderSent       *bool             `json:"reminder_sent"`
	CancellationReason *string           `json:"cancellation_reason"`
	Metadata           map[string]string `json:"metadata"`
}

// Create books an appointment for an existing lead. Missing lead contact
// fields are copied from the lead record.
func (s *Service) Create(ctx context.Context, in CreateInput) (Appointment, error) {
	if err := s.validate.Struct(in); err != nil {
		return Appointment{}, err
	}
	lead, err := s.leads.FindByID(ctx, in.LeadID)
	if err != nil {
		return Appointment{}, err
	}

	a := Appointment{
		LeadID:          lead.ID,
		CallID:          in.CallID,
		LeadName:        firstNonEmpty(in.LeadName, lead.Name),
		LeadPhone:       firstNonEmpty(in.LeadPhone, lead.Phone),
		LeadEmail:       firstNonEmpty(in.LeadEmail, lead.Email),
		AppointmentDate: in.AppointmentDate,
		AppointmentTime: strings.TrimSpace(in.AppointmentTime),
		PropertyName:    firstNonEmpty(in.PropertyName, s.defaults.PropertyName),
		PropertyAddress: firstNonEmpty(in.PropertyAddress, s.defaults.PropertyAddress),
		Status:          StatusScheduled,
		Notes:           strings.TrimSpace(in.Notes),
		Metadata:        in.Metadata,
	}
	return s.repo.Create(ctx, a)
}

// Booking is an appointment request extracted from a finished call.
type Booking struct {
	LeadID string
	CallID string
	Date   time.Time
	Time   string
	Notes  string
}

// BookFromCall creates the appointment for a call at most once. If the call
// already has an appointment it is returned with created=false.
func (s *Service) BookFromCall(ctx context.Context, b Booking) (a Appointment, created bool, err error) {
	if b.CallID == "" {
		return Appointment{}, false, apperr.Validation("call_id is required")
	}
	existing, err := s.repo.FindAll(ctx, Filter{CallID: b.CallID})
	if err != nil {
		return Appointment{}, false, err
	}
	if len(existing) > 0 {
		return existing[0], false, nil
	}

	clock := strings.TrimSpace(b.Time)
	if clock == "" {
		clock = b.Date.Format("15:04")
	}
	a, err = s.Create(ctx, CreateInput{
		LeadID:          b.LeadID,
		CallID:          b.CallID,
		AppointmentDate: b.Date,
		AppointmentTime: clock,
		Notes:           b.Notes,
		Metadata:        map[string]string{"source": "call"},
	})
	if err != nil {
		return Appointment{}, false, err
	}
	s.log.Info("appointment booked from call", "appointment_id", a.ID, "call_id", b.CallID, "lead_id", b.LeadID)
	return a, true, nil
}

func (s *Service) Get(ctx context.Context, id string) (Appointment, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Appointment, error) {
	return s.repo.FindAll(ctx, f)
}

// Update applies a partial update. Status changes stamp confirmed_at and
// cancelled_at; marking the reminder sent stamps reminder_sent_at.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Appointment, error) {
	if err := s.validate.Struct(in); err != nil {
		return Appointment{}, err
	}
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}

	now := s.clock().UTC()
	p := Patch{
		AppointmentDate:    in.AppointmentDate,
		AppointmentTime:    in.AppointmentTime,
		PropertyName:       in.PropertyName,
		PropertyAddress:    in.PropertyAddress,
		Status:             in.Status,
		Notes:              in.Notes,
		ReminderSent:       in.ReminderSent,
		CancellationReason: in.CancellationReason,
		Metadata:           in.Metadata,
	}
	if in.Status != nil && *in.Status != cur.Status {
		switch *in.Status {
		case StatusConfirmed:
			p.ConfirmedAt = &now
		case StatusCancelled:
			p.CancelledAt = &now
		}
	}
	if in.ReminderSent != nil && *in.ReminderSent && !cur.ReminderSent {
		p.ReminderSentAt = &now
	}

	return s.repo.Update(ctx, id, p)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
