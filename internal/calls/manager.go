package calls

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sales-dialer/internal/analysis"
	"sales-dialer/internal/appointments"
	"sales-dialer/internal/leads"
	"sales-dialer/internal/locks"
	"sales-dialer/internal/telephony"
	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/validate"
)

// Repository is the call slice of the persistence port.
type Repository interface {
	Create(ctx context.Context, c Call) (Call, error)
	FindAll(ctx context.Context, f Filter) ([]Call, error)
	FindByID(ctx context.Context, id string) (Call, error)
	FindByProviderID(ctx context.Context, providerCallID string) (Call, error)
	Update(ctx context.Context, id string, p Patch) (Call, error)
}

// LeadRepository is what the manager needs from lead storage.
type LeadRepository interface {
	FindByID(ctx context.Context, id string) (leads.Lead, error)
	Update(ctx context.Context, id string, p leads.Patch) (leads.Lead, error)
	IncrementCallCount(ctx context.Context, id string, at time.Time) error
}

type AppointmentBooker interface {
	BookFromCall(ctx context.Context, b appointments.Booking) (appointments.Appointment, bool, error)
}

type Deps struct {
	Calls    Repository
	Leads    LeadRepository
	Provider telephony.Provider
	Locker   locks.Locker

	// Booker is optional; without it appointment data is only recorded on the call.
	Booker AppointmentBooker

	// Location is used for appointment dates that carry no zone. Defaults to UTC.
	Location *time.Location
	Log      *slog.Logger
}

// Manager owns call creation and every status transition after it.
type Manager struct {
	calls    Repository
	leads    LeadRepository
	provider telephony.Provider
	locker   locks.Locker
	booker   AppointmentBooker
	loc      *time.Location
	log      *slog.Logger
	validate *validate.Validator
	clock    func() time.Time

	retryDelay time.Duration
}

func NewManager(d Deps) *Manager {
	m := &Manager{
		calls:    d.Calls,
		leads:    d.Leads,
		provider: d.Provider,
		locker:   d.Locker,
		booker:   d.Booker,
		loc:      d.Location,
		log:      d.Log,
		validate: validate.New(),
		clock:    time.Now,

		retryDelay: 50 * time.Millisecond,
	}
	if m.locker == nil {
		m.locker = locks.NewLocal()
	}
	if m.loc == nil {
		m.loc = time.UTC
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// StartCall records a Queued call for the lead and asks the provider to dial.
// A rejected or timed out initiation leaves the call Failed with an end time
// and returns a transport error; the lead counters only move once the provider
// has accepted the call.
func (m *Manager) StartCall(ctx context.Context, leadID, customMessage string) (Call, error) {
	if leadID == "" {
		return Call{}, apperr.Validation("lead_id is required")
	}
	lead, err := m.leads.FindByID(ctx, leadID)
	if err != nil {
		return Call{}, err
	}

	start := m.clock().UTC()
	call, err := m.calls.Create(ctx, Call{
		LeadID:    lead.ID,
		LeadName:  lead.Name,
		LeadPhone: lead.Phone,
		Status:    StatusQueued,
		StartTime: &start,
	})
	if err != nil {
		return Call{}, err
	}

	res, dialErr := m.provider.InitiateCall(ctx, telephony.OutboundCallRequest{
		PhoneNumber:  lead.Phone,
		Name:         lead.Name,
		Email:        lead.Email,
		FirstMessage: customMessage,
	})
	if dialErr == nil && res.ProviderCallID == "" {
		dialErr = errors.New("provider returned no call id")
	}
	if dialErr != nil {
		return Call{}, m.markFailed(ctx, call, dialErr)
	}

	// The provider is dialing from here on, so the provider id has to land
	// even if the caller gave up.
	wctx := context.WithoutCancel(ctx)
	if err := m.leads.IncrementCallCount(wctx, lead.ID, start); err != nil {
		m.log.Warn("lead call counter not updated", "lead_id", lead.ID, "call_id", call.ID, "error", err)
	}
	ringing := StatusRinging
	updated, err := m.updateWithRetry(wctx, call.ID, Patch{ProviderCallID: &res.ProviderCallID, Status: &ringing})
	if err != nil {
		return Call{}, m.markUnrecorded(wctx, call, res.ProviderCallID, err)
	}
	call = updated

	m.log.Info("call initiated",
		"call_id", call.ID,
		"provider", m.provider.Name(),
		"provider_call_id", res.ProviderCallID,
		"lead_id", lead.ID,
	)
	return call, nil
}

func (m *Manager) markFailed(ctx context.Context, call Call, dialErr error) error {
	msg := dialErr.Error()
	var pe *telephony.ProviderError
	if errors.As(dialErr, &pe) && pe.Message != "" {
		msg = pe.Message
	}

	// The failure must be recorded even when the caller has gone away.
	wctx := context.WithoutCancel(ctx)
	failed := StatusFailed
	end := m.clock().UTC()
	if _, err := m.calls.Update(wctx, call.ID, Patch{
		Status:   &failed,
		EndTime:  &end,
		Metadata: map[string]any{"error": msg},
	}); err != nil {
		m.log.Error("failed call not recorded", "call_id", call.ID, "error", err)
	}

	m.log.Warn("call initiation failed", "call_id", call.ID, "lead_id", call.LeadID, "error", dialErr)
	return apperr.Transport(msg, dialErr)
}

const ringingWriteAttempts = 3

func (m *Manager) updateWithRetry(ctx context.Context, id string, p Patch) (Call, error) {
	var (
		c   Call
		err error
	)
	for attempt := 1; attempt <= ringingWriteAttempts; attempt++ {
		c, err = m.calls.Update(ctx, id, p)
		if err == nil {
			return c, nil
		}
		if k := apperr.KindOf(err); k == apperr.KindNotFound || k == apperr.KindConflict {
			return Call{}, err
		}
		if attempt < ringingWriteAttempts {
			time.Sleep(m.retryDelay * time.Duration(attempt))
		}
	}
	return Call{}, err
}

// markUnrecorded handles a dial the provider accepted but whose Ringing write
// never landed. The call is moved out of Queued with the provider id kept in
// metadata so it can be traced by hand.
func (m *Manager) markUnrecorded(ctx context.Context, call Call, providerCallID string, cause error) error {
	failed := StatusFailed
	end := m.clock().UTC()
	if _, err := m.calls.Update(ctx, call.ID, Patch{
		Status:  &failed,
		EndTime: &end,
		Metadata: map[string]any{
			"error":            "provider call id not recorded",
			"provider_call_id": providerCallID,
		},
	}); err != nil {
		m.log.Error("unrecorded call left queued",
			"call_id", call.ID, "provider_call_id", providerCallID, "error", err)
	}
	m.log.Error("call placed but not recorded",
		"call_id", call.ID, "provider_call_id", providerCallID, "error", cause)
	return &apperr.Error{Kind: apperr.KindInternal, Message: "call placed but not recorded", Err: cause}
}

func (m *Manager) Get(ctx context.Context, id string) (Call, error) {
	return m.calls.FindByID(ctx, id)
}

func (m *Manager) List(ctx context.Context, f Filter) ([]Call, error) {
	return m.calls.FindAll(ctx, f)
}

// Recording returns the recording URL for a call, asking the provider when
// the call has none stored yet. A URL found through the call lookup is kept
// on the call.
func (m *Manager) Recording(ctx context.Context, id string) (string, error) {
	c, err := m.calls.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	if c.RecordingURL != "" {
		return c.RecordingURL, nil
	}
	if c.ProviderCallID == "" {
		return "", apperr.NotFound("call has no provider call id")
	}
	rec, err := m.provider.GetRecording(ctx, c.ProviderCallID)
	if err != nil {
		return "", providerFailure(err)
	}
	if rec.URL != "" {
		return rec.URL, nil
	}

	pc, err := m.provider.GetCall(ctx, c.ProviderCallID)
	if err != nil {
		return "", providerFailure(err)
	}
	if pc.RecordingURL == "" {
		return "", apperr.NotFound("recording not available")
	}
	m.keepRecordingURL(ctx, c, pc.RecordingURL)
	return pc.RecordingURL, nil
}

func (m *Manager) keepRecordingURL(ctx context.Context, c Call, url string) {
	unlock, err := m.locker.Lock(ctx, c.ProviderCallID)
	if err != nil {
		m.log.Warn("recording url not stored", "call_id", c.ID, "error", err)
		return
	}
	defer unlock()

	cur, err := m.calls.FindByID(ctx, c.ID)
	if err != nil || cur.RecordingURL != "" {
		return
	}
	if _, err := m.calls.Update(ctx, c.ID, Patch{RecordingURL: &url}); err != nil {
		m.log.Warn("recording url not stored", "call_id", c.ID, "error", err)
	}
}

func providerFailure(err error) error {
	var pe *telephony.ProviderError
	if errors.As(err, &pe) {
		return apperr.Transport(pe.Message, err)
	}
	return apperr.Transport(err.Error(), err)
}

// UpdateInput is an operator edit of a call. Status changes follow the same
// forward-only lifecycle as provider events.
type UpdateInput struct {
	Status   *Status           `json:"status" validate:"omitempty,oneof=Queued Ringing 'In Progress' Completed Failed 'No Answer' Busy"`
	Outcome  *analysis.Outcome `json:"outcome" validate:"omitempty,oneof=Interested 'Not Interested' Callback 'Appointment Booked' 'No Answer' 'Wrong Number' Other"`
	Summary  *string           `json:"summary"`
	Metadata map[string]any    `json:"metadata"`
}

// Update applies an operator edit. Moving a call backwards or out of a
// terminal status is rejected; repeating the current status is allowed.
func (m *Manager) Update(ctx context.Context, id string, in UpdateInput) (Call, error) {
	if err := m.validate.Struct(in); err != nil {
		return Call{}, err
	}
	c, err := m.calls.FindByID(ctx, id)
	if err != nil {
		return Call{}, err
	}
	// Serialize with webhook deliveries for the same call.
	if c.ProviderCallID != "" {
		unlock, err := m.locker.Lock(ctx, c.ProviderCallID)
		if err != nil {
			return Call{}, err
		}
		defer unlock()
		if c, err = m.calls.FindByID(ctx, id); err != nil {
			return Call{}, err
		}
	}

	p := Patch{Outcome: in.Outcome, Summary: in.Summary, Metadata: in.Metadata}
	if in.Status != nil && *in.Status != c.Status {
		next := *in.Status
		if !c.Status.CanTransition(next) {
			return Call{}, apperr.Validation("cannot move call from " + string(c.Status) + " to " + string(next))
		}
		p.Status = &next
		if next.Terminal() && c.EndTime == nil {
			end := m.clock().UTC()
			p.EndTime = &end
		}
	}
	if p.Empty() {
		return c, nil
	}

	updated, err := m.calls.Update(ctx, id, p)
	if err != nil {
		return Call{}, err
	}
	m.log.Info("call updated", "call_id", id, "status", string(updated.Status))
	return updated, nil
}

// MapProviderStatus translates the provider status vocabulary. Unknown
// values map to In Progress.
func MapProviderStatus(s string) Status {
	switch s {
	case "queued":
		return StatusQueued
	case "ringing":
		return StatusRinging
	case "in-progress", "forwarding":
		return StatusInProgress
	case "ended":
		return StatusCompleted
	}
	return StatusInProgress
}

// leadStatusFor is the lead cascade for a resolved outcome.
func leadStatusFor(o analysis.Outcome) (leads.Status, bool) {
	switch o {
	case analysis.OutcomeAppointmentBooked:
		return leads.StatusAppointmentBooked, true
	case analysis.OutcomeInterested:
		return leads.StatusInterested, true
	case analysis.OutcomeNotInterested:
		return leads.StatusNotInterested, true
	}
	return "", false
}
