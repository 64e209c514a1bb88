package calls

import (
	"context"
	"errors"

	"sales-dialer/internal/analysis"
	"sales-dialer/internal/appointments"
	"sales-dialer/internal/leads"
	"sales-dialer/internal/telephony"
	"sales-dialer/pkg/apperr"
)

// Reconcile applies a normalized provider event to the call it names.
// Events for unknown provider ids are dropped. Deliveries for one provider id
// are serialized, and replaying an event leaves the call unchanged.
func (m *Manager) Reconcile(ctx context.Context, ev telephony.Event) error {
	log := m.log.With("provider_call_id", ev.CallID, "event", string(ev.Type))
	if ev.CallID == "" {
		log.Warn("webhook without call id dropped")
		return nil
	}

	unlock, err := m.locker.Lock(ctx, ev.CallID)
	if err != nil {
		return err
	}
	defer unlock()

	call, err := m.calls.FindByProviderID(ctx, ev.CallID)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Info("webhook for unknown call dropped")
		return nil
	}
	if err != nil {
		return err
	}

	switch ev.Type {
	case telephony.EventStatusUpdate:
		return m.applyStatus(ctx, call, ev)
	case telephony.EventEndOfCallReport:
		return m.applyReport(ctx, call, ev)
	default:
		log.Debug("webhook event ignored")
		return nil
	}
}

func (m *Manager) applyStatus(ctx context.Context, call Call, ev telephony.Event) error {
	next := MapProviderStatus(ev.Status)
	if !call.Status.CanTransition(next) {
		m.log.Debug("stale status ignored",
			"call_id", call.ID, "current", string(call.Status), "received", string(next))
		return nil
	}
	p := Patch{Status: &next}
	if next.Terminal() && call.EndTime == nil {
		end := m.clock().UTC()
		p.EndTime = &end
	}
	_, err := m.calls.Update(ctx, call.ID, p)
	return err
}

// applyReport completes the call from an end-of-call report. On a call that
// is already terminal only empty fields are filled. Sentiment, outcome and
// the lead cascade happen once, when the outcome is first resolved.
func (m *Manager) applyReport(ctx context.Context, call Call, ev telephony.Event) error {
	now := m.clock().UTC()
	var p Patch

	if !call.Status.Terminal() {
		completed := StatusCompleted
		p.Status = &completed
		p.EndTime = &now
		p.Duration = &ev.Duration
		p.Transcript = &ev.Transcript
		p.Summary = &ev.Summary
		p.RecordingURL = &ev.RecordingURL
	} else {
		if call.EndTime == nil {
			p.EndTime = &now
		}
		if call.Duration == 0 && ev.Duration > 0 {
			p.Duration = &ev.Duration
		}
		if call.Transcript == "" && ev.Transcript != "" {
			p.Transcript = &ev.Transcript
		}
		if call.Summary == "" && ev.Summary != "" {
			p.Summary = &ev.Summary
		}
		if call.RecordingURL == "" && ev.RecordingURL != "" {
			p.RecordingURL = &ev.RecordingURL
		}
	}

	md := map[string]any{}
	if ev.EndedReason != "" && call.Metadata["endedReason"] == nil {
		md["endedReason"] = ev.EndedReason
	}
	if !ev.Cost.IsZero() && call.Metadata["cost"] == nil {
		md["cost"] = ev.Cost.String()
	}

	var booking *appointments.Booking
	if ev.Appointment != nil && !call.AppointmentScheduled {
		scheduled := true
		p.AppointmentScheduled = &scheduled
		md["appointment"] = map[string]any{
			"date":  ev.Appointment.Date,
			"time":  ev.Appointment.Time,
			"notes": ev.Appointment.Notes,
		}
		if when, ok := appointments.ParseDate(ev.Appointment.Date, ev.Appointment.Time, m.loc); ok {
			p.AppointmentDate = &when
			booking = &appointments.Booking{
				LeadID: call.LeadID,
				CallID: call.ID,
				Date:   when,
				Time:   ev.Appointment.Time,
				Notes:  ev.Appointment.Notes,
			}
		} else {
			m.log.Warn("appointment date not understood", "call_id", call.ID, "date", ev.Appointment.Date)
		}
	}

	var outcome analysis.Outcome
	resolving := call.Outcome == ""
	if resolving {
		effective := call
		p.Apply(&effective)
		sentiment := analysis.AnalyzeSentiment(effective.Transcript)
		outcome = analysis.DetermineOutcome(effective.Transcript)
		p.Sentiment = &sentiment
		p.Outcome = &outcome
	}
	if len(md) > 0 {
		p.Metadata = md
	}

	if p.Empty() {
		m.log.Debug("duplicate end-of-call report ignored", "call_id", call.ID)
		return nil
	}
	if _, err := m.calls.Update(ctx, call.ID, p); err != nil {
		return err
	}

	// Lead and appointment writes are independent of the call write; their
	// failures are logged and the completed call stands.
	if resolving {
		if st, ok := leadStatusFor(outcome); ok {
			if _, err := m.leads.Update(ctx, call.LeadID, leads.Patch{Status: &st}); err != nil {
				m.log.Error("lead status cascade failed",
					"call_id", call.ID, "lead_id", call.LeadID, "outcome", string(outcome), "error", err)
			}
		}
	}
	if booking != nil && m.booker != nil {
		if _, _, err := m.booker.BookFromCall(ctx, *booking); err != nil {
			m.log.Error("appointment from call not created", "call_id", call.ID, "error", err)
		}
	}

	m.log.Info("call report applied",
		"call_id", call.ID, "outcome", string(outcome), "duration", ev.Duration)
	return nil
}
