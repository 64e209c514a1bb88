package telephony

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventStatusUpdate    EventType = "status-update"
	EventEndOfCallReport EventType = "end-of-call-report"
)

const scheduleAppointmentFn = "scheduleAppointment"

// Event is a provider webhook normalized into the fields reconciliation uses.
// Absent values are zero, never missing.
type Event struct {
	Type         EventType
	CallID       string
	Status       string
	Duration     int
	Transcript   string
	Summary      string
	RecordingURL string
	Cost         decimal.Decimal
	EndedReason  string

	// Appointment is set when the assistant invoked scheduleAppointment.
	Appointment *AppointmentData
}

// AppointmentData holds the scheduleAppointment function parameters.
type AppointmentData struct {
	Date  string         `json:"date"`
	Time  string         `json:"time"`
	Notes string         `json:"notes"`
	Raw   map[string]any `json:"-"`
}

type webhookCall struct {
	ID           string           `json:"id"`
	Status       string           `json:"status"`
	Duration     *float64         `json:"duration"`
	Transcript   string           `json:"transcript"`
	Summary      string           `json:"summary"`
	RecordingURL string           `json:"recordingUrl"`
	Cost         *decimal.Decimal `json:"cost"`
	EndedReason  string           `json:"endedReason"`
}

type webhookFunctionCall struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}

type webhookMessage struct {
	Type         string               `json:"type"`
	Status       string               `json:"status"`
	Call         *webhookCall         `json:"call"`
	FunctionCall *webhookFunctionCall `json:"functionCall"`

	// Newer payloads put report fields on the message itself.
	DurationSeconds *float64         `json:"durationSeconds"`
	Transcript      string           `json:"transcript"`
	Summary         string           `json:"summary"`
	RecordingURL    string           `json:"recordingUrl"`
	Cost            *decimal.Decimal `json:"cost"`
	EndedReason     string           `json:"endedReason"`
}

type webhookEnvelope struct {
	webhookMessage
	Message *webhookMessage `json:"message"`
}

var (
	ErrMalformedPayload = errors.New("telephony: malformed webhook payload")
	ErrMissingCallID    = errors.New("telephony: webhook payload has no call id")
)

// ParseWebhook normalizes a provider payload. Both the flat shape
// {type, call, functionCall} and the {message: {...}} envelope are accepted.
// A functionCall beside the envelope is used when the message carries none.
func ParseWebhook(body []byte) (Event, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	m := env.webhookMessage
	if env.Message != nil {
		m = *env.Message
		if m.FunctionCall == nil {
			m.FunctionCall = env.FunctionCall
		}
	}
	if m.Call == nil || m.Call.ID == "" {
		return Event{Type: EventType(m.Type)}, ErrMissingCallID
	}

	c := m.Call
	ev := Event{
		Type:         EventType(m.Type),
		CallID:       c.ID,
		Status:       firstNonEmpty(c.Status, m.Status),
		Transcript:   firstNonEmpty(c.Transcript, m.Transcript),
		Summary:      firstNonEmpty(c.Summary, m.Summary),
		RecordingURL: firstNonEmpty(c.RecordingURL, m.RecordingURL),
		EndedReason:  firstNonEmpty(c.EndedReason, m.EndedReason),
	}
	switch {
	case c.Duration != nil:
		ev.Duration = seconds(*c.Duration)
	case m.DurationSeconds != nil:
		ev.Duration = seconds(*m.DurationSeconds)
	}
	switch {
	case c.Cost != nil:
		ev.Cost = *c.Cost
	case m.Cost != nil:
		ev.Cost = *m.Cost
	}

	if fc := m.FunctionCall; fc != nil && fc.Name == scheduleAppointmentFn {
		ev.Appointment = &AppointmentData{
			Date:  stringParam(fc.Parameters, "date"),
			Time:  stringParam(fc.Parameters, "time"),
			Notes: stringParam(fc.Parameters, "notes"),
			Raw:   fc.Parameters,
		}
	}
	return ev, nil
}

func seconds(f float64) int {
	if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
