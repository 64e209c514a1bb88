package calls

import (
	"time"

	"sales-dialer/internal/analysis"
)

// Call is one outbound call attempt. Lead name and phone are snapshotted at
// creation so the record stays self-describing after lead edits.
//
// ProviderCallID is empty until the provider accepts the call; once set it is
// unique and is the only key webhook updates are matched on.
type Call struct {
	ID        string `json:"id" db:"id"`
	LeadID    string `json:"lead_id" db:"lead_id"`
	LeadName  string `json:"lead_name" db:"lead_name"`
	LeadPhone string `json:"lead_phone" db:"lead_phone"`

	ProviderCallID string `json:"provider_call_id,omitempty" db:"provider_call_id"`

	Status    Status             `json:"status" db:"status"`
	Outcome   analysis.Outcome   `json:"outcome,omitempty" db:"outcome"`
	Sentiment analysis.Sentiment `json:"sentiment,omitempty" db:"sentiment"`

	// Duration is in seconds; zero until completion.
	Duration  int        `json:"duration" db:"duration"`
	StartTime *time.Time `json:"start_time,omitempty" db:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty" db:"end_time"`

	Transcript   string `json:"transcript" db:"transcript"`
	Summary      string `json:"summary" db:"summary"`
	RecordingURL string `json:"recording_url,omitempty" db:"recording_url"`

	AppointmentScheduled bool       `json:"appointment_scheduled" db:"appointment_scheduled"`
	AppointmentDate      *time.Time `json:"appointment_date,omitempty" db:"appointment_date"`

	Metadata map[string]any `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusQueued     Status = "Queued"
	StatusRinging    Status = "Ringing"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
	StatusNoAnswer   Status = "No Answer"
	StatusBusy       Status = "Busy"
)

// Terminal reports whether no further status transitions are accepted.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoAnswer, StatusBusy:
		return true
	}
	return false
}

// rank orders statuses along the lifecycle; terminal statuses share the top rank.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusRinging:
		return 1
	case StatusInProgress:
		return 2
	}
	if s.Terminal() {
		return 3
	}
	return -1
}

// CanTransition reports whether a call in s may move to next.
// Transitions only move forward and never leave a terminal status.
func (s Status) CanTransition(next Status) bool {
	if s.Terminal() || next.rank() < 0 {
		return false
	}
	return next.rank() > s.rank()
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	ProviderCallID       *string
	Status               *Status
	Outcome              *analysis.Outcome
	Sentiment            *analysis.Sentiment
	Duration             *int
	StartTime            *time.Time
	EndTime              *time.Time
	Transcript           *string
	Summary              *string
	RecordingURL         *string
	AppointmentScheduled *bool
	AppointmentDate      *time.Time

	// Metadata keys are merged into the existing map.
	Metadata map[string]any
}

func (p Patch) Empty() bool {
	return p.ProviderCallID == nil && p.Status == nil && p.Outcome == nil && p.Sentiment == nil &&
		p.Duration == nil && p.StartTime == nil && p.EndTime == nil && p.Transcript == nil &&
		p.Summary == nil && p.RecordingURL == nil && p.AppointmentScheduled == nil &&
		p.AppointmentDate == nil && len(p.Metadata) == 0
}

func (p Patch) Apply(c *Call) {
	if p.ProviderCallID != nil {
		c.ProviderCallID = *p.ProviderCallID
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	if p.Outcome != nil {
		c.Outcome = *p.Outcome
	}
	if p.Sentiment != nil {
		c.Sentiment = *p.Sentiment
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.StartTime != nil {
		t := *p.StartTime
		c.StartTime = &t
	}
	if p.EndTime != nil {
		t := *p.EndTime
		c.EndTime = &t
	}
	if p.Transcript != nil {
		c.Transcript = *p.Transcript
	}
	if p.Summary != nil {
		c.Summary = *p.Summary
	}
	if p.RecordingURL != nil {
		c.RecordingURL = *p.RecordingURL
	}
	if p.AppointmentScheduled != nil {
		c.AppointmentScheduled = *p.AppointmentScheduled
	}
	if p.AppointmentDate != nil {
		t := *p.AppointmentDate
		c.AppointmentDate = &t
	}
	if len(p.Metadata) > 0 {
		md := make(map[string]any, len(c.Metadata)+len(p.Metadata))
		for k, v := range c.Metadata {
			md[k] = v
		}
		for k, v := range p.Metadata {
			md[k] = v
		}
		c.Metadata = md
	}
}

// Filter is an exact-match conjunction; empty fields match everything.
type Filter struct {
	LeadID string
	Status Status
}

func (f Filter) Match(c Call) bool {
	if f.LeadID != "" && c.LeadID != f.LeadID {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// Group fields accepted by CountBy. Empty values are not counted.
const (
	GroupByStatus    = "status"
	GroupByOutcome   = "outcome"
	GroupBySentiment = "sentiment"
)

func (c Call) GroupValue(field string) (string, bool) {
	switch field {
	case GroupByStatus:
		return string(c.Status), true
	case GroupByOutcome:
		return string(c.Outcome), true
	case GroupBySentiment:
		return string(c.Sentiment), true
	}
	return "", false
}
