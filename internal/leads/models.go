package leads

import "time"

// Lead is a prospective customer. Phone is the unique business key.
type Lead struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Phone    string `json:"phone" db:"phone"`
	Email    string `json:"email,omitempty" db:"email"`
	Location string `json:"location,omitempty" db:"location"`

	Status   Status   `json:"status" db:"status"`
	Priority Priority `json:"priority" db:"priority"`
	Budget   string   `json:"budget,omitempty" db:"budget"`
	Source   string   `json:"source" db:"source"`
	Notes    string   `json:"notes,omitempty" db:"notes"`

	// Engagement counters are only moved by call initiation.
	CallCount       int        `json:"call_count" db:"call_count"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty" db:"last_contacted_at"`

	Metadata map[string]string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusNew               Status = "New"
	StatusContacted         Status = "Contacted"
	StatusInterested        Status = "Interested"
	StatusNotInterested     Status = "Not Interested"
	StatusCallback          Status = "Callback"
	StatusAppointmentBooked Status = "Appointment Booked"
	StatusClosed            Status = "Closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusInterested, StatusNotInterested,
		StatusCallback, StatusAppointmentBooked, StatusClosed:
		return true
	}
	return false
}

type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

const (
	SourceManual      = "Manual"
	SourceExcelImport = "Excel Import"
)

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name     *string
	Phone    *string
	Email    *string
	Location *string
	Status   *Status
	Priority *Priority
	Budget   *string
	Notes    *string

	// Metadata replaces the whole map when non-nil.
	Metadata map[string]string
}

func (p Patch) Apply(l *Lead) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Location != nil {
		l.Location = *p.Location
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Priority != nil {
		l.Priority = *p.Priority
	}
	if p.Budget != nil {
		l.Budget = *p.Budget
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if p.Metadata != nil {
		l.Metadata = p.Metadata
	}
}

// Filter is an exact-match conjunction; empty fields match everything.
type Filter struct {
	Status   Status
	Priority Priority
}

func (f Filter) Match(l Lead) bool {
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.Priority != "" && l.Priority != f.Priority {
		return false
	}
	return true
}

// Group fields accepted by CountBy.
const (
	GroupByStatus   = "status"
	GroupByPriority = "priority"
	GroupBySource   = "source"
)

// GroupValue returns the value of a CountBy field, or false for unknown fields.
func (l Lead) GroupValue(field string) (string, bool) {
	switch field {
	case GroupByStatus:
		return string(l.Status), true
	case GroupByPriority:
		return string(l.Priority), true
	case GroupBySource:
		return l.Source, true
	}
	return "", false
}
