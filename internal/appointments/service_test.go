package appointments

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"sales-dialer/internal/leads"
	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/logger"
)

type memRepo struct {
	mu   sync.Mutex
	seq  int
	byID map[string]Appointment
}

func newMemRepo() *memRepo { return &memRepo{byID: map[string]Appointment{}} }

func (r *memRepo) Create(ctx context.Context, a Appointment) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = "appt-" + strconv.Itoa(r.seq)
	r.byID[a.ID] = a
	return a, nil
}

func (r *memRepo) FindAll(ctx context.Context, f Filter) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Appointment
	for _, a := range r.byID {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, apperr.NotFound("appointment not found")
	}
	return a, nil
}

func (r *memRepo) Update(ctx context.Context, id string, p Patch) (Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, apperr.NotFound("appointment not found")
	}
	p.Apply(&a)
	r.byID[id] = a
	return a, nil
}

type fakeLeads map[string]leads.Lead

func (f fakeLeads) FindByID(ctx context.Context, id string) (leads.Lead, error) {
	l, ok := f[id]
	if !ok {
		return leads.Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func newTestService() (*Service, *memRepo) {
	repo := newMemRepo()
	lk := fakeLeads{"lead-1": {ID: "lead-1", Name: "Rajesh Kumar", Phone: "+919876543210", Email: "rajesh@example.com"}}
	svc := NewService(repo, lk, Defaults{PropertyName: "Shilp City Residency", PropertyAddress: "Bhubaneswar, Odisha"}, logger.Discard())
	svc.clock = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		date, clock string
		want        time.Time
		ok          bool
	}{
		{"2025-03-15T10:30:00Z", "", time.Date(2025, 3, 15, 10, 30, 0, 0, time.UTC), true},
		{"2025-03-15 16:00", "", time.Date(2025, 3, 15, 16, 0, 0, 0, time.UTC), true},
		{"2025-03-15", "11:15", time.Date(2025, 3, 15, 11, 15, 0, 0, time.UTC), true},
		{"2025-03-15", "", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"15/03/2025", "14:00", time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC), true},
		{"15-03-2025", "bogus", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), true},
		{"next tuesday", "10:00", time.Time{}, false},
		{"", "", time.Time{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseDate(tc.date, tc.clock, nil)
		if ok != tc.ok {
			t.Fatalf("ParseDate(%q,%q) ok=%v want %v", tc.date, tc.clock, ok, tc.ok)
		}
		if ok && !got.Equal(tc.want) {
			t.Fatalf("ParseDate(%q,%q)=%v want %v", tc.date, tc.clock, got, tc.want)
		}
	}
}

func TestCreate_SnapshotsLeadAndDefaults(t *testing.T) {
	svc, _ := newTestService()
	when := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	a, err := svc.Create(context.Background(), CreateInput{LeadID: "lead-1", AppointmentDate: when, AppointmentTime: "10:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.LeadName != "Rajesh Kumar" || a.LeadPhone != "+919876543210" || a.LeadEmail != "rajesh@example.com" {
		t.Fatalf("lead snapshot not copied: %+v", a)
	}
	if a.PropertyName != "Shilp City Residency" || a.PropertyAddress != "Bhubaneswar, Odisha" {
		t.Fatalf("defaults not applied: %+v", a)
	}
	if a.Status != StatusScheduled {
		t.Fatalf("status=%q want Scheduled", a.Status)
	}
}

func TestCreate_UnknownLead(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateInput{LeadID: "nope", AppointmentDate: time.Now(), AppointmentTime: "10:00"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreate_RequiresDateAndTime(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateInput{LeadID: "lead-1"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBookFromCall_Idempotent(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()
	b := Booking{LeadID: "lead-1", CallID: "call-1", Date: time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)}

	first, created, err := svc.BookFromCall(ctx, b)
	if err != nil || !created {
		t.Fatalf("first booking: created=%v err=%v", created, err)
	}
	if first.AppointmentTime != "10:00" {
		t.Fatalf("time=%q want 10:00", first.AppointmentTime)
	}
	second, created, err := svc.BookFromCall(ctx, b)
	if err != nil || created {
		t.Fatalf("second booking: created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Fatalf("second booking returned %s want %s", second.ID, first.ID)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected 1 appointment, got %d", len(repo.byID))
	}
}

func TestUpdate_StampsStatusTimes(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	a, err := svc.Create(ctx, CreateInput{LeadID: "lead-1", AppointmentDate: time.Now(), AppointmentTime: "10:00"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	confirmed := StatusConfirmed
	a, err = svc.Update(ctx, a.ID, UpdateInput{Status: &confirmed})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if a.ConfirmedAt == nil || !a.ConfirmedAt.Equal(svc.clock()) {
		t.Fatalf("confirmed_at not stamped: %+v", a.ConfirmedAt)
	}

	sent := true
	a, err = svc.Update(ctx, a.ID, UpdateInput{ReminderSent: &sent})
	if err != nil {
		t.Fatalf("reminder: %v", err)
	}
	if !a.ReminderSent || a.ReminderSentAt == nil {
		t.Fatalf("reminder not stamped: %+v", a)
	}

	cancelled := StatusCancelled
	reason := "buyer travelling"
	a, err = svc.Update(ctx, a.ID, UpdateInput{Status: &cancelled, CancellationReason: &reason})
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if a.CancelledAt == nil || a.CancellationReason != reason {
		t.Fatalf("cancel not recorded: %+v", a)
	}
}

func TestUpdate_RejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService()
	bad := Status("Postponed")
	_, err := svc.Update(context.Background(), "appt-1", UpdateInput{Status: &bad})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
