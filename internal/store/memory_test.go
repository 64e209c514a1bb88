package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"sales-dialer/internal/analysis"
	"sales-dialer/internal/appointments"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/leads"
	"sales-dialer/pkg/apperr"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestMemory() *Memory {
	m := NewMemory()
	c := &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	m.now = c.now
	return m
}

func TestMemoryLeads_UniquePhoneAndOrder(t *testing.T) {
	ctx := context.Background()
	ls := newTestMemory().Leads()

	a, err := ls.Create(ctx, leads.Lead{Name: "A", Phone: "+919876543210"})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Fatalf("id/timestamps not assigned: %+v", a)
	}
	if _, err := ls.Create(ctx, leads.Lead{Name: "B", Phone: "+919876543211"}); err != nil {
		t.Fatalf("create b: %v", err)
	}

	_, err = ls.Create(ctx, leads.Lead{Name: "dup", Phone: "+919876543210"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Details.(leads.Lead).ID != a.ID {
		t.Fatalf("conflict should carry existing lead, got %+v", ae)
	}

	all, err := ls.FindAll(ctx, leads.Filter{})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	if len(all) != 2 || all[0].Name != "B" || all[1].Name != "A" {
		t.Fatalf("expected newest first [B A], got %+v", all)
	}
}

func TestMemoryLeads_UpdatePhoneConflict(t *testing.T) {
	ctx := context.Background()
	ls := newTestMemory().Leads()
	a, _ := ls.Create(ctx, leads.Lead{Name: "A", Phone: "+911111111111"})
	b, _ := ls.Create(ctx, leads.Lead{Name: "B", Phone: "+912222222222"})

	taken := a.Phone
	if _, err := ls.Update(ctx, b.ID, leads.Patch{Phone: &taken}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	same := b.Phone
	name := "Bee"
	got, err := ls.Update(ctx, b.ID, leads.Patch{Phone: &same, Name: &name})
	if err != nil {
		t.Fatalf("update own phone: %v", err)
	}
	if got.Name != "Bee" || !got.UpdatedAt.After(b.UpdatedAt) {
		t.Fatalf("update not applied or updated_at not stamped: %+v", got)
	}
}

func TestMemoryLeads_CreateManyAllOrNothing(t *testing.T) {
	ctx := context.Background()
	ls := newTestMemory().Leads()
	if _, err := ls.Create(ctx, leads.Lead{Name: "A", Phone: "+911111111111"}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := ls.CreateMany(ctx, []leads.Lead{
		{Name: "B", Phone: "+912222222222"},
		{Name: "A2", Phone: "+911111111111"},
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if n, _ := ls.Count(ctx); n != 1 {
		t.Fatalf("partial insert: count=%d", n)
	}

	out, err := ls.CreateMany(ctx, []leads.Lead{{Name: "B", Phone: "+912222222222"}, {Name: "C", Phone: "+913333333333"}})
	if err != nil || len(out) != 2 {
		t.Fatalf("create many: %v %d", err, len(out))
	}
}

func TestMemoryLeads_IncrementAndCountBy(t *testing.T) {
	ctx := context.Background()
	ls := newTestMemory().Leads()
	a, _ := ls.Create(ctx, leads.Lead{Name: "A", Phone: "+911111111111", Status: leads.StatusNew})
	_, _ = ls.Create(ctx, leads.Lead{Name: "B", Phone: "+912222222222", Status: leads.StatusInterested})
	_, _ = ls.Create(ctx, leads.Lead{Name: "C", Phone: "+913333333333", Status: leads.StatusNew})

	at := time.Date(2025, 2, 2, 10, 0, 0, 0, time.UTC)
	if err := ls.IncrementCallCount(ctx, a.ID, at); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := ls.IncrementCallCount(ctx, a.ID, at.Add(time.Hour)); err != nil {
		t.Fatalf("increment: %v", err)
	}
	got, _ := ls.FindByID(ctx, a.ID)
	if got.CallCount != 2 || got.LastContactedAt == nil || !got.LastContactedAt.Equal(at.Add(time.Hour)) {
		t.Fatalf("counter not bumped: %+v", got)
	}
	if err := ls.IncrementCallCount(ctx, "missing", at); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	by, err := ls.CountBy(ctx, leads.GroupByStatus)
	if err != nil {
		t.Fatalf("count by: %v", err)
	}
	if by["New"] != 2 || by["Interested"] != 1 {
		t.Fatalf("unexpected counts %+v", by)
	}
	if _, err := ls.CountBy(ctx, "phone"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestMemoryLeads_ReturnedMetadataIsACopy(t *testing.T) {
	ctx := context.Background()
	ls := newTestMemory().Leads()
	a, _ := ls.Create(ctx, leads.Lead{Name: "A", Phone: "+911111111111", Metadata: map[string]string{"region": "IN"}})
	a.Metadata["region"] = "US"
	got, _ := ls.FindByID(ctx, a.ID)
	if got.Metadata["region"] != "IN" {
		t.Fatalf("stored metadata was mutated: %+v", got.Metadata)
	}
}

func TestMemoryLeads_DeleteReturnsCopy(t *testing.T) {
	ctx := context.Background()
	m := newTestMemory()
	a, _ := m.Leads().Create(ctx, leads.Lead{Name: "A", Phone: "+911111111112", Metadata: map[string]string{"region": "IN"}})
	held := m.leads[a.ID].v.Metadata

	deleted, err := m.Leads().Delete(ctx, a.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	deleted.Metadata["region"] = "US"
	if held["region"] != "IN" {
		t.Fatalf("deleted lead shares its metadata with the store record")
	}
}

func TestMemoryCalls_ProviderIDAndStats(t *testing.T) {
	ctx := context.Background()
	cs := newTestMemory().Calls()

	c1, err := cs.Create(ctx, calls.Call{LeadID: "l1", Status: calls.StatusQueued})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c2, _ := cs.Create(ctx, calls.Call{LeadID: "l2", Status: calls.StatusQueued})

	pid := "vapi-1"
	if _, err := cs.Update(ctx, c1.ID, calls.Patch{ProviderCallID: &pid}); err != nil {
		t.Fatalf("set provider id: %v", err)
	}
	if _, err := cs.Update(ctx, c2.ID, calls.Patch{ProviderCallID: &pid}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on reused provider id, got %v", err)
	}
	got, err := cs.FindByProviderID(ctx, pid)
	if err != nil || got.ID != c1.ID {
		t.Fatalf("find by provider id: %v %+v", err, got)
	}
	if _, err := cs.FindByProviderID(ctx, ""); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("empty provider id should not match, got %v", err)
	}

	done := calls.StatusCompleted
	booked := analysis.OutcomeAppointmentBooked
	d := 120
	if _, err := cs.Update(ctx, c1.ID, calls.Patch{Status: &done, Outcome: &booked, Duration: &d,
		Metadata: map[string]any{"endedReason": "hangup"}}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	byOutcome, _ := cs.CountBy(ctx, calls.GroupByOutcome)
	if len(byOutcome) != 1 || byOutcome[string(booked)] != 1 {
		t.Fatalf("empty outcomes must be skipped: %+v", byOutcome)
	}
	avg, _ := cs.AverageDuration(ctx)
	if avg != 120 {
		t.Fatalf("avg=%v want 120", avg)
	}

	filtered, _ := cs.FindAll(ctx, calls.Filter{LeadID: "l2"})
	if len(filtered) != 1 || filtered[0].ID != c2.ID {
		t.Fatalf("filter by lead: %+v", filtered)
	}
}

func TestMemoryAppointments_AscendingByDate(t *testing.T) {
	ctx := context.Background()
	as := newTestMemory().Appointments()
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	_, _ = as.Create(ctx, appointments.Appointment{LeadID: "l1", AppointmentDate: base.Add(48 * time.Hour)})
	_, _ = as.Create(ctx, appointments.Appointment{LeadID: "l2", AppointmentDate: base})
	_, _ = as.Create(ctx, appointments.Appointment{LeadID: "l1", CallID: "c1", AppointmentDate: base.Add(24 * time.Hour)})

	all, _ := as.FindAll(ctx, appointments.Filter{})
	if len(all) != 3 || all[0].LeadID != "l2" || all[2].AppointmentDate != base.Add(48*time.Hour) {
		t.Fatalf("expected ascending by date, got %+v", all)
	}
	byCall, _ := as.FindAll(ctx, appointments.Filter{CallID: "c1"})
	if len(byCall) != 1 {
		t.Fatalf("filter by call: %+v", byCall)
	}
	if _, err := as.FindByID(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
