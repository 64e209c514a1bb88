package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"sales-dialer/internal/appointments"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/leads"
	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/utils"
)

// Both backends must behave the same. The Postgres run needs STORE_TEST_DSN
// pointing at a disposable database; its tables are truncated.
const testDSNEnv = "STORE_TEST_DSN"

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestBackendContract_Memory(t *testing.T) {
	m := NewMemory()
	m.now = func() time.Time { return fixedNow }
	runBackendContract(t, m)
}

func TestBackendContract_Postgres(t *testing.T) {
	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", testDSNEnv)
	}
	ctx := context.Background()
	pg, err := OpenPostgres(ctx, dsn, utils.PostgresPoolConfig{})
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Close() })
	if _, err := pg.db.ExecContext(ctx, `TRUNCATE leads, calls, appointments`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	pg.now = func() time.Time { return fixedNow }
	runBackendContract(t, pg)
}

// Every record is created at the same instant so ordering falls to insertion.
func runBackendContract(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	batch, err := b.Leads().CreateMany(ctx, []leads.Lead{
		{Name: "A", Phone: "+919800000101", Status: leads.StatusNew},
		{Name: "B", Phone: "+919800000102", Status: leads.StatusNew},
		{Name: "C", Phone: "+919800000103", Status: leads.StatusNew},
	})
	if err != nil {
		t.Fatalf("create many: %v", err)
	}
	if _, err := b.Leads().Create(ctx, leads.Lead{Name: "D", Phone: "+919800000104", Status: leads.StatusNew}); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := b.Leads().FindAll(ctx, leads.Filter{})
	if err != nil {
		t.Fatalf("find all: %v", err)
	}
	var names string
	for _, l := range all {
		names += l.Name
	}
	if names != "DCBA" {
		t.Fatalf("expected newest-first insertion order DCBA, got %s", names)
	}

	_, err = b.Leads().Create(ctx, leads.Lead{Name: "Dup", Phone: "+919800000101", Status: leads.StatusNew})
	var ae *apperr.Error
	if !errors.As(err, &ae) || ae.Kind != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if existing, ok := ae.Details.(leads.Lead); !ok || existing.ID != batch[0].ID {
		t.Fatalf("conflict should carry the existing lead, got %#v", ae.Details)
	}

	name := "x"
	if _, err := b.Leads().Update(ctx, "missing", leads.Patch{Name: &name}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("lead update on missing id: %v", err)
	}
	st := calls.StatusRinging
	if _, err := b.Calls().Update(ctx, "missing", calls.Patch{Status: &st}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("call update on missing id: %v", err)
	}
	notes := "n"
	if _, err := b.Appointments().Update(ctx, "missing", appointments.Patch{Notes: &notes}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("appointment update on missing id: %v", err)
	}

	first, err := b.Calls().Create(ctx, calls.Call{LeadID: batch[0].ID, Status: calls.StatusQueued})
	if err != nil {
		t.Fatalf("create call: %v", err)
	}
	second, err := b.Calls().Create(ctx, calls.Call{LeadID: batch[0].ID, Status: calls.StatusQueued})
	if err != nil {
		t.Fatalf("create call: %v", err)
	}
	cs, err := b.Calls().FindAll(ctx, calls.Filter{LeadID: batch[0].ID})
	if err != nil || len(cs) != 2 || cs[0].ID != second.ID || cs[1].ID != first.ID {
		t.Fatalf("expected calls newest first, got %+v err=%v", cs, err)
	}

	day := time.Date(2025, 3, 5, 11, 0, 0, 0, time.UTC)
	a1, err := b.Appointments().Create(ctx, appointments.Appointment{LeadID: batch[0].ID, AppointmentDate: day, AppointmentTime: "11:00", Status: appointments.StatusScheduled})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	a2, err := b.Appointments().Create(ctx, appointments.Appointment{LeadID: batch[1].ID, AppointmentDate: day, AppointmentTime: "11:00", Status: appointments.StatusScheduled})
	if err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	as, err := b.Appointments().FindAll(ctx, appointments.Filter{})
	if err != nil || len(as) != 2 || as[0].ID != a1.ID || as[1].ID != a2.ID {
		t.Fatalf("expected same-day appointments in insertion order, got %+v err=%v", as, err)
	}

	deleted, err := b.Leads().Delete(ctx, batch[2].ID)
	if err != nil || deleted.Name != "C" {
		t.Fatalf("delete: %+v %v", deleted, err)
	}
	if _, err := b.Leads().FindByID(ctx, batch[2].ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("deleted lead still found: %v", err)
	}
}
