package leads

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/logger"
)

type memRepo struct {
	mu    sync.Mutex
	seq   int
	leads map[string]Lead
}

func newMemRepo() *memRepo { return &memRepo{leads: map[string]Lead{}} }

func (r *memRepo) Create(ctx context.Context, l Lead) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	l.ID = "lead-" + strconv.Itoa(r.seq)
	r.leads[l.ID] = l
	return l, nil
}

func (r *memRepo) FindAll(ctx context.Context, f Filter) ([]Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Lead
	for _, l := range r.leads {
		if f.Match(l) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id string) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return Lead{}, apperr.NotFound("lead not found")
	}
	return l, nil
}

func (r *memRepo) FindByPhone(ctx context.Context, phone string) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.Phone == phone {
			return l, nil
		}
	}
	return Lead{}, apperr.NotFound("lead not found")
}

func (r *memRepo) Update(ctx context.Context, id string, p Patch) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return Lead{}, apperr.NotFound("lead not found")
	}
	p.Apply(&l)
	r.leads[id] = l
	return l, nil
}

func (r *memRepo) Delete(ctx context.Context, id string) (Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return Lead{}, apperr.NotFound("lead not found")
	}
	delete(r.leads, id)
	return l, nil
}

func TestService_CreateNormalizesAndDefaults(t *testing.T) {
	svc := NewService(newMemRepo(), logger.Discard())

	l, err := svc.Create(context.Background(), CreateInput{Name: "  Rajesh Kumar ", Phone: "98765 43210", Email: "Rajesh@Email.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Name != "Rajesh Kumar" || l.Phone != "+919876543210" || l.Email != "rajesh@email.com" {
		t.Fatalf("unexpected lead: %+v", l)
	}
	if l.Status != StatusNew || l.Priority != PriorityMedium || l.Source != SourceManual {
		t.Fatalf("unexpected defaults: %+v", l)
	}
	if l.Metadata["region"] != "IN" {
		t.Fatalf("expected region metadata, got %v", l.Metadata)
	}
}

func TestService_CreateRequiresNameAndPhone(t *testing.T) {
	svc := NewService(newMemRepo(), logger.Discard())
	_, err := svc.Create(context.Background(), CreateInput{Name: "x"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_CreateRejectsDuplicatePhone(t *testing.T) {
	svc := NewService(newMemRepo(), logger.Discard())
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{Name: "A", Phone: "+919876543210"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.Create(ctx, CreateInput{Name: "a ", Phone: "9876543210", Notes: "other casing"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected apperr")
	}
	if existing, ok := ae.Details.(Lead); !ok || existing.ID != first.ID {
		t.Fatalf("expected existing lead in details, got %+v", ae.Details)
	}
}

func TestService_UpdatePhoneChecksDuplicates(t *testing.T) {
	svc := NewService(newMemRepo(), logger.Discard())
	ctx := context.Background()

	a, _ := svc.Create(ctx, CreateInput{Name: "A", Phone: "9876543210"})
	b, _ := svc.Create(ctx, CreateInput{Name: "B", Phone: "9876543211"})

	phone := "9876543210"
	if _, err := svc.Update(ctx, b.ID, UpdateInput{Phone: &phone}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	same := "+91 98765 43210"
	status := StatusInterested
	got, err := svc.Update(ctx, a.ID, UpdateInput{Phone: &same, Status: &status})
	if err != nil {
		t.Fatalf("update own phone: %v", err)
	}
	if got.Status != StatusInterested || got.Phone != "+919876543210" {
		t.Fatalf("unexpected lead: %+v", got)
	}
}

func TestService_UpdateMissingLead(t *testing.T) {
	svc := NewService(newMemRepo(), logger.Discard())
	name := "x"
	if _, err := svc.Update(context.Background(), "nope", UpdateInput{Name: &name}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_UpdateRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemRepo(), logger.Discard())
	a, _ := svc.Create(context.Background(), CreateInput{Name: "A", Phone: "9876543210"})
	bad := Status("Maybe")
	if _, err := svc.Update(context.Background(), a.ID, UpdateInput{Status: &bad}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_Delete(t *testing.T) {
	svc := NewService(newMemRepo(), logger.Discard())
	ctx := context.Background()
	a, _ := svc.Create(ctx, CreateInput{Name: "A", Phone: "9876543210"})

	if _, err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found after delete")
	}
	if _, err := svc.Delete(ctx, a.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found on second delete")
	}
}
