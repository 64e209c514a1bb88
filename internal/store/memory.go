package store

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"sales-dialer/internal/appointments"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/leads"
	"sales-dialer/pkg/apperr"

	"github.com/google/uuid"
)

// Memory is the volatile backend. Contents are lost on restart.
type Memory struct {
	mu  sync.RWMutex
	seq uint64

	leads        map[string]memRecord[leads.Lead]
	calls        map[string]memRecord[calls.Call]
	appointments map[string]memRecord[appointments.Appointment]

	now func() time.Time
}

// memRecord keeps insertion order so equal timestamps still sort stably.
type memRecord[T any] struct {
	seq uint64
	v   T
}

func NewMemory() *Memory {
	return &Memory{
		leads:        map[string]memRecord[leads.Lead]{},
		calls:        map[string]memRecord[calls.Call]{},
		appointments: map[string]memRecord[appointments.Appointment]{},
		now:          time.Now,
	}
}

func (m *Memory) Leads() LeadStore               { return memLeads{m} }
func (m *Memory) Calls() CallStore               { return memCalls{m} }
func (m *Memory) Appointments() AppointmentStore { return memAppointments{m} }

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) next() uint64 {
	m.seq++
	return m.seq
}

// newestFirst sorts by created_at descending, then by insertion descending.
func newestFirst[T any](recs []memRecord[T], created func(T) time.Time) []T {
	sort.Slice(recs, func(i, j int) bool {
		ci, cj := created(recs[i].v), created(recs[j].v)
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return recs[i].seq > recs[j].seq
	})
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = r.v
	}
	return out
}

// ---- leads ----

type memLeads struct{ m *Memory }

func cloneLead(l leads.Lead) leads.Lead {
	l.Metadata = maps.Clone(l.Metadata)
	if l.LastContactedAt != nil {
		t := *l.LastContactedAt
		l.LastContactedAt = &t
	}
	return l
}

func (s memLeads) phoneOwner(phone, exceptID string) (leads.Lead, bool) {
	for id, r := range s.m.leads {
		if id != exceptID && r.v.Phone == phone {
			return r.v, true
		}
	}
	return leads.Lead{}, false
}

func (s memLeads) insert(l leads.Lead, now time.Time) leads.Lead {
	l.ID = uuid.NewString()
	l.CreatedAt = now
	l.UpdatedAt = now
	l = cloneLead(l)
	s.m.leads[l.ID] = memRecord[leads.Lead]{seq: s.m.next(), v: l}
	return cloneLead(l)
}

func (s memLeads) Create(ctx context.Context, l leads.Lead) (leads.Lead, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if existing, ok := s.phoneOwner(l.Phone, ""); ok {
		return leads.Lead{}, apperr.Conflict(msgDuplicatePhone, cloneLead(existing))
	}
	return s.insert(l, s.m.now().UTC()), nil
}

func (s memLeads) CreateMany(ctx context.Context, ls []leads.Lead) ([]leads.Lead, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	seen := make(map[string]struct{}, len(ls))
	for _, l := range ls {
		if existing, ok := s.phoneOwner(l.Phone, ""); ok {
			return nil, apperr.Conflict(msgDuplicatePhone, cloneLead(existing))
		}
		if _, dup := seen[l.Phone]; dup {
			return nil, apperr.Conflict(msgDuplicatePhone, nil)
		}
		seen[l.Phone] = struct{}{}
	}
	now := s.m.now().UTC()
	out := make([]leads.Lead, 0, len(ls))
	for _, l := range ls {
		out = append(out, s.insert(l, now))
	}
	return out, nil
}

func (s memLeads) FindAll(ctx context.Context, f leads.Filter) ([]leads.Lead, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	recs := make([]memRecord[leads.Lead], 0, len(s.m.leads))
	for _, r := range s.m.leads {
		if f.Match(r.v) {
			recs = append(recs, memRecord[leads.Lead]{seq: r.seq, v: cloneLead(r.v)})
		}
	}
	return newestFirst(recs, func(l leads.Lead) time.Time { return l.CreatedAt }), nil
}

func (s memLeads) FindByID(ctx context.Context, id string) (leads.Lead, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.leads[id]
	if !ok {
		return leads.Lead{}, apperr.NotFound(msgLeadNotFound)
	}
	return cloneLead(r.v), nil
}

func (s memLeads) FindByPhone(ctx context.Context, phone string) (leads.Lead, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if l, ok := s.phoneOwner(phone, ""); ok {
		return cloneLead(l), nil
	}
	return leads.Lead{}, apperr.NotFound(msgLeadNotFound)
}

func (s memLeads) Update(ctx context.Context, id string, p leads.Patch) (leads.Lead, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.leads[id]
	if !ok {
		return leads.Lead{}, apperr.NotFound(msgLeadNotFound)
	}
	if p.Phone != nil && *p.Phone != r.v.Phone {
		if existing, taken := s.phoneOwner(*p.Phone, id); taken {
			return leads.Lead{}, apperr.Conflict(msgDuplicatePhone, cloneLead(existing))
		}
	}
	p.Metadata = maps.Clone(p.Metadata)
	p.Apply(&r.v)
	r.v.UpdatedAt = s.m.now().UTC()
	s.m.leads[id] = r
	return cloneLead(r.v), nil
}

func (s memLeads) Delete(ctx context.Context, id string) (leads.Lead, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.leads[id]
	if !ok {
		return leads.Lead{}, apperr.NotFound(msgLeadNotFound)
	}
	delete(s.m.leads, id)
	return cloneLead(r.v), nil
}

func (s memLeads) IncrementCallCount(ctx context.Context, id string, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.leads[id]
	if !ok {
		return apperr.NotFound(msgLeadNotFound)
	}
	at = at.UTC()
	r.v.CallCount++
	r.v.LastContactedAt = &at
	r.v.UpdatedAt = s.m.now().UTC()
	s.m.leads[id] = r
	return nil
}

func (s memLeads) Count(ctx context.Context) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return len(s.m.leads), nil
}

func (s memLeads) CountBy(ctx context.Context, field string) (map[string]int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := map[string]int{}
	for _, r := range s.m.leads {
		v, ok := r.v.GroupValue(field)
		if !ok {
			return nil, apperr.Validation("unsupported group field: " + field)
		}
		if v != "" {
			out[v]++
		}
	}
	return out, nil
}

// ---- calls ----

type memCalls struct{ m *Memory }

func cloneCall(c calls.Call) calls.Call {
	c.Metadata = maps.Clone(c.Metadata)
	for _, tp := range []**time.Time{&c.StartTime, &c.EndTime, &c.AppointmentDate} {
		if *tp != nil {
			t := **tp
			*tp = &t
		}
	}
	return c
}

func (s memCalls) providerOwner(providerID, exceptID string) bool {
	if providerID == "" {
		return false
	}
	for id, r := range s.m.calls {
		if id != exceptID && r.v.ProviderCallID == providerID {
			return true
		}
	}
	return false
}

func (s memCalls) Create(ctx context.Context, c calls.Call) (calls.Call, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if s.providerOwner(c.ProviderCallID, "") {
		return calls.Call{}, apperr.Conflict(msgDuplicateProviderID, nil)
	}
	now := s.m.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	c = cloneCall(c)
	s.m.calls[c.ID] = memRecord[calls.Call]{seq: s.m.next(), v: c}
	return cloneCall(c), nil
}

func (s memCalls) FindAll(ctx context.Context, f calls.Filter) ([]calls.Call, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	recs := make([]memRecord[calls.Call], 0, len(s.m.calls))
	for _, r := range s.m.calls {
		if f.Match(r.v) {
			recs = append(recs, memRecord[calls.Call]{seq: r.seq, v: cloneCall(r.v)})
		}
	}
	return newestFirst(recs, func(c calls.Call) time.Time { return c.CreatedAt }), nil
}

func (s memCalls) FindByID(ctx context.Context, id string) (calls.Call, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.calls[id]
	if !ok {
		return calls.Call{}, apperr.NotFound(msgCallNotFound)
	}
	return cloneCall(r.v), nil
}

func (s memCalls) FindByProviderID(ctx context.Context, providerCallID string) (calls.Call, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	if providerCallID != "" {
		for _, r := range s.m.calls {
			if r.v.ProviderCallID == providerCallID {
				return cloneCall(r.v), nil
			}
		}
	}
	return calls.Call{}, apperr.NotFound(msgCallNotFound)
}

func (s memCalls) Update(ctx context.Context, id string, p calls.Patch) (calls.Call, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.calls[id]
	if !ok {
		return calls.Call{}, apperr.NotFound(msgCallNotFound)
	}
	if p.ProviderCallID != nil && s.providerOwner(*p.ProviderCallID, id) {
		return calls.Call{}, apperr.Conflict(msgDuplicateProviderID, nil)
	}
	p.Apply(&r.v)
	r.v = cloneCall(r.v)
	r.v.UpdatedAt = s.m.now().UTC()
	s.m.calls[id] = r
	return cloneCall(r.v), nil
}

func (s memCalls) Count(ctx context.Context) (int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	return len(s.m.calls), nil
}

func (s memCalls) CountBy(ctx context.Context, field string) (map[string]int, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	out := map[string]int{}
	for _, r := range s.m.calls {
		v, ok := r.v.GroupValue(field)
		if !ok {
			return nil, apperr.Validation("unsupported group field: " + field)
		}
		if v != "" {
			out[v]++
		}
	}
	return out, nil
}

func (s memCalls) AverageDuration(ctx context.Context) (float64, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	var sum, n int
	for _, r := range s.m.calls {
		if r.v.Duration > 0 {
			sum += r.v.Duration
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

// ---- appointments ----

type memAppointments struct{ m *Memory }

func cloneAppointment(a appointments.Appointment) appointments.Appointment {
	a.Metadata = maps.Clone(a.Metadata)
	for _, tp := range []**time.Time{&a.ReminderSentAt, &a.ConfirmedAt, &a.CancelledAt} {
		if *tp != nil {
			t := **tp
			*tp = &t
		}
	}
	return a
}

func (s memAppointments) Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	now := s.m.now().UTC()
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	a = cloneAppointment(a)
	s.m.appointments[a.ID] = memRecord[appointments.Appointment]{seq: s.m.next(), v: a}
	return cloneAppointment(a), nil
}

// FindAll orders by appointment date ascending.
func (s memAppointments) FindAll(ctx context.Context, f appointments.Filter) ([]appointments.Appointment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	recs := make([]memRecord[appointments.Appointment], 0, len(s.m.appointments))
	for _, r := range s.m.appointments {
		if f.Match(r.v) {
			recs = append(recs, memRecord[appointments.Appointment]{seq: r.seq, v: cloneAppointment(r.v)})
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		di, dj := recs[i].v.AppointmentDate, recs[j].v.AppointmentDate
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return recs[i].seq < recs[j].seq
	})
	out := make([]appointments.Appointment, len(recs))
	for i, r := range recs {
		out[i] = r.v
	}
	return out, nil
}

func (s memAppointments) FindByID(ctx context.Context, id string) (appointments.Appointment, error) {
	s.m.mu.RLock()
	defer s.m.mu.RUnlock()
	r, ok := s.m.appointments[id]
	if !ok {
		return appointments.Appointment{}, apperr.NotFound(msgAppointmentNotFound)
	}
	return cloneAppointment(r.v), nil
}

func (s memAppointments) Update(ctx context.Context, id string, p appointments.Patch) (appointments.Appointment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	r, ok := s.m.appointments[id]
	if !ok {
		return appointments.Appointment{}, apperr.NotFound(msgAppointmentNotFound)
	}
	p.Metadata = maps.Clone(p.Metadata)
	p.Apply(&r.v)
	r.v.UpdatedAt = s.m.now().UTC()
	s.m.appointments[id] = r
	return cloneAppointment(r.v), nil
}
