package store

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"sales-dialer/internal/appointments"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/leads"
)

// Failover routes requests to the durable backend while it answers pings and
// to the volatile backend otherwise. Only the monitor in Run switches modes;
// errors on the request path never do.
type Failover struct {
	durable  Backend
	volatile Backend
	interval time.Duration
	log      *slog.Logger

	durableActive atomic.Bool
}

// NewFailover starts in durable mode when durable is non-nil. A nil durable
// backend pins the process to volatile mode.
func NewFailover(durable, volatile Backend, interval time.Duration, log *slog.Logger) *Failover {
	if log == nil {
		log = slog.Default()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	f := &Failover{durable: durable, volatile: volatile, interval: interval, log: log}
	if durable != nil {
		f.durableActive.Store(true)
	} else {
		log.Warn("storage degraded to volatile mode", "reason", "durable store not configured or unreachable")
	}
	return f
}

func (f *Failover) Mode() Mode {
	if f.durableActive.Load() {
		return ModeDurable
	}
	return ModeVolatile
}

func (f *Failover) current() Backend {
	if f.durableActive.Load() {
		return f.durable
	}
	return f.volatile
}

func (f *Failover) Leads() LeadStore               { return failoverLeads{f} }
func (f *Failover) Calls() CallStore               { return failoverCalls{f} }
func (f *Failover) Appointments() AppointmentStore { return failoverAppointments{f} }

func (f *Failover) Ping(ctx context.Context) error { return f.current().Ping(ctx) }

// Run pings the durable backend every interval until ctx is done.
func (f *Failover) Run(ctx context.Context) error {
	if f.durable == nil {
		return nil
	}
	t := time.NewTicker(f.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			f.check(ctx)
		}
	}
}

func (f *Failover) check(ctx context.Context) {
	err := f.durable.Ping(ctx)
	if ctx.Err() != nil {
		return
	}
	switch {
	case err != nil && f.durableActive.CompareAndSwap(true, false):
		f.log.Warn("storage degraded to volatile mode", "error", err)
	case err == nil && f.durableActive.CompareAndSwap(false, true):
		f.log.Info("durable storage restored")
	}
}

type failoverLeads struct{ f *Failover }

func (s failoverLeads) Create(ctx context.Context, l leads.Lead) (leads.Lead, error) {
	return s.f.current().Leads().Create(ctx, l)
}

func (s failoverLeads) CreateMany(ctx context.Context, ls []leads.Lead) ([]leads.Lead, error) {
	return s.f.current().Leads().CreateMany(ctx, ls)
}

func (s failoverLeads) FindAll(ctx context.Context, flt leads.Filter) ([]leads.Lead, error) {
	return s.f.current().Leads().FindAll(ctx, flt)
}

func (s failoverLeads) FindByID(ctx context.Context, id string) (leads.Lead, error) {
	return s.f.current().Leads().FindByID(ctx, id)
}

func (s failoverLeads) FindByPhone(ctx context.Context, phone string) (leads.Lead, error) {
	return s.f.current().Leads().FindByPhone(ctx, phone)
}

func (s failoverLeads) Update(ctx context.Context, id string, p leads.Patch) (leads.Lead, error) {
	return s.f.current().Leads().Update(ctx, id, p)
}

func (s failoverLeads) Delete(ctx context.Context, id string) (leads.Lead, error) {
	return s.f.current().Leads().Delete(ctx, id)
}

func (s failoverLeads) IncrementCallCount(ctx context.Context, id string, at time.Time) error {
	return s.f.current().Leads().IncrementCallCount(ctx, id, at)
}

func (s failoverLeads) Count(ctx context.Context) (int, error) {
	return s.f.current().Leads().Count(ctx)
}

func (s failoverLeads) CountBy(ctx context.Context, field string) (map[string]int, error) {
	return s.f.current().Leads().CountBy(ctx, field)
}

type failoverCalls struct{ f *Failover }

func (s failoverCalls) Create(ctx context.Context, c calls.Call) (calls.Call, error) {
	return s.f.current().Calls().Create(ctx, c)
}

func (s failoverCalls) FindAll(ctx context.Context, flt calls.Filter) ([]calls.Call, error) {
	return s.f.current().Calls().FindAll(ctx, flt)
}

func (s failoverCalls) FindByID(ctx context.Context, id string) (calls.Call, error) {
	return s.f.current().Calls().FindByID(ctx, id)
}

func (s failoverCalls) FindByProviderID(ctx context.Context, providerCallID string) (calls.Call, error) {
	return s.f.current().Calls().FindByProviderID(ctx, providerCallID)
}

func (s failoverCalls) Update(ctx context.Context, id string, p calls.Patch) (calls.Call, error) {
	return s.f.current().Calls().Update(ctx, id, p)
}

func (s failoverCalls) Count(ctx context.Context) (int, error) {
	return s.f.current().Calls().Count(ctx)
}

func (s failoverCalls) CountBy(ctx context.Context, field string) (map[string]int, error) {
	return s.f.current().Calls().CountBy(ctx, field)
}

func (s failoverCalls) AverageDuration(ctx context.Context) (float64, error) {
	return s.f.current().Calls().AverageDuration(ctx)
}

type failoverAppointments struct{ f *Failover }

func (s failoverAppointments) Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	return s.f.current().Appointments().Create(ctx, a)
}

func (s failoverAppointments) FindAll(ctx context.Context, flt appointments.Filter) ([]appointments.Appointment, error) {
	return s.f.current().Appointments().FindAll(ctx, flt)
}

func (s failoverAppointments) FindByID(ctx context.Context, id string) (appointments.Appointment, error) {
	return s.f.current().Appointments().FindByID(ctx, id)
}

func (s failoverAppointments) Update(ctx context.Context, id string, p appointments.Patch) (appointments.Appointment, error) {
	return s.f.current().Appointments().Update(ctx, id, p)
}
