// Package store is the persistence port for leads, calls and appointments.
//
// Two backends implement it: Memory (volatile, process-local) and Postgres
// (durable). Failover composes them and routes every request to whichever
// backend is currently active.
package store

import (
	"context"
	"time"

	"sales-dialer/internal/appointments"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/leads"
)

type LeadStore interface {
	Create(ctx context.Context, l leads.Lead) (leads.Lead, error)
	// CreateMany inserts all leads or none.
	CreateMany(ctx context.Context, ls []leads.Lead) ([]leads.Lead, error)
	FindAll(ctx context.Context, f leads.Filter) ([]leads.Lead, error)
	FindByID(ctx context.Context, id string) (leads.Lead, error)
	FindByPhone(ctx context.Context, phone string) (leads.Lead, error)
	Update(ctx context.Context, id string, p leads.Patch) (leads.Lead, error)
	Delete(ctx context.Context, id string) (leads.Lead, error)
	IncrementCallCount(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int, error)
	CountBy(ctx context.Context, field string) (map[string]int, error)
}

type CallStore interface {
	Create(ctx context.Context, c calls.Call) (calls.Call, error)
	FindAll(ctx context.Context, f calls.Filter) ([]calls.Call, error)
	FindByID(ctx context.Context, id string) (calls.Call, error)
	FindByProviderID(ctx context.Context, providerCallID string) (calls.Call, error)
	Update(ctx context.Context, id string, p calls.Patch) (calls.Call, error)
	Count(ctx context.Context) (int, error)
	// CountBy skips records whose group value is empty.
	CountBy(ctx context.Context, field string) (map[string]int, error)
	// AverageDuration averages positive durations in seconds; zero when none.
	AverageDuration(ctx context.Context) (float64, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error)
	FindAll(ctx context.Context, f appointments.Filter) ([]appointments.Appointment, error)
	FindByID(ctx context.Context, id string) (appointments.Appointment, error)
	Update(ctx context.Context, id string, p appointments.Patch) (appointments.Appointment, error)
}

// Backend is one complete storage implementation.
type Backend interface {
	Leads() LeadStore
	Calls() CallStore
	Appointments() AppointmentStore
	Ping(ctx context.Context) error
}

type Mode string

const (
	ModeDurable  Mode = "durable"
	ModeVolatile Mode = "volatile"
)

const (
	msgLeadNotFound        = "lead not found"
	msgCallNotFound        = "call not found"
	msgAppointmentNotFound = "appointment not found"
	msgDuplicatePhone      = "lead with this phone number already exists"
	msgDuplicateProviderID = "call with this provider id already exists"
)
