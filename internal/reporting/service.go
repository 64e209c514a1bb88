package reporting

import (
	"context"
	"errors"

	"sales-dialer/internal/analysis"
	"sales-dialer/internal/calls"
	"sales-dialer/internal/leads"
)

// LeadCounter is the aggregate slice of lead storage.
type LeadCounter interface {
	Count(ctx context.Context) (int, error)
	CountBy(ctx context.Context, field string) (map[string]int, error)
}

// CallCounter is the aggregate slice of call storage.
type CallCounter interface {
	Count(ctx context.Context) (int, error)
	CountBy(ctx context.Context, field string) (map[string]int, error)
	AverageDuration(ctx context.Context) (float64, error)
}

type Service struct {
	leads LeadCounter
	calls CallCounter
}

func NewService(leads LeadCounter, calls CallCounter) *Service {
	return &Service{leads: leads, calls: calls}
}

func (s *Service) LeadStats(ctx context.Context) (LeadStats, error) {
	if s.leads == nil {
		return LeadStats{}, errors.New("reporting: lead store not configured")
	}
	total, err := s.leads.Count(ctx)
	if err != nil {
		return LeadStats{}, err
	}
	out := LeadStats{Total: total}
	groups := []struct {
		field string
		dst   *map[string]int
	}{
		{leads.GroupByStatus, &out.ByStatus},
		{leads.GroupByPriority, &out.ByPriority},
		{leads.GroupBySource, &out.BySource},
	}
	for _, g := range groups {
		m, err := s.leads.CountBy(ctx, g.field)
		if err != nil {
			return LeadStats{}, err
		}
		*g.dst = nonNil(m)
	}
	return out, nil
}

func (s *Service) CallStats(ctx context.Context) (CallStats, error) {
	if s.calls == nil {
		return CallStats{}, errors.New("reporting: call store not configured")
	}
	total, err := s.calls.Count(ctx)
	if err != nil {
		return CallStats{}, err
	}
	out := CallStats{Total: total}
	groups := []struct {
		field string
		dst   *map[string]int
	}{
		{calls.GroupByStatus, &out.ByStatus},
		{calls.GroupByOutcome, &out.ByOutcome},
		{calls.GroupBySentiment, &out.BySentiment},
	}
	for _, g := range groups {
		m, err := s.calls.CountBy(ctx, g.field)
		if err != nil {
			return CallStats{}, err
		}
		*g.dst = nonNil(m)
	}
	if out.AvgDuration, err = s.calls.AverageDuration(ctx); err != nil {
		return CallStats{}, err
	}

	if out.Total > 0 {
		out.ConnectionRate = float64(out.ByStatus[string(calls.StatusCompleted)]) / float64(out.Total)
		out.ConversionRate = float64(out.ByOutcome[string(analysis.OutcomeAppointmentBooked)]) / float64(out.Total)
	}
	return out, nil
}

func nonNil(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
