package leads

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/validate"
)

// Repository is the lead slice of the persistence port.
type Repository interface {
	Create(ctx context.Context, l Lead) (Lead, error)
	FindAll(ctx context.Context, f Filter) ([]Lead, error)
	FindByID(ctx context.Context, id string) (Lead, error)
	FindByPhone(ctx context.Context, phone string) (Lead, error)
	Update(ctx context.Context, id string, p Patch) (Lead, error)
	Delete(ctx context.Context, id string) (Lead, error)
}

type Service struct {
	repo     Repository
	validate *validate.Validator
	log      *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, validate: validate.New(), log: log}
}

type CreateInput struct {
	Name     string            `json:"name" validate:"required"`
	Phone    string            `json:"phone" validate:"required"`
	Email    string            `json:"email" validate:"omitempty,email"`
	Location string            `json:"location"`
	Status   Status            `json:"status" validate:"omitempty,oneof=New Contacted Interested 'Not Interested' Callback 'Appointment Booked' Closed"`
	Priority Priority          `json:"priority" validate:"omitempty,oneof=High Medium Low"`
	Budget   string            `json:"budget"`
	Source   string            `json:"source"`
	Notes    string            `json:"notes"`
	Metadata map[string]string `json:"metadata"`
}

type UpdateInput struct {
	Name     *string           `json:"name" validate:"omitempty,min=1"`
	Phone    *string           `json:"phone" validate:"omitempty,min=1"`
	Email    *string           `json:"email" validate:"omitempty"`
	Location *string           `json:"location"`
	Status   *Status           `json:"status" validate:"omitempty,oneof=New Contacted Interested 'Not Interested' Callback 'Appointment Booked' Closed"`
	Priority *Priority         `json:"priority" validate:"omitempty,oneof=High Medium Low"`
	Budget   *string           `json:"budget"`
	Notes    *string           `json:"notes"`
	Metadata map[string]string `json:"metadata"`
}

// Create stores a new lead. The phone is normalized first and must not belong
// to another lead.
func (s *Service) Create(ctx context.Context, in CreateInput) (Lead, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return Lead{}, err
	}
	phone, err := CleanPhone(in.Phone)
	if err != nil {
		return Lead{}, apperr.Validation(err.Error())
	}
	if err := s.ensurePhoneFree(ctx, phone, ""); err != nil {
		return Lead{}, err
	}

	l := Lead{
		Name:     in.Name,
		Phone:    phone,
		Email:    CleanEmail(in.Email),
		Location: strings.TrimSpace(in.Location),
		Status:   in.Status,
		Priority: in.Priority,
		Budget:   strings.TrimSpace(in.Budget),
		Source:   strings.TrimSpace(in.Source),
		Notes:    strings.TrimSpace(in.Notes),
		Metadata: in.Metadata,
	}
	if l.Status == "" {
		l.Status = StatusNew
	}
	if l.Priority == "" {
		l.Priority = PriorityMedium
	}
	if l.Source == "" {
		l.Source = SourceManual
	}
	l.Metadata = withRegion(l.Metadata, phone)

	return s.repo.Create(ctx, l)
}

// Update applies a partial update. Changing the phone re-checks uniqueness.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Lead, error) {
	if err := s.validate.Struct(in); err != nil {
		return Lead{}, err
	}
	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Lead{}, err
	}

	p := Patch{
		Name:     trimmed(in.Name),
		Location: trimmed(in.Location),
		Status:   in.Status,
		Priority: in.Priority,
		Budget:   trimmed(in.Budget),
		Notes:    trimmed(in.Notes),
		Metadata: in.Metadata,
	}
	if in.Email != nil {
		e := CleanEmail(*in.Email)
		p.Email = &e
	}
	if in.Phone != nil {
		phone, err := CleanPhone(*in.Phone)
		if err != nil {
			return Lead{}, apperr.Validation(err.Error())
		}
		if phone != cur.Phone {
			if err := s.ensurePhoneFree(ctx, phone, id); err != nil {
				return Lead{}, err
			}
			p.Phone = &phone
			md := p.Metadata
			if md == nil {
				md = cur.Metadata
			}
			p.Metadata = withRegion(md, phone)
		}
	}
	return s.repo.Update(ctx, id, p)
}

func (s *Service) Get(ctx context.Context, id string) (Lead, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Lead, error) {
	return s.repo.FindAll(ctx, f)
}

// Delete permanently removes a lead.
func (s *Service) Delete(ctx context.Context, id string) (Lead, error) {
	l, err := s.repo.Delete(ctx, id)
	if err != nil {
		return Lead{}, err
	}
	s.log.Info("lead deleted", "lead_id", l.ID, "phone", l.Phone)
	return l, nil
}

func (s *Service) ensurePhoneFree(ctx context.Context, phone, selfID string) error {
	existing, err := s.repo.FindByPhone(ctx, phone)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == selfID:
		return nil
	}
	if selfID == "" {
		return apperr.Conflict("lead with this phone number already exists", existing)
	}
	return apperr.Conflict("another lead with this phone number already exists", nil)
}

func withRegion(md map[string]string, phone string) map[string]string {
	region := PhoneRegion(phone)
	if region == "" {
		return md
	}
	out := make(map[string]string, len(md)+1)
	for k, v := range md {
		out[k] = v
	}
	out["region"] = region
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
