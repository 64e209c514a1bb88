package importer

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"sales-dialer/internal/leads"
	"sales-dialer/pkg/apperr"
)

// LeadStore is what an import needs from lead storage.
type LeadStore interface {
	FindByPhone(ctx context.Context, phone string) (leads.Lead, error)
	CreateMany(ctx context.Context, ls []leads.Lead) ([]leads.Lead, error)
}

// Duplicate is a parsed lead skipped because its phone is already taken.
type Duplicate struct {
	leads.Lead
	ExistingID string `json:"existing_id,omitempty"`
	Reason     string `json:"reason"`
}

// Report is the outcome of one upload.
type Report struct {
	Total         int          `json:"total"`
	Imported      int          `json:"imported"`
	Duplicates    int          `json:"duplicates"`
	Errors        int          `json:"errors"`
	Leads         []leads.Lead `json:"leads"`
	DuplicateList []Duplicate  `json:"duplicate_list"`
	ErrorList     []RowError   `json:"error_list"`
}

const (
	reasonExists     = "Phone number already exists"
	reasonRepeatedIn = "Phone number repeated in file"
)

type Importer struct {
	store LeadStore
	log   *slog.Logger
}

func New(store LeadStore, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{store: store, log: log}
}

// Import parses a workbook and stores every new lead in one batch. A workbook
// without a single valid row is a validation error carrying the row errors.
func (im *Importer) Import(ctx context.Context, r io.Reader) (Report, error) {
	parsed, err := Parse(r)
	if err != nil {
		return Report{}, apperr.Validation(err.Error())
	}
	if len(parsed.Valid) == 0 {
		return Report{}, &apperr.Error{
			Kind:    apperr.KindValidation,
			Message: "No valid leads found in Excel file",
			Details: nonNilErrors(parsed.Invalid),
		}
	}

	fresh := make([]leads.Lead, 0, len(parsed.Valid))
	dups := make([]Duplicate, 0)
	seen := make(map[string]struct{}, len(parsed.Valid))
	for _, l := range parsed.Valid {
		if _, ok := seen[l.Phone]; ok {
			dups = append(dups, Duplicate{Lead: l, Reason: reasonRepeatedIn})
			continue
		}
		seen[l.Phone] = struct{}{}

		existing, err := im.store.FindByPhone(ctx, l.Phone)
		switch {
		case err == nil:
			dups = append(dups, Duplicate{Lead: l, ExistingID: existing.ID, Reason: reasonExists})
			continue
		case !errors.Is(err, apperr.ErrNotFound):
			return Report{}, err
		}
		fresh = append(fresh, l)
	}

	saved := make([]leads.Lead, 0)
	if len(fresh) > 0 {
		if saved, err = im.store.CreateMany(ctx, fresh); err != nil {
			return Report{}, err
		}
	}

	im.log.Info("leads imported",
		"rows", len(parsed.Valid)+len(parsed.Invalid),
		"imported", len(saved),
		"duplicates", len(dups),
		"errors", len(parsed.Invalid),
	)
	return Report{
		Total:         len(parsed.Valid),
		Imported:      len(saved),
		Duplicates:    len(dups),
		Errors:        len(parsed.Invalid),
		Leads:         saved,
		DuplicateList: dups,
		ErrorList:     nonNilErrors(parsed.Invalid),
	}, nil
}

func nonNilErrors(errs []RowError) []RowError {
	if errs == nil {
		return []RowError{}
	}
	return errs
}
