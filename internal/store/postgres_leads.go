package store

import (
	"context"
	"database/sql"
	"time"

	"sales-dialer/internal/leads"
	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/utils"
)

const leadColumns = `id, name, phone, email, location, status, priority, budget, source, notes,
  call_count, last_contacted_at, metadata, created_at, updated_at`

var leadGroupColumns = map[string]string{
	leads.GroupByStatus:   "status",
	leads.GroupByPriority: "priority",
	leads.GroupBySource:   "source",
}

type pgLeads struct{ p *Postgres }

func scanLead(r rowScanner) (leads.Lead, error) {
	var l leads.Lead
	var md []byte
	if err := r.Scan(
		&l.ID,
		&l.Name,
		&l.Phone,
		&l.Email,
		&l.Location,
		&l.Status,
		&l.Priority,
		&l.Budget,
		&l.Source,
		&l.Notes,
		&l.CallCount,
		&l.LastContactedAt,
		&md,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return leads.Lead{}, err
	}
	m, err := unmarshalJSON[string](md)
	if err != nil {
		return leads.Lead{}, err
	}
	l.Metadata = m
	return l, nil
}

func insertLead(ctx context.Context, q querier, l leads.Lead) error {
	md, err := marshalJSON(l.Metadata)
	if err != nil {
		return err
	}
	const stmt = `
INSERT INTO leads (` + leadColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
`
	_, err = q.ExecContext(ctx, stmt,
		l.ID,
		l.Name,
		l.Phone,
		l.Email,
		l.Location,
		l.Status,
		l.Priority,
		l.Budget,
		l.Source,
		l.Notes,
		l.CallCount,
		l.LastContactedAt,
		md,
		l.CreatedAt,
		l.UpdatedAt,
	)
	return err
}

func (s pgLeads) duplicate(ctx context.Context, phone string) error {
	existing, err := s.FindByPhone(ctx, phone)
	if err != nil {
		return apperr.Conflict(msgDuplicatePhone, nil)
	}
	return apperr.Conflict(msgDuplicatePhone, existing)
}

func (s pgLeads) Create(ctx context.Context, l leads.Lead) (leads.Lead, error) {
	now := s.p.now().UTC()
	l.ID = newID()
	l.CreatedAt, l.UpdatedAt = now, now
	if err := insertLead(ctx, s.p.db, l); err != nil {
		if utils.IsUniqueViolation(err, "leads_phone_key") {
			return leads.Lead{}, s.duplicate(ctx, l.Phone)
		}
		return leads.Lead{}, apperr.Internal(err)
	}
	return l, nil
}

func (s pgLeads) CreateMany(ctx context.Context, ls []leads.Lead) ([]leads.Lead, error) {
	now := s.p.now().UTC()
	out := make([]leads.Lead, 0, len(ls))
	var dupPhone string
	err := utils.WithTx(ctx, s.p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for _, l := range ls {
			l.ID = newID()
			l.CreatedAt, l.UpdatedAt = now, now
			if err := insertLead(ctx, tx, l); err != nil {
				if utils.IsUniqueViolation(err, "leads_phone_key") {
					dupPhone = l.Phone
				}
				return err
			}
			out = append(out, l)
		}
		return nil
	})
	if err != nil {
		if dupPhone != "" {
			return nil, s.duplicate(ctx, dupPhone)
		}
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s pgLeads) FindAll(ctx context.Context, f leads.Filter) ([]leads.Lead, error) {
	var w where
	w.eq("status", string(f.Status))
	w.eq("priority", string(f.Priority))
	rows, err := s.p.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads`+w.String()+` ORDER BY created_at DESC, seq DESC`, w.args...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	out := make([]leads.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s pgLeads) FindByID(ctx context.Context, id string) (leads.Lead, error) {
	l, err := scanLead(s.p.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		return leads.Lead{}, notFound(err, msgLeadNotFound)
	}
	return l, nil
}

func (s pgLeads) FindByPhone(ctx context.Context, phone string) (leads.Lead, error) {
	l, err := scanLead(s.p.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE phone = $1`, phone))
	if err != nil {
		return leads.Lead{}, notFound(err, msgLeadNotFound)
	}
	return l, nil
}

func (s pgLeads) Update(ctx context.Context, id string, p leads.Patch) (leads.Lead, error) {
	var out leads.Lead
	err := utils.WithTx(ctx, s.p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		l, err := scanLead(tx.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, msgLeadNotFound)
		}
		p.Apply(&l)
		l.UpdatedAt = s.p.now().UTC()
		md, err := marshalJSON(l.Metadata)
		if err != nil {
			return err
		}
		const stmt = `
UPDATE leads SET name = $2, phone = $3, email = $4, location = $5, status = $6, priority = $7,
  budget = $8, notes = $9, metadata = $10, updated_at = $11
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, stmt,
			l.ID, l.Name, l.Phone, l.Email, l.Location, l.Status, l.Priority,
			l.Budget, l.Notes, md, l.UpdatedAt,
		); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		if utils.IsUniqueViolation(err, "leads_phone_key") && p.Phone != nil {
			return leads.Lead{}, s.duplicate(ctx, *p.Phone)
		}
		return leads.Lead{}, apperr.Internal(err)
	}
	return out, nil
}

func (s pgLeads) Delete(ctx context.Context, id string) (leads.Lead, error) {
	l, err := scanLead(s.p.db.QueryRowContext(ctx, `DELETE FROM leads WHERE id = $1 RETURNING `+leadColumns, id))
	if err != nil {
		return leads.Lead{}, notFound(err, msgLeadNotFound)
	}
	return l, nil
}

func (s pgLeads) IncrementCallCount(ctx context.Context, id string, at time.Time) error {
	res, err := s.p.db.ExecContext(ctx, `
UPDATE leads SET call_count = call_count + 1, last_contacted_at = $2, updated_at = $3
WHERE id = $1
`, id, at.UTC(), s.p.now().UTC())
	if err != nil {
		return apperr.Internal(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperr.NotFound(msgLeadNotFound)
	}
	return nil
}

func (s pgLeads) Count(ctx context.Context) (int, error) {
	return count(ctx, s.p.db, "leads")
}

func (s pgLeads) CountBy(ctx context.Context, field string) (map[string]int, error) {
	col, ok := leadGroupColumns[field]
	if !ok {
		return nil, apperr.Validation("unsupported group field: " + field)
	}
	return countBy(ctx, s.p.db, "leads", col)
}
