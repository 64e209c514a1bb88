package store

import (
	"context"
	"database/sql"

	"sales-dialer/internal/calls"
	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/utils"
)

const callColumns = `id, lead_id, lead_name, lead_phone, provider_call_id, status, outcome, sentiment,
  duration, start_time, end_time, transcript, summary, recording_url,
  appointment_scheduled, appointment_date, metadata, created_at, updated_at`

var callGroupColumns = map[string]string{
	calls.GroupByStatus:    "status",
	calls.GroupByOutcome:   "outcome",
	calls.GroupBySentiment: "sentiment",
}

type pgCalls struct{ p *Postgres }

func scanCall(r rowScanner) (calls.Call, error) {
	var c calls.Call
	var providerID sql.NullString
	var md []byte
	if err := r.Scan(
		&c.ID,
		&c.LeadID,
		&c.LeadName,
		&c.LeadPhone,
		&providerID,
		&c.Status,
		&c.Outcome,
		&c.Sentiment,
		&c.Duration,
		&c.StartTime,
		&c.EndTime,
		&c.Transcript,
		&c.Summary,
		&c.RecordingURL,
		&c.AppointmentScheduled,
		&c.AppointmentDate,
		&md,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return calls.Call{}, err
	}
	c.ProviderCallID = providerID.String
	m, err := unmarshalJSON[any](md)
	if err != nil {
		return calls.Call{}, err
	}
	c.Metadata = m
	return c, nil
}

func (s pgCalls) Create(ctx context.Context, c calls.Call) (calls.Call, error) {
	now := s.p.now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	md, err := marshalJSON(c.Metadata)
	if err != nil {
		return calls.Call{}, apperr.Internal(err)
	}
	const stmt = `
INSERT INTO calls (` + callColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`
	if _, err := s.p.db.ExecContext(ctx, stmt,
		c.ID,
		c.LeadID,
		c.LeadName,
		c.LeadPhone,
		nullString(c.ProviderCallID),
		c.Status,
		c.Outcome,
		c.Sentiment,
		c.Duration,
		c.StartTime,
		c.EndTime,
		c.Transcript,
		c.Summary,
		c.RecordingURL,
		c.AppointmentScheduled,
		c.AppointmentDate,
		md,
		c.CreatedAt,
		c.UpdatedAt,
	); err != nil {
		if utils.IsUniqueViolation(err, "calls_provider_call_id_key") {
			return calls.Call{}, apperr.Conflict(msgDuplicateProviderID, nil)
		}
		return calls.Call{}, apperr.Internal(err)
	}
	return c, nil
}

func (s pgCalls) FindAll(ctx context.Context, f calls.Filter) ([]calls.Call, error) {
	var w where
	w.eq("lead_id", f.LeadID)
	w.eq("status", string(f.Status))
	rows, err := s.p.db.QueryContext(ctx,
		`SELECT `+callColumns+` FROM calls`+w.String()+` ORDER BY created_at DESC, seq DESC`, w.args...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	out := make([]calls.Call, 0)
	for rows.Next() {
		c, err := scanCall(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s pgCalls) FindByID(ctx context.Context, id string) (calls.Call, error) {
	c, err := scanCall(s.p.db.QueryRowContext(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1`, id))
	if err != nil {
		return calls.Call{}, notFound(err, msgCallNotFound)
	}
	return c, nil
}

func (s pgCalls) FindByProviderID(ctx context.Context, providerCallID string) (calls.Call, error) {
	if providerCallID == "" {
		return calls.Call{}, apperr.NotFound(msgCallNotFound)
	}
	c, err := scanCall(s.p.db.QueryRowContext(ctx,
		`SELECT `+callColumns+` FROM calls WHERE provider_call_id = $1`, providerCallID))
	if err != nil {
		return calls.Call{}, notFound(err, msgCallNotFound)
	}
	return c, nil
}

func (s pgCalls) Update(ctx context.Context, id string, p calls.Patch) (calls.Call, error) {
	var out calls.Call
	err := utils.WithTx(ctx, s.p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		c, err := scanCall(tx.QueryRowContext(ctx, `SELECT `+callColumns+` FROM calls WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, msgCallNotFound)
		}
		p.Apply(&c)
		c.UpdatedAt = s.p.now().UTC()
		md, err := marshalJSON(c.Metadata)
		if err != nil {
			return err
		}
		const stmt = `
UPDATE calls SET provider_call_id = $2, status = $3, outcome = $4, sentiment = $5, duration = $6,
  start_time = $7, end_time = $8, transcript = $9, summary = $10, recording_url = $11,
  appointment_scheduled = $12, appointment_date = $13, metadata = $14, updated_at = $15
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, stmt,
			c.ID,
			nullString(c.ProviderCallID),
			c.Status,
			c.Outcome,
			c.Sentiment,
			c.Duration,
			c.StartTime,
			c.EndTime,
			c.Transcript,
			c.Summary,
			c.RecordingURL,
			c.AppointmentScheduled,
			c.AppointmentDate,
			md,
			c.UpdatedAt,
		); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		if utils.IsUniqueViolation(err, "calls_provider_call_id_key") {
			return calls.Call{}, apperr.Conflict(msgDuplicateProviderID, nil)
		}
		return calls.Call{}, apperr.Internal(err)
	}
	return out, nil
}

func (s pgCalls) Count(ctx context.Context) (int, error) {
	return count(ctx, s.p.db, "calls")
}

func (s pgCalls) CountBy(ctx context.Context, field string) (map[string]int, error) {
	col, ok := callGroupColumns[field]
	if !ok {
		return nil, apperr.Validation("unsupported group field: " + field)
	}
	return countBy(ctx, s.p.db, "calls", col)
}

func (s pgCalls) AverageDuration(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.p.db.QueryRowContext(ctx,
		`SELECT AVG(duration)::float8 FROM calls WHERE duration > 0`).Scan(&avg); err != nil {
		return 0, apperr.Internal(err)
	}
	return avg.Float64, nil
}
