package store

import (
	"context"
	"database/sql"

	"sales-dialer/internal/appointments"
	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/utils"
)

const appointmentColumns = `id, lead_id, call_id, lead_name, lead_phone, lead_email,
  appointment_date, appointment_time, property_name, property_address, status, notes,
  reminder_sent, reminder_sent_at, confirmed_at, cancelled_at, cancellation_reason,
  metadata, created_at, updated_at`

type pgAppointments struct{ p *Postgres }

func scanAppointment(r rowScanner) (appointments.Appointment, error) {
	var a appointments.Appointment
	var md []byte
	if err := r.Scan(
		&a.ID,
		&a.LeadID,
		&a.CallID,
		&a.LeadName,
		&a.LeadPhone,
		&a.LeadEmail,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.PropertyName,
		&a.PropertyAddress,
		&a.Status,
		&a.Notes,
		&a.ReminderSent,
		&a.ReminderSentAt,
		&a.ConfirmedAt,
		&a.CancelledAt,
		&a.CancellationReason,
		&md,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, err
	}
	m, err := unmarshalJSON[string](md)
	if err != nil {
		return appointments.Appointment{}, err
	}
	a.Metadata = m
	return a, nil
}

func (s pgAppointments) Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error) {
	now := s.p.now().UTC()
	a.ID = newID()
	a.CreatedAt, a.UpdatedAt = now, now
	md, err := marshalJSON(a.Metadata)
	if err != nil {
		return appointments.Appointment{}, apperr.Internal(err)
	}
	const stmt = `
INSERT INTO appointments (` + appointmentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
`
	if _, err := s.p.db.ExecContext(ctx, stmt,
		a.ID,
		a.LeadID,
		a.CallID,
		a.LeadName,
		a.LeadPhone,
		a.LeadEmail,
		a.AppointmentDate,
		a.AppointmentTime,
		a.PropertyName,
		a.PropertyAddress,
		a.Status,
		a.Notes,
		a.ReminderSent,
		a.ReminderSentAt,
		a.ConfirmedAt,
		a.CancelledAt,
		a.CancellationReason,
		md,
		a.CreatedAt,
		a.UpdatedAt,
	); err != nil {
		return appointments.Appointment{}, apperr.Internal(err)
	}
	return a, nil
}

func (s pgAppointments) FindAll(ctx context.Context, f appointments.Filter) ([]appointments.Appointment, error) {
	var w where
	w.eq("lead_id", f.LeadID)
	w.eq("call_id", f.CallID)
	w.eq("status", string(f.Status))
	rows, err := s.p.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments`+w.String()+` ORDER BY appointment_date ASC, seq ASC`, w.args...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	out := make([]appointments.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func (s pgAppointments) FindByID(ctx context.Context, id string) (appointments.Appointment, error) {
	a, err := scanAppointment(s.p.db.QueryRowContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
	if err != nil {
		return appointments.Appointment{}, notFound(err, msgAppointmentNotFound)
	}
	return a, nil
}

func (s pgAppointments) Update(ctx context.Context, id string, p appointments.Patch) (appointments.Appointment, error) {
	var out appointments.Appointment
	err := utils.WithTx(ctx, s.p.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		a, err := scanAppointment(tx.QueryRowContext(ctx,
			`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return notFound(err, msgAppointmentNotFound)
		}
		p.Apply(&a)
		a.UpdatedAt = s.p.now().UTC()
		md, err := marshalJSON(a.Metadata)
		if err != nil {
			return err
		}
		const stmt = `
UPDATE appointments SET appointment_date = $2, appointment_time = $3, property_name = $4,
  property_address = $5, status = $6, notes = $7, reminder_sent = $8, reminder_sent_at = $9,
  confirmed_at = $10, cancelled_at = $11, cancellation_reason = $12, metadata = $13, updated_at = $14
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, stmt,
			a.ID,
			a.AppointmentDate,
			a.AppointmentTime,
			a.PropertyName,
			a.PropertyAddress,
			a.Status,
			a.Notes,
			a.ReminderSent,
			a.ReminderSentAt,
			a.ConfirmedAt,
			a.CancelledAt,
			a.CancellationReason,
			md,
			a.UpdatedAt,
		); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return appointments.Appointment{}, apperr.Internal(err)
	}
	return out, nil
}
