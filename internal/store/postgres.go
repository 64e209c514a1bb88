package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sales-dialer/pkg/apperr"
	"sales-dialer/pkg/utils"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Postgres is the durable backend on database/sql with the pgx driver.
type Postgres struct {
	db          *sql.DB
	pingTimeout time.Duration
	now         func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, pingTimeout: 3 * time.Second, now: time.Now}
}

// OpenPostgres connects, pings and applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string, pool utils.PostgresPoolConfig) (*Postgres, error) {
	db, err := utils.OpenPostgres(ctx, "pgx", dsn, pool)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgres(db), nil
}

// Migrate applies the embedded schema migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Leads() LeadStore               { return pgLeads{p} }
func (p *Postgres) Calls() CallStore               { return pgCalls{p} }
func (p *Postgres) Appointments() AppointmentStore { return pgAppointments{p} }

func (p *Postgres) Ping(ctx context.Context) error {
	return utils.HealthCheck(ctx, p.db, p.pingTimeout)
}

func (p *Postgres) Close() error { return p.db.Close() }

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// where accumulates AND-ed equality conditions with positional args.
type where struct {
	conds []string
	args  []any
}

func (w *where) eq(column string, v string) {
	if v == "" {
		return
	}
	w.args = append(w.args, v)
	w.conds = append(w.conds, column+" = $"+strconv.Itoa(len(w.args)))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "{}", nil
	}
	return string(b), nil
}

func unmarshalJSON[T any](raw []byte) (map[string]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]T
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	return m, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFound(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(msg)
	}
	return apperr.Internal(err)
}

func countBy(ctx context.Context, q querier, table, column string) (map[string]int, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+column+`, COUNT(*) FROM `+table+` WHERE `+column+` <> '' GROUP BY `+column)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return nil, apperr.Internal(err)
		}
		out[k] = n
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func count(ctx context.Context, q querier, table string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

func newID() string { return uuid.NewString() }
