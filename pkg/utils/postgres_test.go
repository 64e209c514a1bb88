package utils

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestPostgresPoolConfigDefaults(t *testing.T) {
	c := PostgresPoolConfig{}.withDefaults()
	if c.MaxOpenConns != 25 || c.MaxIdleConns != 25 {
		t.Fatalf("unexpected conns: %+v", c)
	}
	if c.ConnMaxLifetime != 30*time.Minute || c.PingTimeout != 5*time.Second {
		t.Fatalf("unexpected durations: %+v", c)
	}
}

func TestPostgresPoolConfigKeepsOverrides(t *testing.T) {
	c := PostgresPoolConfig{MaxOpenConns: 5, PingTimeout: time.Second}.withDefaults()
	if c.MaxOpenConns != 5 || c.PingTimeout != time.Second {
		t.Fatalf("overrides lost: %+v", c)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "leads_phone_key"})
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation")
	}
	if !IsUniqueViolation(err, "leads_phone_key") {
		t.Fatalf("expected constraint match")
	}
	if IsUniqueViolation(err, "calls_provider_call_id_key") {
		t.Fatalf("unexpected constraint match")
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatalf("plain error is not a violation")
	}
}
