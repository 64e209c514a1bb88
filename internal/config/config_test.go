package config

import (
	"strings"
	"testing"
	"time"
)

func TestValidate_ReportsMissingEnv(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := Config{App: AppConfig{Env: "local"}}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.App.Port != 8080 {
		t.Fatalf("expected default port, got %d", c.App.Port)
	}
	if c.DurableStoreEnabled() || c.RedisEnabled() || c.AuthEnabled() {
		t.Fatalf("expected optional backends disabled")
	}
	if c.Vapi.BaseURL != "https://api.vapi.ai" || c.Vapi.Timeout != 30*time.Second {
		t.Fatalf("unexpected vapi defaults: %+v", c.Vapi)
	}
	if c.Company.Project != "Shilp City Residency" || c.Company.Address != "Bhubaneswar, Odisha" {
		t.Fatalf("unexpected company defaults: %+v", c.Company)
	}
	if len(c.HTTP.CORSOrigins) != 3 {
		t.Fatalf("expected default cors origins, got %v", c.HTTP.CORSOrigins)
	}
}

func TestValidate_DurableStoreDefaultsSSLMode(t *testing.T) {
	c := Config{
		App: AppConfig{Env: "local"},
		DB:  DBConfig{Host: "localhost", User: "postgres", Name: "dialer"},
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" || c.DB.Port != 5432 {
		t.Fatalf("unexpected db defaults: %+v", c.DB)
	}
}

func TestValidate_ProductionRequirements(t *testing.T) {
	c := Config{
		App: AppConfig{Env: "production"},
		DB:  DBConfig{Host: "db", User: "postgres", Name: "dialer"},
	}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected production errors")
	}
	for _, want := range []string{"DB_SSLMODE", "JWT_SECRET", "VAPI_API_KEY", "VAPI_ASSISTANT_ID"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err.Error())
		}
	}
}

func TestValidate_AuthNeedsOperatorKey(t *testing.T) {
	c := Config{App: AppConfig{Env: "dev"}, Auth: AuthConfig{JWTSecret: "s"}}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected operator key error")
	}
	c.Auth.OperatorKey = "k"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected default access ttl")
	}

	c.Auth.AgentKey = "k"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "AUTH_AGENT_KEY") {
		t.Fatalf("expected agent key collision error, got %v", err)
	}
}

func TestFromEnv_ParsesValues(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("VAPI_TIMEOUT", "5s")
	t.Setenv("VAPI_RATE_PER_SEC", "2.5")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.App.Port != 9090 || c.HTTPAddr() != ":9090" {
		t.Fatalf("unexpected port %d", c.App.Port)
	}
	if len(c.HTTP.CORSOrigins) != 2 || c.HTTP.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", c.HTTP.CORSOrigins)
	}
	if c.Vapi.Timeout != 5*time.Second || c.Vapi.RatePerSecond != 2.5 {
		t.Fatalf("unexpected vapi config %+v", c.Vapi)
	}
}

func TestFromEnv_RejectsBadNumbers(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("APP_PORT", "eighty")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}
