package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration required by the API process.
// Values come from the environment, optionally seeded from a .env file.
type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Auth    AuthConfig
	Vapi    VapiConfig
	HTTP    HTTPConfig
	Company CompanyConfig
	Store   StoreConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// DBConfig configures the durable store. An empty Host disables it and the
// process runs on the volatile store.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

// RedisConfig configures the call lock backend. An empty Host selects in-process locks.
type RedisConfig struct {
	Host string
	Port int
}

// AuthConfig configures operator tokens. An empty JWTSecret leaves the API open.
type AuthConfig struct {
	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// OperatorKey is exchanged for an admin token pair, AgentKey for an agent one.
	OperatorKey string
	AgentKey    string
}

type VapiConfig struct {
	APIKey        string
	PhoneNumberID string
	AssistantID   string
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

type HTTPConfig struct {
	CORSOrigins    []string
	UploadMaxBytes int64
}

type CompanyConfig struct {
	Project string
	Address string
}

type StoreConfig struct {
	PingInterval time.Duration
}

const (
	defaultPort           = 8080
	defaultVapiBaseURL    = "https://api.vapi.ai"
	defaultProject        = "Shilp City Residency"
	defaultAddress        = "Bhubaneswar, Odisha"
	defaultUploadMaxBytes = 10 << 20
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"http://127.0.0.1:5173",
}

// Load reads .env when present and then the process environment.
func Load() (Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	c.App.Port, parseErrs = optionalInt(parseErrs, "APP_PORT")

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	c.DB.Port, parseErrs = optionalInt(parseErrs, "DB_PORT")
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	c.Redis.Port, parseErrs = optionalInt(parseErrs, "REDIS_PORT")

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	c.Auth.AccessTokenTTL, parseErrs = optionalDuration(parseErrs, "JWT_ACCESS_TTL")
	c.Auth.RefreshTokenTTL, parseErrs = optionalDuration(parseErrs, "JWT_REFRESH_TTL")
	c.Auth.OperatorKey = os.Getenv("AUTH_OPERATOR_KEY")
	c.Auth.AgentKey = os.Getenv("AUTH_AGENT_KEY")

	c.Vapi.APIKey = os.Getenv("VAPI_API_KEY")
	c.Vapi.PhoneNumberID = strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER"))
	c.Vapi.AssistantID = strings.TrimSpace(os.Getenv("VAPI_ASSISTANT_ID"))
	c.Vapi.BaseURL = strings.TrimSpace(os.Getenv("VAPI_BASE_URL"))
	c.Vapi.Timeout, parseErrs = optionalDuration(parseErrs, "VAPI_TIMEOUT")
	c.Vapi.RatePerSecond, parseErrs = optionalFloat(parseErrs, "VAPI_RATE_PER_SEC")

	c.HTTP.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))
	{
		n, errs := optionalInt(parseErrs, "UPLOAD_MAX_BYTES")
		parseErrs = errs
		c.HTTP.UploadMaxBytes = int64(n)
	}

	c.Company.Project = strings.TrimSpace(os.Getenv("COMPANY_PROJECT"))
	c.Company.Address = strings.TrimSpace(os.Getenv("COMPANY_ADDRESS"))

	c.Store.PingInterval, parseErrs = optionalDuration(parseErrs, "STORE_PING_INTERVAL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port == 0 {
		c.App.Port = defaultPort
	}
	if c.App.Port < 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DurableStoreEnabled() {
		if c.DB.Port == 0 {
			c.DB.Port = 5432
		}
		if c.DB.Port < 0 || c.DB.Port > 65535 {
			errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
		}
		if c.DB.User == "" {
			errs = append(errs, errors.New("DB_USER is required when DB_HOST is set"))
		}
		if c.DB.Name == "" {
			errs = append(errs, errors.New("DB_NAME is required when DB_HOST is set"))
		}
		if c.DB.SSLMode == "" {
			if c.IsProduction() {
				errs = append(errs, errors.New("DB_SSLMODE is required in production"))
			} else {
				c.DB.SSLMode = "disable"
			}
		}
		if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
			errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
		}
	}

	if c.RedisEnabled() {
		if c.Redis.Port == 0 {
			c.Redis.Port = 6379
		}
		if c.Redis.Port < 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	}

	if c.AuthEnabled() {
		if c.Auth.OperatorKey == "" {
			errs = append(errs, errors.New("AUTH_OPERATOR_KEY is required when JWT_SECRET is set"))
		}
		if c.Auth.AgentKey != "" && c.Auth.AgentKey == c.Auth.OperatorKey {
			errs = append(errs, errors.New("AUTH_AGENT_KEY must differ from AUTH_OPERATOR_KEY"))
		}
		if c.Auth.AccessTokenTTL <= 0 {
			c.Auth.AccessTokenTTL = 15 * time.Minute
		}
		if c.Auth.RefreshTokenTTL <= 0 {
			c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
		}
		if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
			errs = append(errs, errors.New("JWT_REFRESH_TTL must be greater than JWT_ACCESS_TTL"))
		}
	} else if c.IsProduction() {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}

	if c.IsProduction() {
		if c.Vapi.APIKey == "" {
			errs = append(errs, errors.New("VAPI_API_KEY is required in production"))
		}
		if c.Vapi.PhoneNumberID == "" {
			errs = append(errs, errors.New("VAPI_PHONE_NUMBER is required in production"))
		}
		if c.Vapi.AssistantID == "" {
			errs = append(errs, errors.New("VAPI_ASSISTANT_ID is required in production"))
		}
	}
	if c.Vapi.BaseURL == "" {
		c.Vapi.BaseURL = defaultVapiBaseURL
	}
	if c.Vapi.Timeout <= 0 {
		c.Vapi.Timeout = 30 * time.Second
	}
	if c.Vapi.RatePerSecond < 0 {
		errs = append(errs, fmt.Errorf("VAPI_RATE_PER_SEC must not be negative, got %v", c.Vapi.RatePerSecond))
	} else if c.Vapi.RatePerSecond == 0 {
		c.Vapi.RatePerSecond = 5
	}

	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = append([]string(nil), defaultCORSOrigins...)
	}
	if c.HTTP.UploadMaxBytes <= 0 {
		c.HTTP.UploadMaxBytes = defaultUploadMaxBytes
	}

	if c.Company.Project == "" {
		c.Company.Project = defaultProject
	}
	if c.Company.Address == "" {
		c.Company.Address = defaultAddress
	}

	if c.Store.PingInterval <= 0 {
		c.Store.PingInterval = 10 * time.Second
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) DurableStoreEnabled() bool { return c.DB.Host != "" }

func (c Config) RedisEnabled() bool { return c.Redis.Host != "" }

func (c Config) AuthEnabled() bool { return c.Auth.JWTSecret != "" }

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func optionalInt(errs []error, key string) (int, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be an integer, got %q", key, v))
	}
	return n, errs
}

func optionalFloat(errs []error, key string) (float64, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a number, got %q", key, v))
	}
	return f, errs
}

func optionalDuration(errs []error, key string) (time.Duration, []error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, errs
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, append(errs, fmt.Errorf("%s must be a duration, got %q", key, v))
	}
	return d, errs
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
