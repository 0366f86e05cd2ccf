// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/evetabi/prediction/internal/oracle"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port                 string        // e.g. "8080"
	BackofficePort       string        // e.g. "8081"
	Env                  string        // "development" | "production"
	ReadTimeout          time.Duration // default 10s
	WriteTimeout         time.Duration // default 10s
	BackofficeAllowedIPs string        // comma-separated IPs; "" = allow all
	AllowedOrigins       string        // comma-separated origins for CORS in production
	WSJWTSecret          string        // HMAC key for optional WS-subscription tokens; "" = WS connections stay anonymous
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// SessionConfig holds login-session settings. SlidingWindow defaults to
// domain.SessionWindow's 7 days and is loaded and validated here; the engine's
// session check uses domain.SessionWindow and does not read this value.
type SessionConfig struct {
	SlidingWindow time.Duration // default 168h (7 days)
}

// PolicyConfig holds the state-machine minimums as configuration values.
// They are loaded and validated here only; the engine enforces its own
// hardcoded floors (minTradingWindow, minDecisionPeriod) and does not read
// this block.
type PolicyConfig struct {
	MinTradingWindow  time.Duration // default 48h (2 days)
	MinDecisionPeriod time.Duration // default 24h (1 day)
}

// LogConfig holds production log-rotation settings for the lumberjack file
// sink. FilePath == "" means file logging is disabled; production still
// logs to stdout in that case.
type LogConfig struct {
	FilePath   string // "" disables the rotating file sink
	MaxSizeMB  int    // default 100
	MaxBackups int    // default 5
	MaxAgeDays int    // default 28
	Compress   bool   // default true
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Session SessionConfig
	Policy  PolicyConfig
	Oracle  oracle.Config
	Log     LogConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// AllowedOrigins parses Server.AllowedOrigins into a lookup set for CORS.
func (c *Config) AllowedOrigins() map[string]bool {
	out := make(map[string]bool)
	for _, o := range splitAndTrim(c.Server.AllowedOrigins) {
		out[o] = true
	}
	return out
}

// Validate checks that all required configuration values are present and valid.
// Returns every validation error found, joined with errors.Join.
func (c *Config) Validate() error {
	var errs []error

	// In production, DB DSN must be explicit
	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}

	if c.Oracle.BaseURL == "" {
		errs = append(errs, errors.New("ORACLE_LNBITS_URL must be set"))
	}

	if c.Policy.MinTradingWindow <= 0 {
		errs = append(errs, errors.New("POLICY_MIN_TRADING_WINDOW must be positive"))
	}
	if c.Policy.MinDecisionPeriod <= 0 {
		errs = append(errs, errors.New("POLICY_MIN_DECISION_PERIOD must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:                 getEnv("SERVER_PORT", "8080"),
		BackofficePort:       getEnv("BACKOFFICE_PORT", "8081"),
		Env:                  getEnv("ENVIRONMENT", "development"),
		ReadTimeout:          getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:         getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		BackofficeAllowedIPs: getEnv("BACKOFFICE_ALLOWED_IPS", ""),
		AllowedOrigins:       getEnv("CORS_ALLOWED_ORIGINS", ""),
		WSJWTSecret:          getEnv("WS_JWT_SECRET", ""),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "evetabi_prediction"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── Session ───────────────────────────────────────────────────────────────
	cfg.Session = SessionConfig{
		SlidingWindow: getDuration("SESSION_SLIDING_WINDOW", 7*24*time.Hour),
	}

	// ── Policy ────────────────────────────────────────────────────────────────
	cfg.Policy = PolicyConfig{
		MinTradingWindow:  getDuration("POLICY_MIN_TRADING_WINDOW", 48*time.Hour),
		MinDecisionPeriod: getDuration("POLICY_MIN_DECISION_PERIOD", 24*time.Hour),
	}

	// ── Payment oracle ────────────────────────────────────────────────────────
	oracleCfg, err := oracle.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("oracle config: %w", err)
	}
	cfg.Oracle = oracleCfg

	// ── Logging ───────────────────────────────────────────────────────────────
	maxSizeMB, err := getInt("LOG_MAX_SIZE_MB", 100)
	if err != nil {
		return nil, fmt.Errorf("LOG_MAX_SIZE_MB: %w", err)
	}
	maxBackups, err := getInt("LOG_MAX_BACKUPS", 5)
	if err != nil {
		return nil, fmt.Errorf("LOG_MAX_BACKUPS: %w", err)
	}
	maxAgeDays, err := getInt("LOG_MAX_AGE_DAYS", 28)
	if err != nil {
		return nil, fmt.Errorf("LOG_MAX_AGE_DAYS: %w", err)
	}
	cfg.Log = LogConfig{
		FilePath:   getEnv("LOG_FILE_PATH", ""),
		MaxSizeMB:  maxSizeMB,
		MaxBackups: maxBackups,
		MaxAgeDays: maxAgeDays,
		Compress:   getEnv("LOG_COMPRESS", "true") == "true",
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Fall back to default; do not crash on parse error
		return defaultVal
	}
	return d
}

func splitAndTrim(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				field := s[start:i]
				for len(field) > 0 && field[0] == ' ' {
					field = field[1:]
				}
				for len(field) > 0 && field[len(field)-1] == ' ' {
					field = field[:len(field)-1]
				}
				if field != "" {
					out = append(out, field)
				}
			}
			start = i + 1
		}
	}
	return out
}
