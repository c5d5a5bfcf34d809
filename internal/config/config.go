package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr              = ":8080"
	defaultDatabaseURL           = "file:homefinder.db?_pragma=busy_timeout(5000)"
	defaultJWTSecret             = "change-me-jwt-secret"
	defaultJWTTTL                = "15m"
	defaultExpirySweepInterval   = "24h"
	defaultReminderSweepInterval = "1m"
	defaultExpiringSoonWindow    = "24h"
	defaultPushTimeout           = "2s"
	defaultWSSendBuffer          = "64"
	defaultSchedulersEnabled     = "true"
	defaultShutdownTimeout       = "10s"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	InternalToken      string
	InternalAllowedIPs []string
	CORSAllowedOrigins []string

	SchedulersEnabled     bool
	ExpirySweepInterval   time.Duration
	ReminderSweepInterval time.Duration
	ExpiringSoonWindow    time.Duration

	PushTimeout     time.Duration
	WSSendBuffer    int
	ShutdownTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.InternalToken = strings.TrimSpace(os.Getenv("INTERNAL_TOKEN"))
	cfg.InternalAllowedIPs = parseListEnv("INTERNAL_ALLOWED_IPS")
	cfg.CORSAllowedOrigins = parseListEnv("CORS_ALLOWED_ORIGINS")
	cfg.SchedulersEnabled = parseBoolEnv("SCHEDULERS_ENABLED", defaultSchedulersEnabled)

	var err error
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL); err != nil {
		return nil, err
	}
	if cfg.ExpirySweepInterval, err = parseDurationEnv("EXPIRY_SWEEP_INTERVAL", defaultExpirySweepInterval); err != nil {
		return nil, err
	}
	if cfg.ReminderSweepInterval, err = parseDurationEnv("REMINDER_SWEEP_INTERVAL", defaultReminderSweepInterval); err != nil {
		return nil, err
	}
	if cfg.ExpiringSoonWindow, err = parseDurationEnv("EXPIRING_SOON_WINDOW", defaultExpiringSoonWindow); err != nil {
		return nil, err
	}
	if cfg.PushTimeout, err = parseDurationEnv("PUSH_TIMEOUT", defaultPushTimeout); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.WSSendBuffer, err = parseIntEnv("WS_SEND_BUFFER", defaultWSSendBuffer); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("config loaded: env=%s addr=%s schedulers=%t expiry_interval=%s reminder_interval=%s",
		cfg.AppEnv, cfg.HTTPAddr, cfg.SchedulersEnabled, cfg.ExpirySweepInterval, cfg.ReminderSweepInterval)

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return isProdLike(c.AppEnv)
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.ExpirySweepInterval <= 0 {
		return fmt.Errorf("EXPIRY_SWEEP_INTERVAL must be > 0")
	}
	if cfg.ReminderSweepInterval <= 0 {
		return fmt.Errorf("REMINDER_SWEEP_INTERVAL must be > 0")
	}
	if cfg.ExpiringSoonWindow <= 0 {
		return fmt.Errorf("EXPIRING_SOON_WINDOW must be > 0")
	}
	if cfg.PushTimeout <= 0 {
		return fmt.Errorf("PUSH_TIMEOUT must be > 0")
	}
	if cfg.WSSendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be > 0")
	}
	if cfg.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be > 0")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
		if cfg.InternalToken == "" {
			return fmt.Errorf("in prod/release INTERNAL_TOKEN must be set")
		}
		if !strings.HasPrefix(cfg.DatabaseURL, "postgres") {
			return fmt.Errorf("in prod/release DATABASE_URL must point at PostgreSQL")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func parseListEnv(name string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(name), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
