package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	RiskServerURL string
	ServerPort    string
	SessionSecret string

	// empty disables the audit log
	DBDSN string

	LogLevel       slog.Level
	RequestTimeout time.Duration

	ModellingErrorsSet string
	RefreshOnAck       bool
	ExcludeUntriggered bool
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		RiskServerURL:      strings.TrimRight(os.Getenv("RISK_SERVER_URL"), "/"),
		ServerPort:         os.Getenv("SERVER_PORT"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		DBDSN:              os.Getenv("DB_DSN"),
		ModellingErrorsSet: os.Getenv("MODELLING_ERRORS_SET"),
	}

	if cfg.RiskServerURL == "" {
		return nil, errors.New("RISK_SERVER_URL is not set")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("SESSION_SECRET is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.ModellingErrorsSet == "" {
		cfg.ModellingErrorsSet = "#ModellingErrors"
	}

	var err error
	if cfg.LogLevel, err = parseLevel(os.Getenv("LOG_LEVEL")); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = parseDuration("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RefreshOnAck, err = parseBool("REFRESH_ON_ACK", true); err != nil {
		return nil, err
	}
	if cfg.ExcludeUntriggered, err = parseBool("EXCLUDE_UNTRIGGERED", true); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: negative duration %s", key, s)
	}
	return d, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
