package api

import (
	"fmt"
	"os"
	"time"
)

// Config holds assessment service connection settings.
type Config struct {
	// BaseURL is the service root, e.g. "https://api.prept.app".
	BaseURL string

	// Token is the student's bearer credential (a JWT).
	Token string

	// StudentID identifies the student for unlock-state calls.
	StudentID string

	// Timeout bounds a single request attempt. Exceeding it is reported
	// as a timeout, distinct from a connection error. Default: 15s.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.prept.app",
		Timeout: 15 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values. `prept` loads a .env file before this
// runs, so both real env vars and dotenv entries land here.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if u := os.Getenv("PREPT_API_URL"); u != "" {
		cfg.BaseURL = u
	}
	if t := os.Getenv("PREPT_TOKEN"); t != "" {
		cfg.Token = t
	}
	if s := os.Getenv("PREPT_STUDENT_ID"); s != "" {
		cfg.StudentID = s
	}
	if d := os.Getenv("PREPT_API_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil && parsed > 0 {
			cfg.Timeout = parsed
		}
	}

	return cfg
}

// Validate checks that the Config can authenticate. A missing or expired
// token is an ErrAuthRequired so callers surface it like any other auth
// failure.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("PREPT_API_URL is required")
	}
	if c.Token == "" {
		return &ErrAuthRequired{Err: fmt.Errorf("PREPT_TOKEN is not set")}
	}
	if err := checkTokenExpiry(c.Token, time.Now()); err != nil {
		return err
	}
	return nil
}
