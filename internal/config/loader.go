package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backend selectors accepted by BOOKING_STORAGE.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config captures environment driven configuration values for the booking service.
type Config struct {
	HTTPPort        int
	StorageBackend  string
	SQLiteDSN       string
	EarlyArrival    time.Duration
	EntryGrace      time.Duration
	ReminderLead    time.Duration
	SweepInterval   time.Duration
	LockTimeout     time.Duration
	DisplayTimezone string
	MaxAlternatives int
	EventBuffer     int
	AllowedOrigins  []string
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// provided values and aggregating every invalid entry into a single error.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:        8080,
		StorageBackend:  StorageSQLite,
		SQLiteDSN:       "file:booking.db",
		EarlyArrival:    15 * time.Minute,
		EntryGrace:      60 * time.Minute,
		ReminderLead:    30 * time.Minute,
		SweepInterval:   time.Minute,
		LockTimeout:     2 * time.Second,
		DisplayTimezone: "UTC",
		MaxAlternatives: 5,
		EventBuffer:     64,
		AllowedOrigins:  []string{"*"},
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("BOOKING_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "BOOKING_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if backend := strings.TrimSpace(os.Getenv("BOOKING_STORAGE")); backend != "" {
		switch strings.ToLower(backend) {
		case StorageSQLite, StorageMemory:
			cfg.StorageBackend = strings.ToLower(backend)
		default:
			invalid = append(invalid, "BOOKING_STORAGE")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("BOOKING_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	durations := []struct {
		name   string
		target *time.Duration
		// EarlyArrival may legitimately be zero; the others must be positive.
		allowZero bool
	}{
		{"BOOKING_EARLY_ARRIVAL", &cfg.EarlyArrival, true},
		{"BOOKING_ENTRY_GRACE", &cfg.EntryGrace, false},
		{"BOOKING_REMINDER_LEAD", &cfg.ReminderLead, true},
		{"BOOKING_SWEEP_INTERVAL", &cfg.SweepInterval, false},
		{"BOOKING_LOCK_TIMEOUT", &cfg.LockTimeout, false},
	}
	for _, d := range durations {
		value := strings.TrimSpace(os.Getenv(d.name))
		if value == "" {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed < 0 || (!d.allowZero && parsed == 0) {
			invalid = append(invalid, d.name)
			continue
		}
		*d.target = parsed
	}

	if tz := strings.TrimSpace(os.Getenv("BOOKING_DISPLAY_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "BOOKING_DISPLAY_TIMEZONE")
		} else {
			cfg.DisplayTimezone = tz
		}
	}

	if maxValue := strings.TrimSpace(os.Getenv("BOOKING_MAX_ALTERNATIVES")); maxValue != "" {
		max, err := strconv.Atoi(maxValue)
		if err != nil || max <= 0 {
			invalid = append(invalid, "BOOKING_MAX_ALTERNATIVES")
		} else {
			cfg.MaxAlternatives = max
		}
	}

	if bufferValue := strings.TrimSpace(os.Getenv("BOOKING_EVENT_BUFFER")); bufferValue != "" {
		buffer, err := strconv.Atoi(bufferValue)
		if err != nil || buffer <= 0 {
			invalid = append(invalid, "BOOKING_EVENT_BUFFER")
		} else {
			cfg.EventBuffer = buffer
		}
	}

	if origins := strings.TrimSpace(os.Getenv("BOOKING_ALLOWED_ORIGINS")); origins != "" {
		parsed := make([]string, 0, 2)
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				parsed = append(parsed, trimmed)
			}
		}
		cfg.AllowedOrigins = parsed
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// DisplayLocation resolves the configured display timezone. Load validates
// the name, so resolution only fails when the zone database changed since.
func (c Config) DisplayLocation() (*time.Location, error) {
	return time.LoadLocation(c.DisplayTimezone)
}
