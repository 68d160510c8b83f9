package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"clinic-manager/core/retry"
)

// Config holds configuration for the remote calendar integration.
type Config struct {
	// CredentialsFile is the path to the service account or OAuth credentials JSON.
	CredentialsFile string `mapstructure:"credentials_file" default:"credentials.json"`
	// TimeZone is the IANA zone appointments are placed in.
	TimeZone string `mapstructure:"timezone" default:"Europe/Rome"`
	// StudioCalendars maps studios to calendar ids, e.g. "1=abc@group.calendar.google.com,2=def@...".
	StudioCalendars string `mapstructure:"studio_calendars" default:""`
	// StudioKeywords maps studios to calendar display-name keywords, used when StudioCalendars is empty.
	StudioKeywords string `mapstructure:"studio_keywords" default:"1=blu,2=giallo"`
	// ManagedCalendars is a comma separated list of extra calendar ids this deployment may purge.
	ManagedCalendars string `mapstructure:"managed_calendars" default:""`
	// DailyNoteStudio is the studio whose calendar receives daily notes.
	DailyNoteStudio int `mapstructure:"daily_note_studio" default:"1"`
	// PacingMS is the delay after each successful remote call.
	PacingMS int `mapstructure:"pacing_ms" default:"50"`
	// RateLimitCooldownSeconds is the wait before retrying a rate limited call.
	RateLimitCooldownSeconds int `mapstructure:"rate_limit_cooldown_seconds" default:"5"`
	// MaxAttempts bounds the tries of a single remote call.
	MaxAttempts int `mapstructure:"max_attempts" default:"5"`
	// CallTimeoutSeconds bounds a single remote call.
	CallTimeoutSeconds int `mapstructure:"call_timeout_seconds" default:"30"`
	// DefaultDurationMinutes is the length given to appointments without an end time.
	DefaultDurationMinutes int `mapstructure:"default_duration_minutes" default:"10"`
	// CalendarCacheSeconds is how long the calendar list is cached.
	CalendarCacheSeconds int `mapstructure:"calendar_cache_seconds" default:"300"`
}

// RetryPolicy builds the policy shared by every remote call.
func (c Config) RetryPolicy() retry.Policy {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 5
	}
	return retry.Policy{
		MaxAttempts: attempts,
		Cooldown:    time.Duration(c.RateLimitCooldownSeconds) * time.Second,
		Pacing:      time.Duration(c.PacingMS) * time.Millisecond,
		Retryable:   IsRetryable,
	}
}

// CallTimeout returns the per-call timeout, 30 seconds when unset.
func (c Config) CallTimeout() time.Duration {
	if c.CallTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// DefaultDuration returns the synthesized appointment length.
func (c Config) DefaultDuration() time.Duration {
	if c.DefaultDurationMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.DefaultDurationMinutes) * time.Minute
}

// Location loads the configured time zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.TimeZone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid calendar timezone %q: %w", name, err)
	}
	return loc, nil
}

// DirectoryOptions converts the configuration into Directory options.
func (c Config) DirectoryOptions() (DirectoryOptions, error) {
	studios, err := ParseStudioMap(c.StudioCalendars)
	if err != nil {
		return DirectoryOptions{}, fmt.Errorf("studio_calendars: %w", err)
	}
	keywords, err := ParseStudioMap(c.StudioKeywords)
	if err != nil {
		return DirectoryOptions{}, fmt.Errorf("studio_keywords: %w", err)
	}
	return DirectoryOptions{
		TTL:             time.Duration(c.CalendarCacheSeconds) * time.Second,
		Managed:         splitList(c.ManagedCalendars),
		StudioCalendars: studios,
		StudioKeywords:  keywords,
	}, nil
}

// ParseStudioMap parses "1=value,2=value" into a studio keyed map.
func ParseStudioMap(s string) (map[int]string, error) {
	out := make(map[int]string)
	for _, pair := range splitList(s) {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("expected studio=value, got %q", pair)
		}
		studio, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil || studio <= 0 {
			return nil, fmt.Errorf("invalid studio number %q", key)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			return nil, fmt.Errorf("empty value for studio %d", studio)
		}
		out[studio] = value
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
