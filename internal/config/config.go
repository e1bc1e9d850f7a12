package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultCRMBaseURL    = "https://services.leadconnectorhq.com"
	defaultCRMAPIVersion = "2021-07-28"
	defaultContactTag    = "KFEH-Estimator"
	defaultContactSource = "Hero Savings Estimator"
	defaultGeminiModel   = "gemini-2.5-flash"
	senderPhoneRegion    = "US"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// CRMConfig holds the downstream contact and messaging API settings.
// A missing value disables the capability that needs it.
type CRMConfig struct {
	APIKey         string
	LocationID     string
	BaseURL        string
	APIVersion     string
	SMSFromNumber  string
	EmailFrom      string
	ContactTag     string
	ContactSource  string
	RequestsPerSec float64
	Timeout        time.Duration
}

// Enabled reports whether contact sync can run at all.
func (c CRMConfig) Enabled() bool {
	return c.APIKey != "" && c.LocationID != ""
}

// SMSEnabled reports whether an SMS sender number is configured.
func (c CRMConfig) SMSEnabled() bool {
	return c.SMSFromNumber != ""
}

// EmailEnabled reports whether an email sender identity is configured.
func (c CRMConfig) EmailEnabled() bool {
	return c.EmailFrom != ""
}

// GeminiConfig configures the notification content generator.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// Config aggregates application-wide configuration values.
type Config struct {
	Port           string
	LogLevel       string
	RateLimitLeads RateLimitConfig
	CRM            CRMConfig
	Gemini         GeminiConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CRM: CRMConfig{
			APIKey:        strings.TrimSpace(os.Getenv("HIGHLEVEL_API_KEY")),
			LocationID:    strings.TrimSpace(os.Getenv("HIGHLEVEL_LOCATION_ID")),
			BaseURL:       strings.TrimRight(getEnv("HIGHLEVEL_BASE_URL", defaultCRMBaseURL), "/"),
			APIVersion:    getEnv("HIGHLEVEL_API_VERSION", defaultCRMAPIVersion),
			SMSFromNumber: normalizeSenderNumber(os.Getenv("HIGHLEVEL_SMS_FROM_NUMBER")),
			EmailFrom:     strings.TrimSpace(os.Getenv("HIGHLEVEL_EMAIL_FROM")),
			ContactTag:    getEnv("HIGHLEVEL_CONTACT_TAG", defaultContactTag),
			ContactSource: getEnv("HIGHLEVEL_CONTACT_SOURCE", defaultContactSource),
			Timeout:       parseDuration(getEnv("CRM_TIMEOUT", "15s"), 15*time.Second),
		},
		Gemini: GeminiConfig{
			APIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			Model:  getEnv("GEMINI_MODEL", defaultGeminiModel),
		},
	}

	rps, err := strconv.ParseFloat(getEnv("HIGHLEVEL_RPS", "0"), 64)
	if err != nil || rps < 0 {
		return nil, fmt.Errorf("invalid HIGHLEVEL_RPS value: %q", os.Getenv("HIGHLEVEL_RPS"))
	}
	cfg.CRM.RequestsPerSec = rps

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_LEADS", "5/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_LEADS value: %w", err)
	}
	cfg.RateLimitLeads = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

// normalizeSenderNumber returns the E.164 form of a configured sender number,
// or "" when the number is not a valid phone number.
func normalizeSenderNumber(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	number, err := phonenumbers.Parse(raw, senderPhoneRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsPossibleNumber(number) || !phonenumbers.IsValidNumber(number) {
		return ""
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
