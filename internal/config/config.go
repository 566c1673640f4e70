// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ellastudio/ella-data/internal/canon"
)

// Row source kinds.
const (
	SourceSheets   = "sheets"
	SourceWorkbook = "workbook"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// Row source
	Source          string // sheets or workbook
	SheetID         string
	GoogleAPIKey    string
	SheetsBaseURL   string
	SheetsRateLimit int // requests per minute against the values API
	WorkbookPath    string

	// Stream overrides
	TabOverrides    map[string]string  // stream ID → tab name
	CommissionRates map[string]float64 // stream ID → payout rate
	DerivePayout    bool

	// CORS
	CORSAllowOrigins []string

	// API rate limiting
	RateLimitEnabled bool
	RateLimitRPS     int
	RateLimitBurst   int

	// Cache / memo
	CacheEnabled bool
	CacheTTL     time.Duration

	// Reporting
	ReportMaxRecords int
}

// Load reads configuration from environment variables with sensible
// defaults, validating only what would make the process unable to serve.
func Load() (*Config, error) {
	cfg := &Config{
		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		Source:          strings.ToLower(envOr("SOURCE", SourceSheets)),
		SheetID:         envOr("SHEET_ID", ""),
		GoogleAPIKey:    envOr("GOOGLE_API_KEY", ""),
		SheetsBaseURL:   envOr("SHEETS_BASE_URL", ""),
		SheetsRateLimit: envInt("SHEETS_RATE_LIMIT", 60),
		WorkbookPath:    envOr("WORKBOOK_PATH", ""),

		TabOverrides:    tabOverrides(),
		CommissionRates: envRates("COMMISSION_RATES"),
		DerivePayout:    envBool("DERIVE_PAYOUT", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"*"}),

		RateLimitEnabled: envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRPS:     envInt("RATE_LIMIT_RPS", 10),
		RateLimitBurst:   envInt("RATE_LIMIT_BURST", 20),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		ReportMaxRecords: envInt("REPORT_MAX_RECORDS", 500),
	}

	switch cfg.Source {
	case SourceSheets:
		if cfg.SheetID == "" {
			return nil, fmt.Errorf("SHEET_ID must be set when SOURCE=sheets")
		}
	case SourceWorkbook:
		if cfg.WorkbookPath == "" {
			return nil, fmt.Errorf("WORKBOOK_PATH must be set when SOURCE=workbook")
		}
	default:
		return nil, fmt.Errorf("SOURCE must be %q or %q, got %q", SourceSheets, SourceWorkbook, cfg.Source)
	}

	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Streams returns the configured stream set: the default streams with tab
// and commission overrides applied, validated.
func (c *Config) Streams() ([]canon.StreamSchema, error) {
	streams := canon.DefaultStreams()
	for i := range streams {
		if tab, ok := c.TabOverrides[streams[i].ID]; ok && tab != "" {
			streams[i].Tab = tab
		}
		if rate, ok := c.CommissionRates[streams[i].ID]; ok {
			streams[i].Commission = rate
		}
		if err := streams[i].Validate(); err != nil {
			return nil, err
		}
	}
	return streams, nil
}

// Commissions returns the stream label → rate map the report layer consumes,
// or nil when payout derivation is disabled.
func (c *Config) Commissions() (map[string]float64, error) {
	if !c.DerivePayout {
		return nil, nil
	}
	streams, err := c.Streams()
	if err != nil {
		return nil, err
	}
	rates := make(map[string]float64)
	for _, s := range streams {
		if s.Commission > 0 {
			rates[s.Label] = s.Commission
		}
	}
	return rates, nil
}

func tabOverrides() map[string]string {
	overrides := make(map[string]string)
	for _, s := range canon.DefaultStreams() {
		key := "TAB_" + strings.ToUpper(s.ID)
		if tab := os.Getenv(key); tab != "" {
			overrides[s.ID] = tab
		}
	}
	return overrides
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// envRates parses "stream=rate" pairs, e.g. "waxhub=0.35,tech=0.4".
// Malformed pairs are skipped.
func envRates(key string) map[string]float64 {
	rates := make(map[string]float64)
	for _, pair := range envList(key, nil) {
		name, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		rate, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			continue
		}
		rates[strings.TrimSpace(name)] = rate
	}
	return rates
}
