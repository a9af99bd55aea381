package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// APIBaseURL is the base URL of the remote task API
	// (e.g. "https://try.vikunja.io"). The API token is read from the
	// VIKUNJA_TOKEN environment variable, never from this file.
	APIBaseURL string `json:"api_base_url,omitempty"`

	// MaxFilterLength is the maximum raw filter string length in characters.
	MaxFilterLength int `json:"max_filter_length,omitempty"`

	// MaxFilterDepth is the maximum group nesting depth of a filter.
	MaxFilterDepth int `json:"max_filter_depth,omitempty"`

	// MaxFilterConditions is the maximum total condition count of a filter.
	MaxFilterConditions int `json:"max_filter_conditions,omitempty"`

	// SampleSize is how many fetched tasks the memory estimator serializes
	// to project the full footprint. Bounded so estimation stays cheap.
	SampleSize int `json:"sample_size,omitempty"`

	// MarginMultiplier is the safety margin applied to the projected
	// footprint to account for runtime overhead of decoded records.
	MarginMultiplier float64 `json:"margin_multiplier,omitempty"`

	// MemoryLowWaterMB and MemoryHighWaterMB bound the risk tiers:
	// Low < low mark <= Medium < high mark <= High.
	MemoryLowWaterMB  int `json:"memory_low_water_mb,omitempty"`
	MemoryHighWaterMB int `json:"memory_high_water_mb,omitempty"`

	// AllowHighMemory relaxes the gate: High-tier estimates proceed
	// instead of failing with MEMORY_LIMIT_EXCEEDED.
	AllowHighMemory bool `json:"allow_high_memory,omitempty"`

	// LikeCaseSensitive makes substring matches case-sensitive. Off by
	// default to match the remote API's collation.
	LikeCaseSensitive bool `json:"like_case_sensitive,omitempty"`

	// SessionIdleMinutes is the idle window after which a session's saved
	// filters are evicted.
	SessionIdleMinutes int `json:"session_idle_minutes,omitempty"`

	// SweepIntervalSeconds is how often the eviction sweep runs.
	SweepIntervalSeconds int `json:"sweep_interval_seconds,omitempty"`

	// BreakerFailureThreshold is the consecutive remote-failure count that
	// opens the circuit breaker.
	BreakerFailureThreshold int `json:"breaker_failure_threshold,omitempty"`

	// BreakerCooldownSeconds is how long an open breaker fails fast before
	// allowing a half-open probe.
	BreakerCooldownSeconds int `json:"breaker_cooldown_seconds,omitempty"`

	// RemoteTimeoutSeconds bounds each remote API call.
	RemoteTimeoutSeconds int `json:"remote_timeout_seconds,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from
	// registration. Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxFilterLength:         4096,
		MaxFilterDepth:          6,
		MaxFilterConditions:     50,
		SampleSize:              50,
		MarginMultiplier:        2.5,
		MemoryLowWaterMB:        25,
		MemoryHighWaterMB:       100,
		SessionIdleMinutes:      30,
		SweepIntervalSeconds:    60,
		BreakerFailureThreshold: 3,
		BreakerCooldownSeconds:  30,
		RemoteTimeoutSeconds:    10,
	}
}

// SessionIdle returns the idle window as a duration.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

// SweepInterval returns the eviction sweep interval as a duration.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// BreakerCooldown returns the breaker cool-down as a duration.
func (c *Config) BreakerCooldown() time.Duration {
	return time.Duration(c.BreakerCooldownSeconds) * time.Second
}

// RemoteTimeout returns the per-call remote timeout as a duration.
func (c *Config) RemoteTimeout() time.Duration {
	return time.Duration(c.RemoteTimeoutSeconds) * time.Second
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of
// ~/.vikunja-mcp.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and
// deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIBaseURL = overlay.APIBaseURL
	if result.APIBaseURL == "" {
		result.APIBaseURL = base.APIBaseURL
	}

	result.MaxFilterLength = overlayInt(base.MaxFilterLength, overlay.MaxFilterLength)
	result.MaxFilterDepth = overlayInt(base.MaxFilterDepth, overlay.MaxFilterDepth)
	result.MaxFilterConditions = overlayInt(base.MaxFilterConditions, overlay.MaxFilterConditions)
	result.SampleSize = overlayInt(base.SampleSize, overlay.SampleSize)
	result.MemoryLowWaterMB = overlayInt(base.MemoryLowWaterMB, overlay.MemoryLowWaterMB)
	result.MemoryHighWaterMB = overlayInt(base.MemoryHighWaterMB, overlay.MemoryHighWaterMB)
	result.SessionIdleMinutes = overlayInt(base.SessionIdleMinutes, overlay.SessionIdleMinutes)
	result.SweepIntervalSeconds = overlayInt(base.SweepIntervalSeconds, overlay.SweepIntervalSeconds)
	result.BreakerFailureThreshold = overlayInt(base.BreakerFailureThreshold, overlay.BreakerFailureThreshold)
	result.BreakerCooldownSeconds = overlayInt(base.BreakerCooldownSeconds, overlay.BreakerCooldownSeconds)
	result.RemoteTimeoutSeconds = overlayInt(base.RemoteTimeoutSeconds, overlay.RemoteTimeoutSeconds)

	result.MarginMultiplier = overlay.MarginMultiplier
	if result.MarginMultiplier == 0 {
		result.MarginMultiplier = base.MarginMultiplier
	}

	// Booleans: overlay wins if true, else base
	result.AllowHighMemory = base.AllowHighMemory || overlay.AllowHighMemory
	result.LikeCaseSensitive = base.LikeCaseSensitive || overlay.LikeCaseSensitive

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func overlayInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes
// duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
