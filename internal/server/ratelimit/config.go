package ratelimit

import (
	"strings"
	"time"
)

// Defaults
const (
	DefaultPersonalizeLimit = 10
	DefaultLimit            = 300
	DefaultWindow           = time.Minute
	DefaultCleanupInterval  = 5 * time.Minute
	DefaultIdleTTL          = time.Hour
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (prefix match when it ends in "/")
	Method string        // HTTP method
	Limit  int           // Maximum requests per window; 0 means unlimited
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	IdleTTL         time.Duration // buckets idle longer than this are dropped
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig limits personalization to DefaultPersonalizeLimit requests
// per minute per client and everything else to DefaultLimit.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    DefaultLimit,
		DefaultWindow:   DefaultWindow,
		CleanupInterval: DefaultCleanupInterval,
		IdleTTL:         DefaultIdleTTL,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: PersonalizeEndpoints(DefaultPersonalizeLimit),
	}
}

// PersonalizeEndpoints returns the endpoint tiers for a per-minute job budget
func PersonalizeEndpoints(perMinute int) []EndpointConfig {
	if perMinute <= 0 {
		perMinute = DefaultPersonalizeLimit
	}
	return []EndpointConfig{
		{Path: "/personalize", Method: "POST", Limit: perMinute, Window: time.Minute, Burst: perMinute},
	}
}

// IPSet builds a lookup set from a list of addresses, skipping blanks
func IPSet(ips []string) map[string]bool {
	result := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
