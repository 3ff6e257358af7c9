package config

import "time"

// RateLimitConfig tunes the Redis token bucket guarding the booking
// write endpoints. A diner gets Capacity immediate attempts, then one
// token back per RefillInterval; popular-slot grabbing scripts run dry
// while a human browsing normally never notices the limit.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads the BOOKING_RATE_* environment variables,
// falling back to defaults sized for interactive booking traffic.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("BOOKING_RATE_ENABLED", true),
		Capacity:       envInt("BOOKING_RATE_BURST", 10),
		RefillTokens:   1,
		RefillInterval: envDur("BOOKING_RATE_REFILL_EVERY", 6*time.Second),
		TTL:            envDur("BOOKING_RATE_TTL", 10*time.Minute),
		KeyStrategy:    envStr("BOOKING_RATE_KEY_STRATEGY", "user_route"),
		Prefix:         envStr("BOOKING_RATE_PREFIX", "rate"),
		Debug:          envBool("BOOKING_RATE_DEBUG", false),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// Bucket state must outlive several refill cycles or idle buckets
	// reset to full capacity early.
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}
