package config

import (
	"strings"
	"time"
)

// CacheConfig tunes the Redis response cache in front of the public
// discovery routes. The TTL stays short because cached availability
// goes stale the moment someone books a slot.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads the DISCOVER_CACHE_* environment variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("DISCOVER_CACHE_ENABLED", true),
		Methods:      methodSet(envStr("DISCOVER_CACHE_METHODS", "GET")),
		TTL:          envDur("DISCOVER_CACHE_TTL", 30*time.Second),
		KeyStrategy:  envStr("DISCOVER_CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("DISCOVER_CACHE_PREFIX", "discover"),
		MaxBodyBytes: envInt("DISCOVER_CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func methodSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, m := range strings.Split(s, ",") {
		m = strings.TrimSpace(strings.ToUpper(m))
		if m != "" {
			out[m] = true
		}
	}
	return out
}
