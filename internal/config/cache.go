package config

import (
	"strconv"
	"strings"
	"time"
)

// CacheConfig drives the public-catalog response cache. When Enabled is
// false or no Redis client could be constructed, caching is a no-op.
// Methods lists the HTTP methods eligible for caching; TTL is the entry
// lifetime; Prefix namespaces the keys; MaxBodyBytes caps the size of a
// cacheable response.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads cache settings from environment variables with
// sensible defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envOr("CACHE_ENABLED", "true") == "true",
		Methods:      parseMethods(envOr("CACHE_METHODS", "GET")),
		TTL:          parseDur(envOr("CACHE_TTL", "30s")),
		Prefix:       envOr("CACHE_PREFIX", "pubcache"),
		MaxBodyBytes: atoi(envOr("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
