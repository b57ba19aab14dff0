package config

import (
    "strings"
    "time"
)

// CacheConfig controls the Redis response cache placed in front of the
// read-mostly catalog endpoints (centers, merchandise). When Enabled is false
// or Redis is unreachable the middleware is a pass-through.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string // route | method_route | method_route_query | route_query
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables with defaults.
func LoadCacheConfig() CacheConfig {
    methods := map[string]bool{}
    for _, m := range splitList(envStr("CACHE_METHODS", "GET")) {
        methods[strings.ToUpper(m)] = true
    }
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      methods,
        TTL:          envDur("CACHE_TTL", 30*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "gym:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}
