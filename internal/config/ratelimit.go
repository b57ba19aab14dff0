package config

import "time"

// RateLimitConfig configures the Redis token bucket. The auth bucket is a
// stricter bucket applied to login/register/refresh.
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

// LoadRateLimitConfig reads RATE_LIMIT_* variables for the general API bucket.
func LoadRateLimitConfig() RateLimitConfig {
    return normalizeRate(RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 120),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 2),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user"),
        Prefix:         envStr("RATE_LIMIT_PREFIX", "gym:rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    })
}

// LoadAuthRateLimitConfig reads AUTH_RATE_LIMIT_* variables. Anonymous auth
// endpoints are keyed by ip and route.
func LoadAuthRateLimitConfig() RateLimitConfig {
    return normalizeRate(RateLimitConfig{
        Enabled:        envBool("AUTH_RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("AUTH_RATE_LIMIT_CAPACITY", 10),
        RefillTokens:   1,
        RefillInterval: envDur("AUTH_RATE_LIMIT_REFILL_EVERY", 6*time.Second),
        TTL:            envDur("AUTH_RATE_LIMIT_TTL", 15*time.Minute),
        KeyStrategy:    "ip_route",
        Prefix:         envStr("RATE_LIMIT_PREFIX", "gym:rl") + ":auth",
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    })
}

func normalizeRate(c RateLimitConfig) RateLimitConfig {
    if c.Capacity < 1 {
        c.Capacity = 1
    }
    if c.RefillTokens < 1 {
        c.RefillTokens = 1
    }
    if c.RefillInterval <= 0 {
        c.RefillInterval = time.Second
    }
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
        c.TTL = minTTL
    }
    return c
}
