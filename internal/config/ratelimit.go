package config

import "time"

// RateLimitConfig configures a Redis token bucket.  The API-wide bucket
// and the stricter login bucket share this shape.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // bucket size, also the burst
	RefillTokens   int           // tokens added per RefillInterval
	RefillInterval time.Duration
	TTL            time.Duration // idle buckets expire after this
	KeyStrategy    string        // ip, user, route or a combination such as ip_user_route
	Prefix         string
	Debug          bool // expose the bucket key and log blocks
}

// LoadRateLimitConfig reads the API-wide bucket from RATE_LIMIT_*.
// RATE_LIMIT_BURST overrides the capacity and RATE_LIMIT_REFILL_EVERY is
// shorthand for one token per interval.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_BURST", envInt("RATE_LIMIT_CAPACITY", 60)),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    envStr("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "hotel:rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
	if every := envDur("RATE_LIMIT_REFILL_EVERY", 0); every > 0 {
		c.RefillTokens, c.RefillInterval = 1, every
	}
	return c.normalized()
}

// LoadLoginRateLimitConfig derives the bucket in front of POST
// /api/auth/login from the API-wide one: keyed by client IP, five
// attempts and one more every twelve seconds unless LOGIN_RATE_* say
// otherwise.
func LoadLoginRateLimitConfig() RateLimitConfig {
	c := LoadRateLimitConfig()
	c.Capacity = envInt("LOGIN_RATE_CAPACITY", 5)
	c.RefillTokens = 1
	c.RefillInterval = envDur("LOGIN_RATE_REFILL_EVERY", 12*time.Second)
	c.KeyStrategy = "ip"
	c.Prefix += ":login"
	c.TTL = 0
	return c.normalized()
}

// normalized keeps the bucket usable and lets idle keys live at least
// five refill intervals.
func (c RateLimitConfig) normalized() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if floor := 5 * c.RefillInterval; c.TTL < floor {
		c.TTL = floor
	}
	return c
}
