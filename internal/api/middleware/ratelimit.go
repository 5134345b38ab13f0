package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pulsechat/relay/internal/metrics"
)

// RateLimit defines limits for an endpoint pattern.
type RateLimit struct {
	Requests int
	Window   time.Duration
	KeyFunc  func(r *http.Request) string
}

// RateLimiterConfig holds configuration for the rate limiter.
type RateLimiterConfig struct {
	Whitelist []string // IPs or CIDRs exempt from rate limiting
}

// RateLimiter implements sliding window rate limiting over Redis.
type RateLimiter struct {
	client       *redis.Client
	limits       map[string]RateLimit
	logger       zerolog.Logger
	whitelist    []*net.IPNet
	whitelistIPs map[string]bool
}

// NewRateLimiter creates a new rate limiter.
func NewRateLimiter(client *redis.Client, logger zerolog.Logger, cfg RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		client:       client,
		logger:       logger,
		whitelistIPs: make(map[string]bool),
		limits: map[string]RateLimit{
			"POST /login":        {20, time.Minute, ipKey},
			"POST /messages":     {60, time.Minute, tokenKey},
			"GET /messages":      {120, time.Minute, tokenKey},
			"POST /dm/*/typing":  {240, time.Minute, tokenKey},
			"POST /dm/":          {60, time.Minute, tokenKey},
			"GET /dm/":           {120, time.Minute, tokenKey},
			"POST /typing":       {240, time.Minute, tokenKey},
			"GET /presence":      {120, time.Minute, tokenKey},
			"GET /conversations": {120, time.Minute, tokenKey},
		},
	}

	// Parse whitelist entries
	for _, entry := range cfg.Whitelist {
		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn().Str("entry", entry).Err(err).Msg("invalid CIDR in whitelist")
				continue
			}
			rl.whitelist = append(rl.whitelist, ipNet)
		} else {
			rl.whitelistIPs[entry] = true
		}
	}

	if len(cfg.Whitelist) > 0 {
		logger.Info().
			Int("ips", len(rl.whitelistIPs)).
			Int("cidrs", len(rl.whitelist)).
			Msg("rate limit whitelist configured")
	}

	return rl
}

// isWhitelisted checks if an IP is in the whitelist.
func (rl *RateLimiter) isWhitelisted(ipStr string) bool {
	if rl.whitelistIPs[ipStr] {
		return true
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, ipNet := range rl.whitelist {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// ipKey returns rate limit key based on client IP.
func ipKey(r *http.Request) string {
	return "ratelimit:ip:" + RealIP(r)
}

// tokenKey returns rate limit key based on the bearer token, falling back
// to the client IP for unauthenticated requests.
func tokenKey(r *http.Request) string {
	if token := BearerToken(r); token != "" {
		return "ratelimit:token:" + token
	}
	return "ratelimit:ip:" + RealIP(r)
}

// RealIP extracts the real client IP from headers or connection.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// CheckAndIncrement checks rate limit and increments counter.
// Returns (allowed, remaining, resetAt).
func (rl *RateLimiter) CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Time) {
	now := time.Now()
	windowStart := now.Add(-window)

	// Fixed window key based on current time bucket
	windowKey := fmt.Sprintf("%s:%d", key, now.Unix()/int64(window.Seconds()))

	pipe := rl.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, windowKey, "-inf", fmt.Sprintf("%d", windowStart.UnixMilli()))
	countCmd := pipe.ZCard(ctx, windowKey)
	pipe.ZAdd(ctx, windowKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	pipe.Expire(ctx, windowKey, window*2)

	_, _ = pipe.Exec(ctx)

	count := countCmd.Val()
	remaining := limit - int(count) - 1
	if remaining < 0 {
		remaining = 0
	}

	resetAt := now.Add(window)
	allowed := count < int64(limit)

	return allowed, remaining, resetAt
}

// findLimit matches the request to a configured limit: exact match, then
// wildcard rules, then bare prefixes, so "POST /dm/*/typing" wins over
// "POST /dm/".
func (rl *RateLimiter) findLimit(r *http.Request) *RateLimit {
	pattern := r.Method + " " + r.URL.Path
	if limit, ok := rl.limits[pattern]; ok {
		return &limit
	}
	for key, limit := range rl.limits {
		parts := strings.SplitN(key, " ", 2)
		if len(parts) != 2 || parts[0] != r.Method {
			continue
		}
		if matchSegment(parts[1], r.URL.Path) {
			return &limit
		}
	}
	for key, limit := range rl.limits {
		parts := strings.SplitN(key, " ", 2)
		if len(parts) != 2 || parts[0] != r.Method {
			continue
		}
		if strings.HasSuffix(parts[1], "/") && strings.HasPrefix(r.URL.Path, parts[1]) {
			return &limit
		}
	}
	return nil
}

// matchSegment matches patterns containing a single "*" standing for
// exactly one non-empty path segment.
func matchSegment(pattern, path string) bool {
	i := strings.Index(pattern, "*")
	if i < 0 {
		return false
	}
	prefix, suffix := pattern[:i], pattern[i+1:]
	if len(path) < len(prefix)+len(suffix) {
		return false
	}
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return false
	}
	segment := path[len(prefix) : len(path)-len(suffix)]
	return segment != "" && !strings.Contains(segment, "/")
}

// Middleware returns the rate limiting middleware.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := RealIP(r)

		if rl.isWhitelisted(ip) {
			next.ServeHTTP(w, r)
			return
		}

		limit := rl.findLimit(r)
		if limit == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, remaining, resetAt := rl.CheckAndIncrement(
			r.Context(), limit.KeyFunc(r), limit.Requests, limit.Window)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			metrics.RateLimitHits.WithLabelValues(r.URL.Path).Inc()
			rl.logger.Warn().
				Str("ip", ip).
				Str("endpoint", r.URL.Path).
				Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.FormatInt(int64(limit.Window.Seconds()), 10))
			jsonError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
