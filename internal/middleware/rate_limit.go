package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/authguard/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds request throttling configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	// IPConfig decides which forwarding headers identify the client
	IPConfig *pkghttp.IPConfig
}

// DefaultAPIRateLimit returns 60 requests per minute per client
func DefaultAPIRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 60,
	}
}

// RateLimitByIP throttles requests per client IP. The key uses the same
// trusted-proxy rules as the login guard, so spoofed headers share the
// caller's own bucket.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultAPIRateLimit().RequestsPerMinute
	}

	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, config.IPConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Rate limit exceeded", 0)
		}),
	)
}
