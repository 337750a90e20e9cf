package security

import (
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"unimarket-backend/internal/domain"
)

// RateLimiter keeps one token bucket per key (account ID, email, or a shared
// key like "registration"). Buckets refill at perMinute/60 per second with a
// burst of perMinute, matching a requests-per-minute budget.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perMin   int
	audit    *AuditLog
}

func NewRateLimiter(perMinute int, audit *AuditLog) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		perMin:   perMinute,
		audit:    audit,
	}
}

// Allow consumes one token for key, returning domain.ErrTooManyRequests once
// the budget is exhausted.
func (r *RateLimiter) Allow(key string) error {
	r.mu.Lock()
	lim, ok := r.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(float64(r.perMin)/60.0), r.perMin)
		r.limiters[key] = lim
	}
	r.mu.Unlock()

	if !lim.Allow() {
		r.audit.Record(SeverityMedium, fmt.Sprintf("rate limit exceeded for: %s", key))
		return domain.ErrTooManyRequests
	}
	return nil
}
