package service

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ProfileLimiter keeps one token bucket per profile. A bucket left alone long enough
// to refill completely is dropped, since a fresh one behaves the same.
type ProfileLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	refill    time.Duration
	now       func() time.Time
	buckets   map[string]*profileBucket
	lastSweep time.Time
}

type profileBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewProfileLimiter allows perMinute events per profile with the given burst.
// A non-positive perMinute disables limiting.
func NewProfileLimiter(perMinute float64, burst int) *ProfileLimiter {
	if perMinute <= 0 {
		return &ProfileLimiter{limit: rate.Inf}
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Duration(float64(time.Minute) / perMinute)
	return &ProfileLimiter{
		limit:   rate.Every(interval),
		burst:   burst,
		refill:  interval * time.Duration(burst),
		now:     time.Now,
		buckets: make(map[string]*profileBucket),
	}
}

// Allow reports whether profileID may act now and consumes a token if so.
func (l *ProfileLimiter) Allow(profileID string) bool {
	if l == nil || l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.refill {
		for id, b := range l.buckets {
			if now.Sub(b.seen) >= l.refill {
				delete(l.buckets, id)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.buckets[profileID]
	if !ok {
		b = &profileBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[profileID] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}
