// Package ratelimit bounds request rates per client key with token buckets.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// CheckResult is the outcome of a rate limit check.
type CheckResult struct {
	Exceeded   bool
	Key        string
	RetryAfter time.Duration
	Reason     string
}

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter holds one token bucket per key. The zero rate disables limiting.
type Limiter struct {
	mu      sync.Mutex
	perSec  rate.Limit
	burst   int
	buckets map[string]*entry
	now     func() time.Time
}

// New returns a limiter allowing perSecond requests per key with the given
// burst. perSecond <= 0 disables limiting.
func New(perSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		perSec:  rate.Limit(perSecond),
		burst:   burst,
		buckets: make(map[string]*entry),
		now:     time.Now,
	}
}

// Enabled reports whether the limiter refuses anything at all.
func (l *Limiter) Enabled() bool {
	return l != nil && l.perSec > 0
}

// Check consumes one token for key. When the bucket is empty the token is
// returned and the result carries the wait until one is available.
func (l *Limiter) Check(key string) CheckResult {
	if !l.Enabled() {
		return CheckResult{}
	}
	now := l.now()

	l.mu.Lock()
	e, ok := l.buckets[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.perSec, l.burst)}
		l.buckets[key] = e
	}
	e.lastSeen = now
	l.mu.Unlock()

	r := e.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay == 0 {
		return CheckResult{}
	}
	r.CancelAt(now)
	return CheckResult{
		Exceeded:   true,
		Key:        key,
		RetryAfter: delay,
		Reason:     fmt.Sprintf("rate limit exceeded: %.4g requests/s, burst %d", float64(l.perSec), l.burst),
	}
}

// Prune drops buckets idle for longer than idle. Returns how many were removed.
func (l *Limiter) Prune(idle time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.buckets {
		if e.lastSeen.Before(cutoff) {
			delete(l.buckets, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
