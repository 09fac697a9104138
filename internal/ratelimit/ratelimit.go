package ratelimit

import (
	"sync"
	"time"
)

// Cap on expired-bucket deletions per Allow call so a single request never
// pays for an unbounded cleanup after a long idle period.
const maxExpiredDeletesPerCall = 128

type bucket struct {
	count       int
	windowStart time.Time
}

// Limiter is a fixed-window counter keyed by (namespace, client key).
// A request is allowed while the count within the current window is below
// max; the window resets once its duration has fully elapsed.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	now     func() time.Time
	buckets map[string]map[string]*bucket
}

func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		now:     time.Now,
		buckets: make(map[string]map[string]*bucket),
	}
}

// Allow records one hit for the key in the namespace and reports whether it
// fits within the window limit. Expired buckets encountered along the way are
// swept opportunistically, capped per call.
func (l *Limiter) Allow(namespace, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	ns, ok := l.buckets[namespace]
	if !ok {
		ns = make(map[string]*bucket)
		l.buckets[namespace] = ns
	}

	b, ok := ns[key]
	if !ok || now.Sub(b.windowStart) >= l.window {
		ns[key] = &bucket{count: 1, windowStart: now}
		return l.max >= 1
	}
	if b.count >= l.max {
		return false
	}
	b.count++
	return true
}

// Reset clears all counters across every namespace.
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets = make(map[string]map[string]*bucket)
}

func (l *Limiter) sweepLocked(now time.Time) {
	deleted := 0
	for nsName, ns := range l.buckets {
		for key, b := range ns {
			if now.Sub(b.windowStart) >= l.window {
				delete(ns, key)
				deleted++
				if deleted >= maxExpiredDeletesPerCall {
					return
				}
			}
		}
		if len(ns) == 0 {
			delete(l.buckets, nsName)
		}
	}
}
