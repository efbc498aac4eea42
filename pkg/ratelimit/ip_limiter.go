package ratelimit

import (
	"sync"
	"time"
)

// IPRateLimiter keeps a token bucket per client IP. It is used on the
// OTP-sending auth endpoints so a single client cannot flood the mailer.
type IPRateLimiter struct {
	buckets    map[string]*ipBucket
	maxTokens  float64
	refillRate float64
	mutex      sync.Mutex
	stop       chan struct{}
	stopOnce   sync.Once
}

type ipBucket struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

// NewIPRateLimiter creates a per-IP rate limiter
func NewIPRateLimiter(maxTokens float64, refillRate float64) *IPRateLimiter {
	l := &IPRateLimiter{
		buckets:    make(map[string]*ipBucket),
		maxTokens:  maxTokens,
		refillRate: refillRate,
		stop:       make(chan struct{}),
	}

	// Evict buckets for clients not seen in a while
	go l.evictLoop()

	return l
}

// Allow checks whether the given IP may make another request
func (l *IPRateLimiter) Allow(ip string) bool {
	l.mutex.Lock()

	b, exists := l.buckets[ip]
	if !exists {
		b = &ipBucket{bucket: NewTokenBucket(l.maxTokens, l.refillRate)}
		l.buckets[ip] = b
	}
	b.lastSeen = time.Now()

	l.mutex.Unlock()

	return b.bucket.Allow()
}

// Stop terminates the background eviction goroutine. Allow keeps
// working after Stop.
func (l *IPRateLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
}

func (l *IPRateLimiter) evictLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictStale(time.Now().Add(-30 * time.Minute))
		}
	}
}

func (l *IPRateLimiter) evictStale(cutoff time.Time) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}
