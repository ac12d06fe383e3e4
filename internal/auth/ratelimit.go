package auth

import (
	"sync"
	"time"
)

// RateLimiter throttles reader login attempts. Failures are counted per
// IP and username pair over a sliding window; hitting the ceiling locks
// that pair out for the configured duration.
type RateLimiter struct {
	mu       sync.RWMutex
	attempts map[string]*loginRecord

	maxAttempts     int
	window          time.Duration
	lockout         time.Duration
	cleanupInterval time.Duration

	now         func() time.Time
	stopCleanup chan struct{}
}

type loginRecord struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// RateLimitConfig configures the login limiter. Zero values fall back to
// the defaults noted per field.
type RateLimitConfig struct {
	MaxAttempts     int           // failures before lockout (5)
	WindowDuration  time.Duration // sliding window for counting (15m)
	LockoutDuration time.Duration // lockout length once tripped (30m)
	CleanupInterval time.Duration // sweep cadence for stale records (5m)
}

// NewRateLimiter creates a login limiter and starts its cleanup sweep.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = 15 * time.Minute
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	rl := &RateLimiter{
		attempts:        make(map[string]*loginRecord),
		maxAttempts:     cfg.MaxAttempts,
		window:          cfg.WindowDuration,
		lockout:         cfg.LockoutDuration,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		stopCleanup:     make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop ends the background cleanup sweep.
func (rl *RateLimiter) Stop() {
	close(rl.stopCleanup)
}

func limiterKey(ip, username string) string {
	return ip + ":" + username
}

// Allow reports whether a login attempt for this IP and username may
// proceed. When it may not, retryAfter is how long until it may again.
func (rl *RateLimiter) Allow(ip, username string) (allowed bool, retryAfter time.Duration) {
	now := rl.now()

	rl.mu.RLock()
	record, exists := rl.attempts[limiterKey(ip, username)]
	rl.mu.RUnlock()

	if !exists {
		return true, 0
	}

	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.windowStart) > rl.window {
		// Old failures aged out.
		return true, 0
	}
	if record.failures < rl.maxAttempts {
		return true, 0
	}
	return false, rl.lockout
}

// RecordFailure counts a failed login and reports whether this failure
// tripped the lockout.
func (rl *RateLimiter) RecordFailure(ip, username string) (locked bool, retryAfter time.Duration) {
	now := rl.now()
	key := limiterKey(ip, username)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, exists := rl.attempts[key]
	if !exists {
		record = &loginRecord{windowStart: now}
		rl.attempts[key] = record
	}

	if now.Sub(record.windowStart) > rl.window {
		record.failures = 0
		record.windowStart = now
		record.lockedUntil = time.Time{}
	}

	record.failures++

	if record.failures >= rl.maxAttempts {
		record.lockedUntil = now.Add(rl.lockout)
		return true, rl.lockout
	}
	return false, 0
}

// RecordSuccess clears the failure history after a successful login.
func (rl *RateLimiter) RecordSuccess(ip, username string) {
	rl.mu.Lock()
	delete(rl.attempts, limiterKey(ip, username))
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanup drops records whose window and lockout have both run out.
func (rl *RateLimiter) cleanup() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, record := range rl.attempts {
		aged := now.Sub(record.windowStart) > rl.window+rl.lockout
		unlocked := record.lockedUntil.IsZero() || now.After(record.lockedUntil)
		if aged && unlocked {
			delete(rl.attempts, key)
		}
	}
}
