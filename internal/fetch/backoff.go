package fetch

import (
	"math/rand/v2"
	"time"
)

// BackoffPolicy describes how long to wait between attempts
type BackoffPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxJitter    time.Duration
}

// DefaultBackoffPolicy is five attempts, doubling from one second up to sixteen,
// each wait padded with up to a second of jitter
func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     16 * time.Second,
		MaxJitter:    time.Second,
	}
}

// BaseDelay returns the wait before attempt n without jitter:
// min(MaxDelay, InitialDelay * 2^(n-1)). Attempt 0 never waits.
func (p BackoffPolicy) BaseDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	// Cap the exponent to avoid overflow
	exp := attempt - 1
	if exp > 30 {
		exp = 30
	}
	delay := p.InitialDelay * time.Duration(int64(1)<<exp)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	return delay
}

// Delay returns the full wait before attempt n, jitter included
func (p BackoffPolicy) Delay(attempt int, jitter func(max time.Duration) time.Duration) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return p.BaseDelay(attempt) + jitter(p.MaxJitter)
}

// randomJitter returns a uniformly random duration in [0, max)
func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}
