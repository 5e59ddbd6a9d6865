package client

import (
	"math"
	"time"
)

// ReconnectPolicy decides when the client redials the relay after losing it
type ReconnectPolicy struct {
	MaxAttempts   int // Zero disables reconnecting
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultReconnectPolicy returns the default reconnection policy
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts:   5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Delay returns how long to wait before the given zero-based attempt
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	delay := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Allowed reports whether the given zero-based attempt may be made
func (p ReconnectPolicy) Allowed(attempt int) bool {
	return attempt < p.MaxAttempts
}
