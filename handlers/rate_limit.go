package handlers

import (
	"sync"
	"time"

	"github.com/fxfiles/fxshare/logging"
)

// sharePenalty calculates the delay penalty based on failure count
func sharePenalty(failureCount int) time.Duration {
	if failureCount <= 3 {
		return 0 // First 3 attempts immediate
	}

	penalties := []time.Duration{
		30 * time.Second, // 4th attempt
		60 * time.Second, // 5th attempt
		2 * time.Minute,  // 6th attempt
		4 * time.Minute,  // 7th attempt
		8 * time.Minute,  // 8th attempt
		15 * time.Minute, // 9th attempt
	}

	if failureCount-4 < len(penalties) {
		return penalties[failureCount-4]
	}
	return 30 * time.Minute // Cap at 30 minutes for 10+ attempts
}

type attemptState struct {
	failures    int
	nextAllowed time.Time
}

// rateLimiter tracks failed anonymous share-access attempts per share and
// caller. The daemon serves a single account from one process, so the state
// lives in memory and resets on restart.
type rateLimiter struct {
	mu      sync.Mutex
	entries map[string]*attemptState
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{entries: make(map[string]*attemptState)}
}

func rateKey(shareID, caller string) string {
	return shareID + "|" + caller
}

// check reports whether an attempt is currently allowed; when it is not, the
// remaining backoff is returned.
func (l *rateLimiter) check(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok || entry.failures == 0 {
		return true, 0
	}

	now := time.Now()
	if now.Before(entry.nextAllowed) {
		return false, entry.nextAllowed.Sub(now)
	}
	return true, 0
}

// fail records a failed attempt and schedules the next allowed one
func (l *rateLimiter) fail(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[key]
	if !ok {
		entry = &attemptState{}
		l.entries[key] = entry
	}
	entry.failures++
	entry.nextAllowed = time.Now().Add(sharePenalty(entry.failures))

	logging.InfoLogger.Printf("Share access failure %d for %s, next attempt allowed at %v",
		entry.failures, key, entry.nextAllowed.Format(time.RFC3339))
}

// reset clears the backoff after a successful attempt
func (l *rateLimiter) reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}
