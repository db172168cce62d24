// Package ratelimit implements a per-key sliding window limiter used to
// cap expensive media builds per user.
package ratelimit

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Default media-build budget: 10 builds per rolling hour.
const (
	DefaultLimit  = 10
	DefaultWindow = time.Hour
)

// Limiter tracks event timestamps per key. Safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	events map[string][]time.Time
	now    func() time.Time
}

// New builds a Limiter allowing limit events per window for each key.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:  limit,
		window: window,
		events: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// Allow records an event for key if it is under budget and reports
// whether it was admitted.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.prune(key, now)
	if len(kept) >= l.limit {
		return false
	}
	l.events[key] = append(kept, now)
	return true
}

// Remaining reports how many events key may still spend in the current
// window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(key, l.now())
	if n := l.limit - len(kept); n > 0 {
		return n
	}
	return 0
}

// RetryAfter reports how long until key's oldest event ages out. Zero
// means the key is under budget right now.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	kept := l.prune(key, now)
	if len(kept) < l.limit {
		return 0
	}
	return kept[0].Add(l.window).Sub(now)
}

// LoadFile restores event timestamps saved by SaveFile so short-lived
// processes share one budget. A missing file is not an error; aged-out
// events are dropped on the next Allow.
func (l *Limiter) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	events := make(map[string][]time.Time)
	if err := json.Unmarshal(data, &events); err != nil {
		return err
	}
	l.mu.Lock()
	l.events = events
	l.mu.Unlock()
	return nil
}

// SaveFile writes the current event timestamps to path.
func (l *Limiter) SaveFile(path string) error {
	l.mu.Lock()
	data, err := json.Marshal(l.events)
	l.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// prune drops aged-out events for key and returns what remains. Caller
// holds the lock.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	events := l.events[key]
	i := 0
	for i < len(events) && !events[i].After(cutoff) {
		i++
	}
	if i > 0 {
		events = events[i:]
		if len(events) == 0 {
			delete(l.events, key)
		} else {
			l.events[key] = events
		}
	}
	return events
}
