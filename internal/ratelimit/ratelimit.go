package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

// Limiter allows a fixed number of events per key within a sliding minute.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time

	// Configuration
	eventsPerMinute int
	staleAfter      time.Duration

	hits atomic.Int64
}

type clientInfo struct {
	windowStart time.Time
	lastEvent   time.Time
	events      int
}

// Config holds rate limiter configuration
type Config struct {
	EventsPerMinute int
	// StaleAfter is how long an idle key is remembered.
	StaleAfter time.Duration
	Now        func() time.Time
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		EventsPerMinute: 30,
		StaleAfter:      10 * time.Minute,
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.EventsPerMinute <= 0 {
		config.EventsPerMinute = def.EventsPerMinute
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = def.StaleAfter
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Limiter{
		clients:         make(map[string]*clientInfo),
		now:             config.Now,
		eventsPerMinute: config.EventsPerMinute,
		staleAfter:      config.StaleAfter,
	}
}

// Allow records one event for key and reports whether it is within the limit.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, exists := rl.clients[key]
	if !exists {
		rl.clients[key] = &clientInfo{windowStart: now, lastEvent: now, events: 1}
		return true
	}

	client.lastEvent = now
	if now.Sub(client.windowStart) >= time.Minute {
		client.windowStart = now
		client.events = 1
		return true
	}

	client.events++
	if client.events > rl.eventsPerMinute {
		rl.hits.Add(1)
		return false
	}
	return true
}

// CleanExpired forgets keys idle for longer than StaleAfter.
func (rl *Limiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.staleAfter)
	removed := 0
	for key, client := range rl.clients {
		if client.lastEvent.Before(cutoff) {
			delete(rl.clients, key)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of currently tracked keys
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Hits returns how many events were rejected since start.
func (rl *Limiter) Hits() int64 {
	return rl.hits.Load()
}
