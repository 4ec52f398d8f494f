package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiter_Allow(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{EventsPerMinute: 3, Now: c.now})

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("u1"), "event %d", i+1)
	}
	assert.False(t, rl.Allow("u1"))
	assert.True(t, rl.Allow("u2"), "keys are independent")
	assert.EqualValues(t, 1, rl.Hits())

	c.advance(30 * time.Second)
	assert.False(t, rl.Allow("u1"), "window is anchored at its first event")

	c.advance(30 * time.Second)
	assert.True(t, rl.Allow("u1"), "new window after a minute")
}

func TestLimiter_CleanExpired(t *testing.T) {
	c := &clock{t: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{EventsPerMinute: 1, StaleAfter: 5 * time.Minute, Now: c.now})

	rl.Allow("u1")
	c.advance(4 * time.Minute)
	rl.Allow("u2")
	assert.Equal(t, 2, rl.ActiveClients())

	c.advance(2 * time.Minute)
	assert.Equal(t, 1, rl.CleanExpired())
	assert.Equal(t, 1, rl.ActiveClients())
}

func TestNewLimiter_Defaults(t *testing.T) {
	rl := NewLimiter(Config{})
	assert.Equal(t, DefaultConfig().EventsPerMinute, rl.eventsPerMinute)
	assert.Equal(t, DefaultConfig().StaleAfter, rl.staleAfter)
}
