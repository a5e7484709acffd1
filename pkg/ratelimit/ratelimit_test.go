package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(limit int, window time.Duration) (*Limiter, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(limit, window)
	l.now = c.now
	return l, c
}

func TestAllowDrainsAndRefills(t *testing.T) {
	l, c := newTestLimiter(3, time.Minute)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))

	// Other keys have their own bucket.
	assert.True(t, l.Allow("10.0.0.2"))

	c.t = c.t.Add(20 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
}

func TestRefillCappedAtLimit(t *testing.T) {
	l, c := newTestLimiter(2, time.Minute)
	assert.True(t, l.Allow("k"))
	c.t = c.t.Add(time.Hour)
	assert.True(t, l.Allow("k"))
	assert.True(t, l.Allow("k"))
	assert.False(t, l.Allow("k"))
}

func TestPrune(t *testing.T) {
	l, c := newTestLimiter(5, time.Minute)
	l.Allow("old")
	c.t = c.t.Add(90 * time.Second)
	l.Allow("fresh")
	c.t = c.t.Add(60 * time.Second)

	assert.Equal(t, 1, l.Prune())
	assert.Equal(t, 0, l.Prune())
}

func TestRetryAfter(t *testing.T) {
	assert.Equal(t, 2*time.Second, New(30, time.Minute).RetryAfter())
}

func TestZeroLimitDeniesEverything(t *testing.T) {
	l := New(0, time.Minute)
	assert.False(t, l.Allow("k"))
	assert.Equal(t, time.Minute, l.RetryAfter())
}
