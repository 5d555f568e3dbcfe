package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestBreaker_InitialState(t *testing.T) {
	b := New("cas")
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
	assert.Equal(t, "cas", b.Name())
	assert.True(t, b.Allow())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("cas", WithFailureThreshold(3))

	unavailable, change := b.RecordFailure()
	assert.False(t, unavailable)
	assert.False(t, change.Opened)

	unavailable, _ = b.RecordFailure()
	assert.False(t, unavailable)

	unavailable, change = b.RecordFailure()
	assert.True(t, unavailable)
	assert.True(t, change.Opened)
	assert.True(t, b.IsOpen())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("cas", WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_RefusesUntilCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New("cas", WithFailureThreshold(1), WithCooldown(10*time.Second), WithClock(clock.Now))

	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.Advance(9 * time.Second)
	assert.False(t, b.Allow())

	clock.Advance(time.Second)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
}

func TestBreaker_HalfOpenClosesAfterSuccessThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New("cas", WithFailureThreshold(1), WithSuccessThreshold(2), WithCooldown(time.Second), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(time.Second)
	assert.True(t, b.Allow())

	closed, change := b.RecordSuccess()
	assert.False(t, closed)
	assert.False(t, change.Closed)

	closed, change = b.RecordSuccess()
	assert.True(t, closed)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	b := New("cas", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(clock.Now))

	b.RecordFailure()
	clock.Advance(time.Second)
	assert.True(t, b.Allow())

	unavailable, change := b.RecordFailure()
	assert.True(t, unavailable)
	assert.False(t, change.Opened)
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow(), "cooldown restarts")
}

func TestBreaker_Reset(t *testing.T) {
	b := New("cas", WithFailureThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_NilIsAlwaysClosed(t *testing.T) {
	var b *Breaker
	assert.True(t, b.Allow())
	unavailable, _ := b.RecordFailure()
	assert.False(t, unavailable)
}
