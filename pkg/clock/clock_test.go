package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_SleepAdvances(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewFake(start)

	c.Sleep(5 * time.Millisecond)
	c.Sleep(100 * time.Millisecond)

	assert.Equal(t, start.Add(105*time.Millisecond), c.Now())
	assert.Equal(t, 105*time.Millisecond, c.Slept())
}

func TestFake_Advance(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewFake(start)

	c.Advance(time.Second)
	c.Advance(-time.Second) // ignored

	assert.Equal(t, start.Add(time.Second), c.Now())
	assert.Equal(t, time.Duration(0), c.Slept())
}

func TestSystem_Now(t *testing.T) {
	before := time.Now()
	now := System{}.Now()
	assert.False(t, now.Before(before))
}
