package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockMonotonic(t *testing.T) {
	c := New()

	prev := c.Now()
	for i := 0; i < 1000; i++ {
		now := c.Now()
		require.Greater(t, now, prev)
		prev = now
	}
}

func TestIDGeneratorUnique(t *testing.T) {
	g := NewIDGenerator(New())

	seen := make(map[int64]bool)
	for i := 0; i < 10000; i++ {
		id := g.NextItemID()
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestIDGeneratorOrderedByTime(t *testing.T) {
	g := NewIDGenerator(New())

	a := g.NextItemID()
	b := g.NextItemID()
	// Timestamp occupies the high bits, so later ids carry later millis
	assert.GreaterOrEqual(t, b>>16, a>>16)
}

func TestNewOpID(t *testing.T) {
	a := NewOpID()
	b := NewOpID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
