package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSystem(t *testing.T) {
	now := System{}.Now()
	assert.InDelta(t, time.Now().Unix(), int64(now), 2)
}

func TestManual(t *testing.T) {
	c := NewManual(100)
	assert.Equal(t, uint32(100), c.Now())
	assert.Equal(t, uint32(160), c.Advance(60))
	c.Set(10)
	assert.Equal(t, uint32(10), c.Now())
}
