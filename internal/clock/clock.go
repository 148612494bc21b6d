package clock

import (
	"errors"
	"math"
	"sync"
	"time"
)

// Clock block timestamp source, in unix seconds
type Clock interface {
	Now() uint32
}

// System wall clock
type System struct{}

// Now current unix time, panics past 2106
func (System) Now() uint32 {
	now := time.Now().UTC().Unix()
	if now <= 0 || now > math.MaxUint32 {
		panic(errors.New("clock: unix time out of uint32 range"))
	}

	return uint32(now)
}

// Manual clock moved by hand, used by tests and simulations
type Manual struct {
	mu  sync.Mutex
	now uint32
}

// NewManual manual clock starting at now
func NewManual(now uint32) *Manual {
	return &Manual{now: now}
}

// Now current time
func (c *Manual) Now() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jump to now
func (c *Manual) Set(now uint32) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Advance move forward by d seconds
func (c *Manual) Advance(d uint32) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
	return c.now
}
