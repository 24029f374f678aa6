package store

import (
	"sync"
	"time"
)

// Clock issues action timestamps that strictly increase
// within one process,
// so two actions by the same agent never share a timestamp.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	Now  func() time.Time // defaults to time.Now
}

// Next returns the next timestamp, in UTC.
func (c *Clock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now
	if now == nil {
		now = time.Now
	}
	at := now().UTC()
	if !at.After(c.last) {
		at = c.last.Add(time.Nanosecond)
	}
	c.last = at
	return at
}
