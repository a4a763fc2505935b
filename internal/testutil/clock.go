package testutil

import (
	"sync"
	"time"
)

// Epoch is the first timestamp handed out by a fresh Timestamps.
var Epoch = time.Date(2025, time.May, 1, 12, 0, 0, 0, time.UTC)

// Timestamps hands out journal timestamps one second apart, starting at
// Epoch. Reset makes a scenario produce the same stamps on every run.
//
// Thread-safety: all methods are safe for concurrent use.
type Timestamps struct {
	mu sync.Mutex
	n  int
}

// NewTimestamps creates a source whose first Next returns Epoch.
func NewTimestamps() *Timestamps {
	return &Timestamps{}
}

// Next returns the next timestamp in the journal's RFC3339 form.
func (c *Timestamps) Next() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := Epoch.Add(time.Duration(c.n) * time.Second)
	c.n++
	return ts.Format(time.RFC3339)
}

// Current returns the most recent timestamp, or "" before the first Next.
func (c *Timestamps) Current() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == 0 {
		return ""
	}
	return Epoch.Add(time.Duration(c.n-1) * time.Second).Format(time.RFC3339)
}

// Reset rewinds the source to Epoch.
func (c *Timestamps) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
