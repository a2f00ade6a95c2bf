// Package govtest builds a fully wired governance core over an in-memory
// state store for use in tests.
package govtest

import (
	"sync"
	"time"

	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// Genesis is the fixed start time of every test harness
var Genesis = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// Clock is a manually driven clock. Block numbers follow time the same way
// the system clock derives them.
type Clock struct {
	mu        sync.Mutex
	genesis   time.Time
	blockTime time.Duration
	now       time.Time
}

// NewClock creates a clock standing at genesis, block 1
func NewClock(genesis time.Time, blockTime time.Duration) *Clock {
	return &Clock{genesis: genesis, blockTime: blockTime, now: genesis}
}

// Now returns the current time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// BlockNumber returns the number of whole blocks since genesis, starting at 1
func (c *Clock) BlockNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.blockTime <= 0 || c.now.Before(c.genesis) {
		return 1
	}
	return uint64(c.now.Sub(c.genesis)/c.blockTime) + 1
}

// Advance moves time forward by d
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Mine moves time forward by n blocks
func (c *Clock) Mine(n uint64) {
	c.Advance(time.Duration(n) * c.blockTime)
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var _ usecase.Clock = (*Clock)(nil)
