package clock

import (
	"context"
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// SystemClock reads wall time shifted by the persisted sandbox offset and
// derives block numbers from the configured genesis and block time
type SystemClock struct {
	store     usecase.StateStore
	genesis   time.Time
	blockTime time.Duration
	now       func() time.Time
	log       *slog.Logger
}

// NewSystemClock creates a new SystemClock
func NewSystemClock(cfg *config.GovernanceConfig, store usecase.StateStore, log *slog.Logger) *SystemClock {
	return &SystemClock{
		store:     store,
		genesis:   cfg.Clock.Genesis,
		blockTime: cfg.Clock.BlockTime,
		now:       time.Now,
		log:       log.With("component", "clock"),
	}
}

// stored reads the clock offset and genesis kept in the state. When the
// state cannot be read the clock runs on wall time and configured genesis.
func (c *SystemClock) stored() (offset time.Duration, genesis *time.Time) {
	err := c.store.View(context.Background(), func(st *models.State) error {
		offset = st.ClockOffset
		genesis = st.GenesisAt
		return nil
	})
	if err != nil {
		c.log.Warn("failed to read clock state, using wall time", "error", err)
		return 0, nil
	}
	return offset, genesis
}

// Now returns the current governance time
func (c *SystemClock) Now() time.Time {
	offset, _ := c.stored()
	return c.at(offset)
}

func (c *SystemClock) at(offset time.Duration) time.Time {
	return c.now().Add(offset).UTC().Truncate(time.Second)
}

// BlockNumber returns the number of whole blocks since genesis, starting at 1
func (c *SystemClock) BlockNumber() uint64 {
	offset, stored := c.stored()
	genesis := c.genesis
	if genesis.IsZero() && stored != nil {
		genesis = *stored
	}
	now := c.at(offset)
	if genesis.IsZero() || now.Before(genesis) || c.blockTime <= 0 {
		return 1
	}
	return uint64(now.Sub(genesis)/c.blockTime) + 1
}

var _ usecase.Clock = (*SystemClock)(nil)
