package clock

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/adapters/repository/state"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// brokenStore fails every read
type brokenStore struct{ err error }

func (s brokenStore) View(context.Context, func(*models.State) error) error { return s.err }

func (s brokenStore) Update(context.Context, func(context.Context, *models.State) error) error {
	return s.err
}

func (s brokenStore) OnCommit(_ context.Context, fn func()) { fn() }

func TestSystemClock(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := config.DefaultGovernanceConfig()
	cfg.Clock.Genesis = genesis
	store := state.NewInMemoryRepository()

	c := NewSystemClock(cfg, store, discard)
	wall := genesis.Add(time.Minute + 500*time.Millisecond)
	c.now = func() time.Time { return wall }

	assert.Equal(t, genesis.Add(time.Minute), c.Now(), "sub-second precision is dropped")
	assert.Equal(t, uint64(6), c.BlockNumber())

	err := store.Update(context.Background(), func(_ context.Context, st *models.State) error {
		st.ClockOffset = time.Hour
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, genesis.Add(time.Hour+time.Minute), c.Now())
	assert.Equal(t, uint64(306), c.BlockNumber())
}

func TestSystemClockGenesisFromState(t *testing.T) {
	genesis := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	cfg := config.DefaultGovernanceConfig()
	store := state.NewInMemoryRepository()

	c := NewSystemClock(cfg, store, discard)
	c.now = func() time.Time { return genesis.Add(24 * time.Second) }
	assert.Equal(t, uint64(1), c.BlockNumber(), "no genesis yet")

	err := store.Update(context.Background(), func(_ context.Context, st *models.State) error {
		st.GenesisAt = &genesis
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c.BlockNumber())
}

func TestSystemClockUnreadableState(t *testing.T) {
	genesis := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := config.DefaultGovernanceConfig()
	cfg.Clock.Genesis = genesis

	var logged bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logged, nil))
	c := NewSystemClock(cfg, brokenStore{err: errors.New("disk gone")}, log)
	c.now = func() time.Time { return genesis.Add(time.Minute) }

	assert.Equal(t, genesis.Add(time.Minute), c.Now(), "falls back to wall time")
	assert.Equal(t, uint64(6), c.BlockNumber())
	assert.Contains(t, logged.String(), "disk gone")
}
