package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// AdvanceClock moves the sandbox clock forward so delays can be exercised locally
type AdvanceClock struct {
	store StateStore
	log   *slog.Logger
}

// NewAdvanceClock creates a new AdvanceClock use case
func NewAdvanceClock(store StateStore, log *slog.Logger) *AdvanceClock {
	return &AdvanceClock{store: store, log: log.With("component", "AdvanceClock")}
}

// Run adds d to the persisted clock offset and returns the new offset
func (uc *AdvanceClock) Run(ctx context.Context, d time.Duration) (time.Duration, error) {
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", d)
	}
	var offset time.Duration
	err := uc.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		st.ClockOffset += d
		offset = st.ClockOffset
		return nil
	})
	if err != nil {
		return 0, err
	}
	uc.log.Info("clock advanced", "by", d, "offset", offset)
	return offset, nil
}
