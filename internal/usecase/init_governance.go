package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// InitGovernanceParams contains parameters for initializing the ledger
type InitGovernanceParams struct {
	// Force discards any existing state
	Force bool
}

// InitGovernanceResult summarizes what genesis seeded
type InitGovernanceResult struct {
	Executors   int
	Council     int
	Allocations int
	Proxies     int
	Contracts   int
	Supply      *big.Int
}

// InitGovernance seeds a fresh governance state from configuration
type InitGovernance struct {
	cfg    *config.GovernanceConfig
	store  StateStore
	minter TokenMinter
	clock  Clock
	log    *slog.Logger
}

// NewInitGovernance creates a new InitGovernance use case
func NewInitGovernance(cfg *config.GovernanceConfig, store StateStore, minter TokenMinter, clock Clock, log *slog.Logger) *InitGovernance {
	return &InitGovernance{
		cfg:    cfg,
		store:  store,
		minter: minter,
		clock:  clock,
		log:    log.With("component", "InitGovernance"),
	}
}

// Run executes the use case
func (uc *InitGovernance) Run(ctx context.Context, params InitGovernanceParams) (*InitGovernanceResult, error) {
	if err := uc.cfg.Validate(); err != nil {
		return nil, err
	}
	result := &InitGovernanceResult{Supply: new(big.Int)}
	err := uc.store.Update(ctx, func(ctx context.Context, st *models.State) error {
		if st.Initialized && !params.Force {
			return domain.ErrAlreadyInitialized
		}
		offset := st.ClockOffset
		*st = *models.NewState()
		st.ClockOffset = offset

		now := uc.clock.Now()
		st.Initialized = true
		st.GenesisAt = &now

		for _, addr := range uc.cfg.Executors.Initial {
			if addr == (common.Address{}) {
				return fmt.Errorf("initial executor: %w", domain.ErrZeroAddress)
			}
			st.Executors.Executors[addr] = &models.ExecutorRecord{
				Address:   addr,
				Enabled:   true,
				LastReset: now,
				AddedAt:   now,
			}
			result.Executors++
		}
		for _, member := range uc.cfg.Council {
			st.Council[member] = now
			result.Council++
		}
		for label, addr := range uc.cfg.Contracts {
			st.Contracts[addr] = label
			result.Contracts++
		}
		for _, p := range uc.cfg.Proxies {
			st.Proxies[p.Address] = &models.ProxyInfo{
				Address:        p.Address,
				Type:           p.Type,
				Implementation: p.Implementation,
				Admin:          p.Admin,
				History:        []models.ProxyUpgrade{},
			}
			if _, ok := st.Contracts[p.Address]; !ok {
				st.Contracts[p.Address] = "proxy"
			}
			result.Proxies++
		}
		for _, alloc := range uc.cfg.Token.Allocations {
			if err := uc.minter.Mint(ctx, alloc.Account, alloc.Amount); err != nil {
				return fmt.Errorf("failed to allocate to %s: %w", alloc.Account.Hex(), err)
			}
			result.Supply.Add(result.Supply, alloc.Amount)
			result.Allocations++
		}

		uc.log.Info("governance initialized",
			"executors", result.Executors,
			"council", result.Council,
			"proxies", result.Proxies,
			"supply", result.Supply)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
