//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-gov/internal/adapters"
	"github.com/trebuchet-org/treb-gov/internal/config"
	"github.com/trebuchet-org/treb-gov/internal/logging"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		config.ProvideGovernanceConfig,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Governance components
		usecase.NewCallRouter,
		usecase.NewAdminValidator,
		usecase.NewExecutorManager,
		usecase.NewTimelockController,
		usecase.NewProposalGovernor,
		usecase.NewUpgradeAuthority,
		usecase.NewMultisigUpgrader,
		usecase.NewMintScheduler,

		// Use cases
		usecase.NewInitGovernance,
		usecase.NewAdvanceClock,
		usecase.NewManageProxies,
		usecase.NewGovernanceStatus,

		// App
		NewApp,
	)
	return nil, nil
}
