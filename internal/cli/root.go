package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/app"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/config"
	domainconfig "github.com/trebuchet-org/treb-gov/internal/domain/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"

	// annotationLongRunning exempts a command from --timeout
	annotationLongRunning = "trebgov/long-running"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trebgov",
		Short: "DAO governance core: proposals, timelocked upgrades and scheduled issuance",
		Long: `trebgov runs a DAO governance core against a local state file.

It covers tiered-quorum proposals executed through a timelock, role-gated and
multisig proxy upgrades with mandatory delays, an executor allow-list with
daily limits, and a 25 period token issuance schedule.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "calldata" {
				return nil
			}

			projectRoot := config.FindProjectRoot()

			// Set up viper; flags that were not set fall back to env and defaults
			v := config.SetupViper(projectRoot, cmd)

			// Initialize app with DI
			appInstance, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			if shouldWarnDefaults(cmd.Name(), appInstance.Config) {
				fmt.Fprintln(os.Stderr, render.FormatWarning(
					"No trebgov.toml found, using built-in governance defaults"))
			}

			// Store app in context
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)

			// Add timeout if configured
			if appInstance.Config.Timeout > 0 && cmd.Annotations[annotationLongRunning] == "" {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				// Store cancel func to be called on command completion
				cmd.PostRun = func(cmd *cobra.Command, args []string) {
					cancel()
				}
			}

			cmd.SetContext(ctx)

			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().String("from", "", "Address the command acts as")
	rootCmd.PersistentFlags().String("state", "", "State file (defaults to .trebgov/state.json)")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC endpoint for proxy inspection")
	rootCmd.PersistentFlags().Uint64("chain-id", 0, "Expected chain id of --rpc-url")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Abort the command after this long (0 disables)")

	// Add command groups
	rootCmd.AddGroup(&cobra.Group{
		ID:    "governance",
		Title: "Governance Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "operations",
		Title: "Operations Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	for _, c := range []*cobra.Command{
		NewProposalCmd(),
		NewCouncilCmd(),
		NewTimelockCmd(),
		NewMintCmd(),
	} {
		c.GroupID = "governance"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{
		NewUpgradeCmd(),
		NewMultisigCmd(),
		NewExecutorCmd(),
		NewAdminCmd(),
	} {
		c.GroupID = "operations"
		rootCmd.AddCommand(c)
	}

	for _, c := range []*cobra.Command{
		NewInitCmd(),
		NewStatusCmd(),
		NewClockCmd(),
		NewProxyCmd(),
		NewTokenCmd(),
		NewCalldataCmd(),
		NewMetricsCmd(),
	} {
		c.GroupID = "management"
		rootCmd.AddCommand(c)
	}

	// Version command
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// shouldWarnDefaults reports whether to note that no trebgov.toml was found
func shouldWarnDefaults(cmdName string, cfg *domainconfig.RuntimeConfig) bool {
	switch cmdName {
	case "version", "help", "completion", "init", "calldata":
		return false
	}
	if cfg.JSON || render.IsStructured(cfg.Output) {
		return false
	}
	return cfg.ConfigSource == ""
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
