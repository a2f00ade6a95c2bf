package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
)

// DataDirName is the per-project directory holding the governance state
const DataDirName = ".trebgov"

// Provider creates RuntimeConfig for Wire dependency injection
func Provider(v *viper.Viper) (*config.RuntimeConfig, error) {
	projectRoot := v.GetString("project_root")
	if projectRoot == "" {
		projectRoot = FindProjectRoot()
	}

	// Load .env files first for variable expansion
	loadEnvFiles(projectRoot)

	loaded, err := LoadTrebGovConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	cfg := &config.RuntimeConfig{
		ProjectRoot:    projectRoot,
		DataDir:        filepath.Join(projectRoot, DataDirName),
		StatePath:      v.GetString("state"),
		Debug:          v.GetBool("debug"),
		NonInteractive: v.GetBool("non_interactive"),
		JSON:           v.GetBool("json"),
		Output:         v.GetString("output"),
		Timeout:        v.GetDuration("timeout"),
		ConfigSource:   loaded.Path,
		Governance:     loaded.Governance,
		Network:        loaded.Network,
	}
	if cfg.JSON {
		cfg.Output = "json"
	}
	if cfg.StatePath == "" {
		cfg.StatePath = filepath.Join(cfg.DataDir, "state.json")
	}

	if from := v.GetString("from"); from != "" {
		if !common.IsHexAddress(from) {
			return nil, fmt.Errorf("invalid --from address %q", from)
		}
		cfg.Sender = common.HexToAddress(from)
	}

	if rpcURL := v.GetString("rpc_url"); rpcURL != "" {
		if cfg.Network == nil {
			cfg.Network = &config.Network{Name: "custom"}
		}
		cfg.Network.RPCURL = os.ExpandEnv(rpcURL)
	}
	if chainID := v.GetUint64("chain_id"); chainID != 0 && cfg.Network != nil {
		cfg.Network.ChainID = chainID
	}

	return cfg, nil
}

// ProvideGovernanceConfig extracts the governance tables from the runtime config
func ProvideGovernanceConfig(cfg *config.RuntimeConfig) *config.GovernanceConfig {
	if cfg.Governance == nil {
		cfg.Governance = config.DefaultGovernanceConfig()
	}
	return cfg.Governance
}

func loadEnvFiles(projectRoot string) {
	for _, name := range []string{".env", ".env.local"} {
		envFile := filepath.Join(projectRoot, name)
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			// Log warning but don't fail
			fmt.Fprintf(os.Stderr, "Warning: Failed to load %s: %v\n", envFile, err)
		}
	}
}

// FindProjectRoot walks up from the current directory to the nearest
// trebgov.toml, falling back to the current directory
func FindProjectRoot() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := cwd; ; {
		if _, err := os.Stat(filepath.Join(dir, TrebGovFile)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd
		}
		dir = parent
	}
}

// SetupViper creates and configures a viper instance
func SetupViper(projectRoot string, cmd *cobra.Command) *viper.Viper {
	v := viper.New()

	// Set up environment variables
	v.SetEnvPrefix("TREBGOV")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Set defaults
	v.SetDefault("timeout", "5m")
	v.SetDefault("debug", false)
	v.SetDefault("non_interactive", false)
	v.SetDefault("output", "table")
	v.SetDefault("project_root", projectRoot)

	if cmd != nil {
		bind := func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil {
				panic(err)
			}
		}
		cmd.Flags().VisitAll(bind)
		cmd.InheritedFlags().VisitAll(bind)
	}

	return v
}
