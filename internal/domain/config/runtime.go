package config

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RuntimeConfig is the resolved configuration of one trebgov invocation:
// flags, TREBGOV_ environment and trebgov.toml merged together.
type RuntimeConfig struct {
	ProjectRoot string
	DataDir     string // .trebgov under the project root
	StatePath   string // explicit --state; empty falls back to DataDir

	// Sender is the address state-changing commands act as (--from)
	Sender common.Address

	// Network enables on-chain proxy inspection; nil keeps it local
	Network *Network

	Debug          bool
	NonInteractive bool
	JSON           bool
	Output         string // table, json or yaml
	Timeout        time.Duration

	ConfigSource string // path of the loaded trebgov.toml, empty for defaults

	Governance *GovernanceConfig
}

// Network identifies the chain proxies are read from
type Network struct {
	ChainID     uint64 `json:"chainId"`
	Name        string `json:"name"`
	RPCURL      string `json:"rpcUrl"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}
