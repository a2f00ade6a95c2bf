package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// TrebGovFile is the name of the governance configuration file
const TrebGovFile = "trebgov.toml"

// trebGovTOML is the on-disk shape of trebgov.toml. Durations are strings
// ("6h", "7d"), token amounts are decimal strings in whole tokens, and any
// string may reference ${ENV_VARS}.
type trebGovTOML struct {
	Network   *networkTOML        `toml:"network"`
	Clock     clockTOML           `toml:"clock"`
	Governor  governorTOML        `toml:"governor"`
	Timelock  timelockTOML        `toml:"timelock"`
	Upgrade   upgradeTOML         `toml:"upgrade"`
	Multisig  multisigTOML        `toml:"multisig"`
	Executors executorsTOML       `toml:"executors"`
	Admins    adminsTOML          `toml:"admins"`
	Mint      mintTOML            `toml:"mint"`
	Oracle    oracleTOML          `toml:"oracle"`
	Roles     map[string][]string `toml:"roles"`
	Council   []string            `toml:"council"`
	Contracts map[string]string   `toml:"contracts"`
	Token     tokenTOML           `toml:"token"`
	Proxies   []proxyTOML         `toml:"proxies"`
}

type networkTOML struct {
	Name        string `toml:"name"`
	ChainID     uint64 `toml:"chain_id"`
	RPCURL      string `toml:"rpc_url"`
	ExplorerURL string `toml:"explorer_url"`
}

type clockTOML struct {
	Genesis   string `toml:"genesis"`
	BlockTime string `toml:"block_time"`
}

type governorTOML struct {
	Address               string            `toml:"address"`
	Name                  string            `toml:"name"`
	VotingDelay           *uint64           `toml:"voting_delay"`
	VotingPeriod          *uint64           `toml:"voting_period"`
	EmergencyVotingPeriod *uint64           `toml:"emergency_voting_period"`
	ProposalThresholdBps  *uint64           `toml:"proposal_threshold_bps"`
	QuorumBps             map[string]uint64 `toml:"quorum_bps"`
	MinQuorumBps          *uint64           `toml:"min_quorum_bps"`
	QuorumReferenceSupply string            `toml:"quorum_reference_supply"`
	PrivilegedMultisig    string            `toml:"privileged_multisig"`
	MaxOperations         *int              `toml:"max_operations"`
	ExecutionDelay        map[string]string `toml:"execution_delay"`
	GracePeriod           string            `toml:"grace_period"`
}

type timelockTOML struct {
	Address  string `toml:"address"`
	MinDelay string `toml:"min_delay"`
}

type upgradeTOML struct {
	Address            string `toml:"address"`
	RequiredSignatures *int   `toml:"required_signatures"`
	StandardDelay      string `toml:"standard_delay"`
	EmergencyDelay     string `toml:"emergency_delay"`
	ExecutionWindow    string `toml:"execution_window"`
}

type multisigTOML struct {
	Address            string   `toml:"address"`
	Owners             []string `toml:"owners"`
	Threshold          *int     `toml:"threshold"`
	EmergencyThreshold *int     `toml:"emergency_threshold"`
}

type executorsTOML struct {
	Address    string   `toml:"address"`
	DailyLimit *uint64  `toml:"daily_limit"`
	Cooldown   string   `toml:"cooldown"`
	Initial    []string `toml:"initial"`
}

type adminsTOML struct {
	Address string `toml:"address"`
}

type mintPhaseTOML struct {
	Name        string `toml:"name"`
	FirstPeriod uint64 `toml:"first_period"`
	LastPeriod  uint64 `toml:"last_period"`
	AnnualBps   uint64 `toml:"annual_bps"`
}

type mintTOML struct {
	Address            string          `toml:"address"`
	MaxSupply          string          `toml:"max_supply"`
	MintableCeilingBps *uint64         `toml:"mintable_ceiling_bps"`
	ScheduleStart      string          `toml:"schedule_start"`
	PeriodLength       string          `toml:"period_length"`
	Phases             []mintPhaseTOML `toml:"phases"`
	ExecutionDelay     string          `toml:"execution_delay"`
	RequestExpiry      string          `toml:"request_expiry"`
	OracleMaxAge       string          `toml:"oracle_max_age"`
}

type oracleTOML struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

type allocationTOML struct {
	Account string `toml:"account"`
	Amount  string `toml:"amount"`
}

type tokenTOML struct {
	Allocations []allocationTOML `toml:"allocations"`
}

type proxyTOML struct {
	Address        string `toml:"address"`
	Type           string `toml:"type"`
	Implementation string `toml:"implementation"`
	Admin          string `toml:"admin"`
}

// LoadedFile is the result of reading trebgov.toml
type LoadedFile struct {
	Path       string
	Governance *config.GovernanceConfig
	Network    *config.Network
}

// LoadTrebGovConfig reads trebgov.toml from projectRoot and overlays it on the
// default governance tables. A missing file yields the defaults.
func LoadTrebGovConfig(projectRoot string) (*LoadedFile, error) {
	path := filepath.Join(projectRoot, TrebGovFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &LoadedFile{Governance: config.DefaultGovernanceConfig()}, nil
	}

	var raw trebGovTOML
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", TrebGovFile, err)
	}
	gov, network, err := raw.resolve()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TrebGovFile, err)
	}
	return &LoadedFile{Path: path, Governance: gov, Network: network}, nil
}

// ParseTrebGovConfig decodes trebgov.toml content without touching the filesystem
func ParseTrebGovConfig(data string) (*config.GovernanceConfig, *config.Network, error) {
	var raw trebGovTOML
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", TrebGovFile, err)
	}
	return raw.resolve()
}

// resolver accumulates the first conversion error so sections read linearly
type resolver struct {
	err error
}

func (r *resolver) fail(field string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s: %v", domain.ErrInvalidConfig, field, err)
	}
}

func (r *resolver) address(field, raw string, dst *common.Address) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return
	}
	if !common.IsHexAddress(raw) {
		r.fail(field, fmt.Errorf("invalid address %q", raw))
		return
	}
	*dst = common.HexToAddress(raw)
}

func (r *resolver) addresses(field string, raw []string) []common.Address {
	out := make([]common.Address, 0, len(raw))
	for i, s := range raw {
		var a common.Address
		r.address(fmt.Sprintf("%s[%d]", field, i), s, &a)
		out = append(out, a)
	}
	return out
}

func (r *resolver) duration(field, raw string, dst *time.Duration) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return
	}
	d, err := ParseDuration(raw)
	if err != nil {
		r.fail(field, err)
		return
	}
	*dst = d
}

func (r *resolver) timestamp(field, raw string, dst *time.Time) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		r.fail(field, err)
		return
	}
	*dst = t.UTC()
}

func (r *resolver) tokens(field, raw string, dst **big.Int) {
	raw = strings.TrimSpace(os.ExpandEnv(raw))
	if raw == "" {
		return
	}
	v, err := models.ParseTokens(raw)
	if err != nil {
		r.fail(field, err)
		return
	}
	*dst = v
}

func proposalType(field, name string) (models.ProposalType, error) {
	t, ok := models.ParseProposalType(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s: unknown proposal type %q", domain.ErrInvalidConfig, field, name)
	}
	return t, nil
}

func (raw *trebGovTOML) resolve() (*config.GovernanceConfig, *config.Network, error) {
	cfg := config.DefaultGovernanceConfig()
	r := &resolver{}

	var network *config.Network
	if raw.Network != nil {
		network = &config.Network{
			Name:        raw.Network.Name,
			ChainID:     raw.Network.ChainID,
			RPCURL:      os.ExpandEnv(raw.Network.RPCURL),
			ExplorerURL: os.ExpandEnv(raw.Network.ExplorerURL),
		}
	}

	r.timestamp("clock.genesis", raw.Clock.Genesis, &cfg.Clock.Genesis)
	r.duration("clock.block_time", raw.Clock.BlockTime, &cfg.Clock.BlockTime)

	g := raw.Governor
	r.address("governor.address", g.Address, &cfg.Governor.Address)
	if g.Name != "" {
		cfg.Governor.Name = g.Name
	}
	setUint(&cfg.Governor.VotingDelay, g.VotingDelay)
	setUint(&cfg.Governor.VotingPeriod, g.VotingPeriod)
	setUint(&cfg.Governor.EmergencyVotingPeriod, g.EmergencyVotingPeriod)
	setUint(&cfg.Governor.ProposalThresholdBps, g.ProposalThresholdBps)
	setUint(&cfg.Governor.MinQuorumBps, g.MinQuorumBps)
	if g.MaxOperations != nil {
		cfg.Governor.MaxOperations = *g.MaxOperations
	}
	for name, v := range g.QuorumBps {
		t, err := proposalType("governor.quorum_bps", name)
		if err != nil {
			return nil, nil, err
		}
		cfg.Governor.QuorumBps[t] = v
	}
	for name, v := range g.ExecutionDelay {
		t, err := proposalType("governor.execution_delay", name)
		if err != nil {
			return nil, nil, err
		}
		d := cfg.Governor.ExecutionDelay[t]
		r.duration("governor.execution_delay."+name, v, &d)
		cfg.Governor.ExecutionDelay[t] = d
	}
	r.tokens("governor.quorum_reference_supply", g.QuorumReferenceSupply, &cfg.Governor.QuorumReferenceSupply)
	r.address("governor.privileged_multisig", g.PrivilegedMultisig, &cfg.Governor.PrivilegedMultisig)
	r.duration("governor.grace_period", g.GracePeriod, &cfg.Governor.GracePeriod)

	r.address("timelock.address", raw.Timelock.Address, &cfg.Timelock.Address)
	r.duration("timelock.min_delay", raw.Timelock.MinDelay, &cfg.Timelock.MinDelay)

	u := raw.Upgrade
	r.address("upgrade.address", u.Address, &cfg.Upgrade.Address)
	if u.RequiredSignatures != nil {
		cfg.Upgrade.RequiredSignatures = *u.RequiredSignatures
	}
	r.duration("upgrade.standard_delay", u.StandardDelay, &cfg.Upgrade.StandardDelay)
	r.duration("upgrade.emergency_delay", u.EmergencyDelay, &cfg.Upgrade.EmergencyDelay)
	r.duration("upgrade.execution_window", u.ExecutionWindow, &cfg.Upgrade.ExecutionWindow)

	m := raw.Multisig
	r.address("multisig.address", m.Address, &cfg.Multisig.Address)
	if len(m.Owners) > 0 {
		cfg.Multisig.Owners = r.addresses("multisig.owners", m.Owners)
	}
	if m.Threshold != nil {
		cfg.Multisig.Threshold = *m.Threshold
	}
	if m.EmergencyThreshold != nil {
		cfg.Multisig.EmergencyThreshold = *m.EmergencyThreshold
	}

	e := raw.Executors
	r.address("executors.address", e.Address, &cfg.Executors.Address)
	setUint(&cfg.Executors.DailyLimit, e.DailyLimit)
	r.duration("executors.cooldown", e.Cooldown, &cfg.Executors.Cooldown)
	if len(e.Initial) > 0 {
		cfg.Executors.Initial = r.addresses("executors.initial", e.Initial)
	}

	r.address("admins.address", raw.Admins.Address, &cfg.Admins.Address)

	mint := raw.Mint
	r.address("mint.address", mint.Address, &cfg.Mint.Address)
	r.tokens("mint.max_supply", mint.MaxSupply, &cfg.Mint.MaxSupply)
	setUint(&cfg.Mint.MintableCeilingBps, mint.MintableCeilingBps)
	r.timestamp("mint.schedule_start", mint.ScheduleStart, &cfg.Mint.ScheduleStart)
	r.duration("mint.period_length", mint.PeriodLength, &cfg.Mint.PeriodLength)
	r.duration("mint.execution_delay", mint.ExecutionDelay, &cfg.Mint.ExecutionDelay)
	r.duration("mint.request_expiry", mint.RequestExpiry, &cfg.Mint.RequestExpiry)
	r.duration("mint.oracle_max_age", mint.OracleMaxAge, &cfg.Mint.OracleMaxAge)
	if len(mint.Phases) > 0 {
		cfg.Mint.Phases = make([]config.MintPhase, len(mint.Phases))
		for i, p := range mint.Phases {
			cfg.Mint.Phases[i] = config.MintPhase{
				Name:        p.Name,
				FirstPeriod: p.FirstPeriod,
				LastPeriod:  p.LastPeriod,
				AnnualBps:   p.AnnualBps,
			}
		}
	}

	cfg.Oracle.URL = os.ExpandEnv(raw.Oracle.URL)
	r.duration("oracle.timeout", raw.Oracle.Timeout, &cfg.Oracle.Timeout)

	for name, accounts := range raw.Roles {
		role := domain.NormalizeRoleName(name)
		cfg.Roles[role] = append(cfg.Roles[role], r.addresses("roles."+name, accounts)...)
	}
	cfg.Council = r.addresses("council", raw.Council)
	for label, addr := range raw.Contracts {
		var a common.Address
		r.address("contracts."+label, addr, &a)
		cfg.Contracts[label] = a
	}
	for i, alloc := range raw.Token.Allocations {
		field := fmt.Sprintf("token.allocations[%d]", i)
		var a config.TokenAllocation
		r.address(field+".account", alloc.Account, &a.Account)
		r.tokens(field+".amount", alloc.Amount, &a.Amount)
		cfg.Token.Allocations = append(cfg.Token.Allocations, a)
	}
	for i, p := range raw.Proxies {
		field := fmt.Sprintf("proxies[%d]", i)
		pc := config.ProxyConfig{Type: p.Type}
		if pc.Type == "" {
			pc.Type = "ERC1967"
		}
		r.address(field+".address", p.Address, &pc.Address)
		r.address(field+".implementation", p.Implementation, &pc.Implementation)
		r.address(field+".admin", p.Admin, &pc.Admin)
		cfg.Proxies = append(cfg.Proxies, pc)
	}

	if r.err != nil {
		return nil, nil, r.err
	}
	return cfg, network, nil
}

func setUint(dst *uint64, v *uint64) {
	if v != nil {
		*dst = *v
	}
}

// ParseDuration extends time.ParseDuration with a "d" (24h) unit, so "7d" and
// "1d12h" are accepted
func ParseDuration(s string) (time.Duration, error) {
	if days, rest, ok := strings.Cut(s, "d"); ok {
		n, err := strconv.ParseUint(days, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		d := time.Duration(n) * 24 * time.Hour
		if rest == "" {
			return d, nil
		}
		extra, err := time.ParseDuration(rest)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return d + extra, nil
	}
	return time.ParseDuration(s)
}
