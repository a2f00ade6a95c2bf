package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// BasisPoints is the denominator of every bps value
const BasisPoints = 10_000

// GovernanceConfig is the immutable configuration of the governance core.
// All tables (quorum tiers, delays, issuance phases) are passed in here so
// alternate schedules can be exercised without code changes.
type GovernanceConfig struct {
	Governor  GovernorConfig
	Timelock  TimelockConfig
	Upgrade   UpgradeConfig
	Multisig  MultisigConfig
	Executors ExecutorConfig
	Admins    AdminValidatorConfig
	Mint      MintConfig
	Oracle    OracleConfig
	Clock     ClockConfig
	Roles     map[string][]common.Address
	Council   []common.Address
	Token     TokenConfig
	Proxies   []ProxyConfig
	Contracts map[string]common.Address
}

// TokenAllocation is a genesis balance of the local token ledger
type TokenAllocation struct {
	Account common.Address
	Amount  *big.Int
}

// TokenConfig configures the local token ledger
type TokenConfig struct {
	Allocations []TokenAllocation
}

// ProxyConfig seeds a proxy into the local proxy registry
type ProxyConfig struct {
	Address        common.Address
	Type           string
	Implementation common.Address
	Admin          common.Address
}

// GovernorConfig configures proposal creation, voting and quorum
type GovernorConfig struct {
	Address               common.Address
	Name                  string
	VotingDelay           uint64 // blocks between proposal and snapshot
	VotingPeriod          uint64 // blocks the vote stays open
	EmergencyVotingPeriod uint64
	ProposalThresholdBps  uint64
	QuorumBps             map[models.ProposalType]uint64
	MinQuorumBps          uint64
	QuorumReferenceSupply *big.Int
	PrivilegedMultisig    common.Address
	MaxOperations         int
	ExecutionDelay        map[models.ProposalType]time.Duration
	GracePeriod           time.Duration
}

// TimelockConfig configures the operation timelock
type TimelockConfig struct {
	Address  common.Address
	MinDelay time.Duration
}

// UpgradeConfig configures the role-gated upgrade authority
type UpgradeConfig struct {
	Address            common.Address
	RequiredSignatures int
	StandardDelay      time.Duration
	EmergencyDelay     time.Duration
	ExecutionWindow    time.Duration
}

// MultisigConfig configures the standalone owner-set upgrade authority
type MultisigConfig struct {
	Address            common.Address
	Owners             []common.Address
	Threshold          int
	EmergencyThreshold int
}

// ExecutorConfig configures the executor allow-list
type ExecutorConfig struct {
	Address    common.Address
	DailyLimit uint64
	Cooldown   time.Duration
	Initial    []common.Address
}

// AdminValidatorConfig configures the proxy admin registry
type AdminValidatorConfig struct {
	Address common.Address
}

// MintPhase is a contiguous run of periods sharing an annual cap
type MintPhase struct {
	Name        string
	FirstPeriod uint64
	LastPeriod  uint64
	AnnualBps   uint64
}

// MintConfig configures the issuance schedule
type MintConfig struct {
	Address            common.Address
	MaxSupply          *big.Int
	MintableCeilingBps uint64
	ScheduleStart      time.Time
	PeriodLength       time.Duration
	Phases             []MintPhase
	ExecutionDelay     time.Duration
	RequestExpiry      time.Duration
	OracleMaxAge       time.Duration
}

// OracleConfig points at the revenue oracle feed
type OracleConfig struct {
	URL     string
	Timeout time.Duration
}

// ClockConfig maps wall-clock time onto block numbers for the local ledger
type ClockConfig struct {
	Genesis   time.Time
	BlockTime time.Duration
}

// TotalPeriods returns the last period covered by the schedule
func (m MintConfig) TotalPeriods() uint64 {
	var last uint64
	for _, p := range m.Phases {
		if p.LastPeriod > last {
			last = p.LastPeriod
		}
	}
	return last
}

// PhaseFor returns the phase covering period, if any
func (m MintConfig) PhaseFor(period uint64) (MintPhase, bool) {
	for _, p := range m.Phases {
		if period >= p.FirstPeriod && period <= p.LastPeriod {
			return p, true
		}
	}
	return MintPhase{}, false
}

// MintableCeiling is the hard cap on cumulative minted supply
func (m MintConfig) MintableCeiling() *big.Int {
	return bps(m.MaxSupply, m.MintableCeilingBps)
}

// PeriodCap is the issuance cap of a period; zero outside the schedule
func (m MintConfig) PeriodCap(period uint64) *big.Int {
	phase, ok := m.PhaseFor(period)
	if !ok {
		return new(big.Int)
	}
	return bps(m.MaxSupply, phase.AnnualBps)
}

func bps(amount *big.Int, points uint64) *big.Int {
	v := new(big.Int).Mul(amount, new(big.Int).SetUint64(points))
	return v.Div(v, big.NewInt(BasisPoints))
}

// tokens returns n whole tokens with 18 decimals
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

// ComponentAddress derives the stable local address of a named component
func ComponentAddress(name string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("trebgov." + name))[12:])
}

// DefaultGovernanceConfig returns the production tables: 4/10/15/20% quorum tiers,
// 7 day standard and 1 day emergency upgrade delays, and a 25 period issuance
// schedule of 5%, 2.5% and 1% annual caps bounded at 60% of max supply.
func DefaultGovernanceConfig() *GovernanceConfig {
	maxSupply := tokens(1_000_000_000)
	day := 24 * time.Hour
	return &GovernanceConfig{
		Governor: GovernorConfig{
			Address:               ComponentAddress("governor"),
			Name:                  "TrebGovernor",
			VotingDelay:           7_200,
			VotingPeriod:          50_400,
			EmergencyVotingPeriod: 7_200,
			ProposalThresholdBps:  300,
			QuorumBps: map[models.ProposalType]uint64{
				models.ProposalTypeStandard:       400,
				models.ProposalTypeMintRequest:    500,
				models.ProposalTypeEmergency:      1_000,
				models.ProposalTypeUpgrade:        1_500,
				models.ProposalTypeConstitutional: 2_000,
			},
			MinQuorumBps:          100,
			QuorumReferenceSupply: maxSupply,
			MaxOperations:         10,
			ExecutionDelay: map[models.ProposalType]time.Duration{
				models.ProposalTypeStandard:       2 * day,
				models.ProposalTypeMintRequest:    2 * day,
				models.ProposalTypeEmergency:      6 * time.Hour,
				models.ProposalTypeUpgrade:        2 * day,
				models.ProposalTypeConstitutional: 7 * day,
			},
			GracePeriod: 14 * day,
		},
		Timelock: TimelockConfig{
			Address:  ComponentAddress("timelock"),
			MinDelay: 6 * time.Hour,
		},
		Upgrade: UpgradeConfig{
			Address:            ComponentAddress("upgrade-authority"),
			RequiredSignatures: 2,
			StandardDelay:      7 * day,
			EmergencyDelay:     day,
			ExecutionWindow:    14 * day,
		},
		Multisig: MultisigConfig{
			Address:            ComponentAddress("multisig-upgrader"),
			Threshold:          2,
			EmergencyThreshold: 3,
		},
		Executors: ExecutorConfig{
			Address:    ComponentAddress("executor-manager"),
			DailyLimit: 10,
			Cooldown:   day,
		},
		Admins: AdminValidatorConfig{
			Address: ComponentAddress("admin-validator"),
		},
		Mint: MintConfig{
			Address:            ComponentAddress("mint-scheduler"),
			MaxSupply:          maxSupply,
			MintableCeilingBps: 6_000,
			PeriodLength:       365 * day,
			Phases: []MintPhase{
				{Name: "early", FirstPeriod: 1, LastPeriod: 5, AnnualBps: 500},
				{Name: "growth", FirstPeriod: 6, LastPeriod: 15, AnnualBps: 250},
				{Name: "mature", FirstPeriod: 16, LastPeriod: 25, AnnualBps: 100},
			},
			ExecutionDelay: 2 * day,
			RequestExpiry:  30 * day,
			OracleMaxAge:   day,
		},
		Oracle: OracleConfig{
			Timeout: 10 * time.Second,
		},
		Clock: ClockConfig{
			BlockTime: 12 * time.Second,
		},
		Roles:     map[string][]common.Address{},
		Contracts: map[string]common.Address{},
	}
}

// Validate checks the structural invariants of the configuration
func (c *GovernanceConfig) Validate() error {
	if err := c.Governor.validate(); err != nil {
		return err
	}
	if err := c.Upgrade.validate(); err != nil {
		return err
	}
	if err := c.Multisig.validate(); err != nil {
		return err
	}
	if err := c.Mint.validate(); err != nil {
		return err
	}
	if c.Executors.DailyLimit == 0 {
		return fmt.Errorf("%w: executor daily limit must be positive", domain.ErrInvalidConfig)
	}
	for t, d := range c.Governor.ExecutionDelay {
		if d < c.Timelock.MinDelay {
			return fmt.Errorf("%w: %s execution delay %s below timelock minimum %s",
				domain.ErrInvalidConfig, t, d, c.Timelock.MinDelay)
		}
	}
	return nil
}

func (g GovernorConfig) validate() error {
	if g.VotingDelay == 0 {
		return fmt.Errorf("%w: voting delay must be at least one block", domain.ErrInvalidConfig)
	}
	if g.VotingPeriod == 0 {
		return fmt.Errorf("%w: voting period must be positive", domain.ErrInvalidConfig)
	}
	if g.MaxOperations <= 0 {
		return fmt.Errorf("%w: max operations must be positive", domain.ErrInvalidConfig)
	}
	for _, t := range models.AllProposalTypes() {
		v, ok := g.QuorumBps[t]
		if !ok {
			return fmt.Errorf("%w: missing quorum for %s proposals", domain.ErrInvalidConfig, t)
		}
		if v == 0 || v > BasisPoints {
			return fmt.Errorf("%w: quorum for %s proposals out of range: %d", domain.ErrInvalidConfig, t, v)
		}
		if _, ok := g.ExecutionDelay[t]; !ok {
			return fmt.Errorf("%w: missing execution delay for %s proposals", domain.ErrInvalidConfig, t)
		}
	}
	if err := ValidateQuorumOrdering(g.QuorumBps); err != nil {
		return err
	}
	if g.MinQuorumBps > g.QuorumBps[models.ProposalTypeStandard] {
		return fmt.Errorf("%w: minimum quorum exceeds standard quorum", domain.ErrInvalidConfig)
	}
	if g.ProposalThresholdBps > BasisPoints {
		return fmt.Errorf("%w: proposal threshold out of range", domain.ErrInvalidConfig)
	}
	if g.QuorumReferenceSupply == nil || g.QuorumReferenceSupply.Sign() < 0 {
		return fmt.Errorf("%w: quorum reference supply must be set", domain.ErrInvalidConfig)
	}
	return nil
}

// ValidateQuorumOrdering enforces Standard < Emergency < Upgrade < Constitutional
func ValidateQuorumOrdering(q map[models.ProposalType]uint64) error {
	order := []models.ProposalType{
		models.ProposalTypeStandard,
		models.ProposalTypeEmergency,
		models.ProposalTypeUpgrade,
		models.ProposalTypeConstitutional,
	}
	for i := 1; i < len(order); i++ {
		lo, hi := order[i-1], order[i]
		if q[lo] >= q[hi] {
			return fmt.Errorf("%w: quorum for %s (%d bps) must be below %s (%d bps)",
				domain.ErrInvalidConfig, lo, q[lo], hi, q[hi])
		}
	}
	return nil
}

func (u UpgradeConfig) validate() error {
	if u.RequiredSignatures <= 0 {
		return fmt.Errorf("%w: required signatures must be positive", domain.ErrInvalidConfig)
	}
	if u.EmergencyDelay >= u.StandardDelay {
		return fmt.Errorf("%w: emergency delay must be shorter than standard delay", domain.ErrInvalidConfig)
	}
	if u.ExecutionWindow <= 0 {
		return fmt.Errorf("%w: execution window must be positive", domain.ErrInvalidConfig)
	}
	return nil
}

func (m MultisigConfig) validate() error {
	if len(m.Owners) == 0 {
		return nil
	}
	seen := make(map[common.Address]bool, len(m.Owners))
	for _, o := range m.Owners {
		if o == (common.Address{}) {
			return fmt.Errorf("%w: multisig owner is the zero address", domain.ErrInvalidConfig)
		}
		if seen[o] {
			return fmt.Errorf("%w: duplicate multisig owner %s", domain.ErrInvalidConfig, o.Hex())
		}
		seen[o] = true
	}
	if m.Threshold <= 0 || m.Threshold > len(m.Owners) {
		return fmt.Errorf("%w: multisig threshold %d out of range for %d owners",
			domain.ErrInvalidConfig, m.Threshold, len(m.Owners))
	}
	if m.EmergencyThreshold < m.Threshold || m.EmergencyThreshold > len(m.Owners) {
		return fmt.Errorf("%w: multisig emergency threshold %d out of range",
			domain.ErrInvalidConfig, m.EmergencyThreshold)
	}
	return nil
}

func (m MintConfig) validate() error {
	if m.MaxSupply == nil || m.MaxSupply.Sign() <= 0 {
		return fmt.Errorf("%w: max supply must be positive", domain.ErrInvalidConfig)
	}
	if m.MintableCeilingBps == 0 || m.MintableCeilingBps >= BasisPoints {
		return fmt.Errorf("%w: mintable ceiling must be below max supply", domain.ErrInvalidConfig)
	}
	if m.PeriodLength <= 0 {
		return fmt.Errorf("%w: period length must be positive", domain.ErrInvalidConfig)
	}
	if len(m.Phases) == 0 {
		return fmt.Errorf("%w: issuance schedule has no phases", domain.ErrInvalidConfig)
	}
	next := uint64(1)
	for i, p := range m.Phases {
		if p.FirstPeriod != next || p.LastPeriod < p.FirstPeriod {
			return fmt.Errorf("%w: phase %q must cover periods from %d contiguously",
				domain.ErrInvalidConfig, p.Name, next)
		}
		if i > 0 && p.AnnualBps >= m.Phases[i-1].AnnualBps {
			return fmt.Errorf("%w: phase %q cap must be below phase %q",
				domain.ErrInvalidConfig, p.Name, m.Phases[i-1].Name)
		}
		next = p.LastPeriod + 1
	}
	if m.RequestExpiry <= m.ExecutionDelay {
		return fmt.Errorf("%w: mint request expiry must exceed the execution delay", domain.ErrInvalidConfig)
	}
	return nil
}
