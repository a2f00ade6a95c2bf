package models

import (
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// StateVersion is the schema version written to the state file
const StateVersion = "1.0.0"

// State is the complete keyed record set of the governance core.
// It is only ever mutated inside a store transaction.
type State struct {
	Version     string     `json:"version"`
	Initialized bool       `json:"initialized"`
	GenesisAt   *time.Time `json:"genesisAt,omitempty"`

	// ClockOffset shifts the local clock forward for sandbox time travel
	ClockOffset time.Duration `json:"clockOffset,omitempty"`

	Proposals map[common.Hash]*Proposal    `json:"proposals"`
	Council   map[common.Address]time.Time `json:"council"`

	Timelock map[common.Hash]*TimelockOperation `json:"timelock"`

	Upgrades     map[UpgradeAuthorityKind]map[common.Address]*PendingUpgrade `json:"upgrades"`
	UpgradeNonce map[UpgradeAuthorityKind]uint64                             `json:"upgradeNonce"`

	Executors ExecutorRegistry                    `json:"executors"`
	Admins    map[common.Address]*AuthorizedAdmin `json:"admins"`

	MintRequests map[uint64]*MintRequest `json:"mintRequests"`
	Mint         MintLedger              `json:"mint"`

	Token TokenLedger `json:"token"`

	// Local proxy and code registry used when no chain is attached
	Proxies   map[common.Address]*ProxyInfo `json:"proxies"`
	Contracts map[common.Address]string     `json:"contracts"`
}

// NewState returns an empty state with all collections allocated
func NewState() *State {
	st := &State{Version: StateVersion}
	st.Normalize()
	return st
}

// Normalize allocates any collection left nil by decoding
func (s *State) Normalize() {
	if s.Version == "" {
		s.Version = StateVersion
	}
	if s.Proposals == nil {
		s.Proposals = make(map[common.Hash]*Proposal)
	}
	if s.Council == nil {
		s.Council = make(map[common.Address]time.Time)
	}
	if s.Timelock == nil {
		s.Timelock = make(map[common.Hash]*TimelockOperation)
	}
	if s.Upgrades == nil {
		s.Upgrades = make(map[UpgradeAuthorityKind]map[common.Address]*PendingUpgrade)
	}
	if s.UpgradeNonce == nil {
		s.UpgradeNonce = make(map[UpgradeAuthorityKind]uint64)
	}
	if s.Executors.Executors == nil {
		s.Executors.Executors = make(map[common.Address]*ExecutorRecord)
	}
	if s.Admins == nil {
		s.Admins = make(map[common.Address]*AuthorizedAdmin)
	}
	if s.MintRequests == nil {
		s.MintRequests = make(map[uint64]*MintRequest)
	}
	if s.Mint.MintedByPeriod == nil {
		s.Mint.MintedByPeriod = make(map[uint64]*big.Int)
	}
	if s.Mint.TotalMinted == nil {
		s.Mint.TotalMinted = new(big.Int)
	}
	if s.Mint.ConsumedOracleIDs == nil {
		s.Mint.ConsumedOracleIDs = make(map[string]uint64)
	}
	if s.Token.Balances == nil {
		s.Token.Balances = make(map[common.Address]*big.Int)
	}
	if s.Token.Votes == nil {
		s.Token.Votes = make(map[common.Address]Checkpoints)
	}
	if s.Proxies == nil {
		s.Proxies = make(map[common.Address]*ProxyInfo)
	}
	if s.Contracts == nil {
		s.Contracts = make(map[common.Address]string)
	}
	for _, p := range s.Proposals {
		if p.Receipts == nil {
			p.Receipts = make(map[common.Address]*Receipt)
		}
	}
}

// Upgrade returns the upgrade record of an authority for a proxy, or nil
func (s *State) Upgrade(kind UpgradeAuthorityKind, proxy common.Address) *PendingUpgrade {
	return s.Upgrades[kind][proxy]
}

// UpgradeByID finds an authority's upgrade record by its id, or nil
func (s *State) UpgradeByID(kind UpgradeAuthorityKind, id common.Hash) *PendingUpgrade {
	for _, u := range s.Upgrades[kind] {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// PutUpgrade stores the upgrade record under its authority and proxy
func (s *State) PutUpgrade(u *PendingUpgrade) {
	if s.Upgrades[u.Authority] == nil {
		s.Upgrades[u.Authority] = make(map[common.Address]*PendingUpgrade)
	}
	s.Upgrades[u.Authority][u.Proxy] = u
}

// UpgradesOf lists an authority's upgrade records ordered by proposal time
func (s *State) UpgradesOf(kind UpgradeAuthorityKind) []*PendingUpgrade {
	out := make([]*PendingUpgrade, 0, len(s.Upgrades[kind]))
	for _, u := range s.Upgrades[kind] {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProposedAt.Equal(out[j].ProposedAt) {
			return out[i].Proxy.Hex() < out[j].Proxy.Hex()
		}
		return out[i].ProposedAt.Before(out[j].ProposedAt)
	})
	return out
}

// SortedProposals lists proposals ordered by creation time
func (s *State) SortedProposals() []*Proposal {
	out := make([]*Proposal, 0, len(s.Proposals))
	for _, p := range s.Proposals {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SortedMintRequests lists mint requests by id
func (s *State) SortedMintRequests() []*MintRequest {
	out := make([]*MintRequest, 0, len(s.MintRequests))
	for _, r := range s.MintRequests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
