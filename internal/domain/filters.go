package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// ProposalFilter defines filtering options for proposals
type ProposalFilter struct {
	Type     *models.ProposalType
	State    models.ProposalState
	Proposer common.Address
}

// UpgradeFilter defines filtering options for pending upgrades
type UpgradeFilter struct {
	Authority   models.UpgradeAuthorityKind
	Status      models.UpgradeStatus
	Proxy       common.Address
	IncludeDone bool
}

// MintRequestFilter defines filtering options for mint requests
type MintRequestFilter struct {
	Period uint64
	Status models.MintRequestStatus
}
