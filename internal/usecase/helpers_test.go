package usecase_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/govtest"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

func pack(t *testing.T, method string, args ...interface{}) []byte {
	t.Helper()
	data, err := bindings.GovernanceContract().Pack(method, args...)
	require.NoError(t, err)
	return data
}

// addCouncilParams proposes adding member to the security council
func addCouncilParams(t *testing.T, h *govtest.Harness, member common.Address, description string) usecase.ProposeParams {
	return usecase.ProposeParams{
		Targets:     []common.Address{h.Governor.Address()},
		Calldatas:   [][]byte{pack(t, bindings.MethodAddCouncilMember, member)},
		Description: description,
		Type:        models.ProposalTypeStandard,
	}
}

// fundVoters gives Alice 60M, Bob 20M and Carol 2M tokens
func fundVoters(t *testing.T, h *govtest.Harness) {
	t.Helper()
	h.Fund(t, govtest.Alice, 60_000_000)
	h.Fund(t, govtest.Bob, 20_000_000)
	h.Fund(t, govtest.Carol, 2_000_000)
}

func proposalState(t *testing.T, h *govtest.Harness, id common.Hash) models.ProposalState {
	t.Helper()
	state, err := h.Governor.State(context.Background(), id)
	require.NoError(t, err)
	return state
}
