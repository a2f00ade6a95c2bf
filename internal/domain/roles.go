package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Role names understood by the role manager. Role ids are keccak256 of the name.
const (
	RoleGovernance       = "GOVERNANCE_ROLE"
	RoleUpgradeProposer  = "UPGRADE_PROPOSER_ROLE"
	RoleUpgradeSigner    = "UPGRADE_SIGNER_ROLE"
	RoleUpgradeCanceller = "UPGRADE_CANCELLER_ROLE"
	RoleExecutorAdmin    = "EXECUTOR_ADMIN_ROLE"
	RoleEmergency        = "EMERGENCY_ROLE"
	RoleAdminRegistrar   = "ADMIN_REGISTRAR_ROLE"
	RoleMinter           = "MINTER_ROLE"
	RoleProposer         = "PROPOSER_ROLE"
	RoleCanceller        = "CANCELLER_ROLE"
)

// AllRoles lists every role name in a stable order
func AllRoles() []string {
	return []string{
		RoleGovernance,
		RoleUpgradeProposer,
		RoleUpgradeSigner,
		RoleUpgradeCanceller,
		RoleExecutorAdmin,
		RoleEmergency,
		RoleAdminRegistrar,
		RoleMinter,
		RoleProposer,
		RoleCanceller,
	}
}

// RoleID returns the role identifier for a role name
func RoleID(name string) common.Hash {
	return crypto.Keccak256Hash([]byte(NormalizeRoleName(name)))
}

// NormalizeRoleName maps "upgrade-signer" or "upgrade_signer" to UPGRADE_SIGNER_ROLE
func NormalizeRoleName(name string) string {
	n := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	if !strings.HasSuffix(n, "_ROLE") {
		n += "_ROLE"
	}
	return n
}

// RoleName returns the known name for a role id, or its hex form
func RoleName(id common.Hash) string {
	for _, name := range AllRoles() {
		if RoleID(name) == id {
			return name
		}
	}
	return id.Hex()
}
