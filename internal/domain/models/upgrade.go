package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// UpgradeAuthorityKind names the authority that owns a pending upgrade
type UpgradeAuthorityKind string

const (
	UpgradeAuthorityTimelock UpgradeAuthorityKind = "timelock"
	UpgradeAuthorityMultisig UpgradeAuthorityKind = "multisig"
)

// UpgradeStatus is the derived status of a pending upgrade
type UpgradeStatus string

const (
	UpgradeStatusPending    UpgradeStatus = "pending"
	UpgradeStatusExecutable UpgradeStatus = "executable"
	UpgradeStatusExecuted   UpgradeStatus = "executed"
	UpgradeStatusCanceled   UpgradeStatus = "canceled"
	UpgradeStatusExpired    UpgradeStatus = "expired"
)

// PendingUpgrade is an authorized-but-unexecuted implementation change for a proxy
type PendingUpgrade struct {
	ID             common.Hash          `json:"id"`
	Authority      UpgradeAuthorityKind `json:"authority"`
	Proxy          common.Address       `json:"proxy"`
	Implementation common.Address       `json:"implementation"`
	Data           []byte               `json:"data,omitempty"`
	IsEmergency    bool                 `json:"isEmergency"`
	Reason         string               `json:"reason,omitempty"`
	Proposer       common.Address       `json:"proposer"`
	ProposedAt     time.Time            `json:"proposedAt"`
	ExecuteTime    time.Time            `json:"executeTime"`
	Signers        []common.Address     `json:"signers"`

	Executed   bool           `json:"executed"`
	ExecutedAt *time.Time     `json:"executedAt,omitempty"`
	ExecutedBy common.Address `json:"executedBy,omitempty"`
	Canceled   bool           `json:"canceled"`
	CanceledAt *time.Time     `json:"canceledAt,omitempty"`
	CanceledBy common.Address `json:"canceledBy,omitempty"`
}

// HasSigned reports whether signer is in the signer set
func (u *PendingUpgrade) HasSigned(signer common.Address) bool {
	for _, s := range u.Signers {
		if s == signer {
			return true
		}
	}
	return false
}

// SignatureCount returns the number of distinct signers
func (u *PendingUpgrade) SignatureCount() int {
	return len(u.Signers)
}

// ExpiresAt is the end of the execution window
func (u *PendingUpgrade) ExpiresAt(window time.Duration) time.Time {
	return u.ExecuteTime.Add(window)
}

// Expired reports whether the execution window has passed without execution
func (u *PendingUpgrade) Expired(now time.Time, window time.Duration) bool {
	return !u.Executed && !u.Canceled && now.After(u.ExpiresAt(window))
}

// Resolved reports whether the record no longer blocks a new schedule for its proxy
func (u *PendingUpgrade) Resolved(now time.Time, window time.Duration) bool {
	return u.Executed || u.Canceled || u.Expired(now, window)
}

// StatusAt derives the status of the upgrade at the given time
func (u *PendingUpgrade) StatusAt(now time.Time, window time.Duration) UpgradeStatus {
	switch {
	case u.Executed:
		return UpgradeStatusExecuted
	case u.Canceled:
		return UpgradeStatusCanceled
	case u.Expired(now, window):
		return UpgradeStatusExpired
	case !now.Before(u.ExecuteTime):
		return UpgradeStatusExecutable
	default:
		return UpgradeStatusPending
	}
}
