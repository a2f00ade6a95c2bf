package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// MintRequestStatus is the derived status of a mint request
type MintRequestStatus string

const (
	MintRequestStatusPending    MintRequestStatus = "pending"
	MintRequestStatusExecutable MintRequestStatus = "executable"
	MintRequestStatusExecuted   MintRequestStatus = "executed"
	MintRequestStatusCanceled   MintRequestStatus = "canceled"
	MintRequestStatusExpired    MintRequestStatus = "expired"
)

// MintRequest is a delayed claim against one period's issuance capacity
type MintRequest struct {
	ID              uint64         `json:"id"`
	Recipient       common.Address `json:"recipient"`
	Amount          *big.Int       `json:"amount"`
	Purpose         string         `json:"purpose"`
	Period          uint64         `json:"period"`
	RequestedBy     common.Address `json:"requestedBy"`
	ApprovedAt      time.Time      `json:"approvedAt"`
	OracleRequestID string         `json:"oracleRequestId,omitempty"`

	Executed   bool       `json:"executed"`
	ExecutedAt *time.Time `json:"executedAt,omitempty"`
	Canceled   bool       `json:"canceled"`
	CanceledAt *time.Time `json:"canceledAt,omitempty"`
}

// Expired reports whether the request aged out without being executed or cancelled
func (r *MintRequest) Expired(now time.Time, expiry time.Duration) bool {
	return !r.Executed && !r.Canceled && now.After(r.ApprovedAt.Add(expiry))
}

// Reserving reports whether the request still holds capacity in its period
func (r *MintRequest) Reserving(now time.Time, expiry time.Duration) bool {
	return !r.Executed && !r.Canceled && !r.Expired(now, expiry)
}

// StatusAt derives the request status at the given time
func (r *MintRequest) StatusAt(now time.Time, delay, expiry time.Duration) MintRequestStatus {
	switch {
	case r.Executed:
		return MintRequestStatusExecuted
	case r.Canceled:
		return MintRequestStatusCanceled
	case r.Expired(now, expiry):
		return MintRequestStatusExpired
	case !now.Before(r.ApprovedAt.Add(delay)):
		return MintRequestStatusExecutable
	default:
		return MintRequestStatusPending
	}
}

// MintLedger is the persisted issuance bookkeeping
type MintLedger struct {
	NextRequestID         uint64              `json:"nextRequestId"`
	MintedByPeriod        map[uint64]*big.Int `json:"mintedByPeriod"`
	TotalMinted           *big.Int            `json:"totalMinted"`
	InitialAllocationDone bool                `json:"initialAllocationDone"`
	ConsumedOracleIDs     map[string]uint64   `json:"consumedOracleIds"`
}

// Minted returns the amount already minted for a period
func (l *MintLedger) Minted(period uint64) *big.Int {
	if v, ok := l.MintedByPeriod[period]; ok && v != nil {
		return new(big.Int).Set(v)
	}
	return new(big.Int)
}

// AddMinted records a finalized mint against a period
func (l *MintLedger) AddMinted(period uint64, amount *big.Int) {
	l.MintedByPeriod[period] = new(big.Int).Add(l.Minted(period), amount)
	l.TotalMinted = new(big.Int).Add(l.TotalMinted, amount)
}

// PeriodSummary describes one issuance period
type PeriodSummary struct {
	Period    uint64    `json:"period"`
	Phase     string    `json:"phase"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Cap       *big.Int  `json:"cap"`
	Minted    *big.Int  `json:"minted"`
	Pending   *big.Int  `json:"pending"`
	Remaining *big.Int  `json:"remaining"`
}

// OracleMintData is the oracle's sizing for a mint request
type OracleMintData struct {
	TotalRevenue *big.Int  `json:"totalRevenue"`
	TokenPrice   *big.Int  `json:"tokenPrice"`
	TokensToMint *big.Int  `json:"tokensToMint"`
	Timestamp    time.Time `json:"timestamp"`
	Finalized    bool      `json:"finalized"`
}
