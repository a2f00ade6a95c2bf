package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ExecutorRecord tracks one allow-listed executor
type ExecutorRecord struct {
	Address    common.Address `json:"address"`
	Enabled    bool           `json:"enabled"`
	DailyUsage uint64         `json:"dailyUsage"`
	LastReset  time.Time      `json:"lastReset"`
	AddedAt    time.Time      `json:"addedAt"`
	TotalRuns  uint64         `json:"totalRuns"`
}

// ExecutorRegistry is the allow-list wide state
type ExecutorRegistry struct {
	Frozen       bool                               `json:"frozen"`
	FrozenAt     *time.Time                         `json:"frozenAt,omitempty"`
	LastModified time.Time                          `json:"lastModified"`
	Executors    map[common.Address]*ExecutorRecord `json:"executors"`
}

// AuthorizedAdmin is a registered proxy admin contract; write-once per address
type AuthorizedAdmin struct {
	Address      common.Address `json:"address"`
	Name         string         `json:"name"`
	Owner        common.Address `json:"owner"`
	Description  string         `json:"description,omitempty"`
	RegisteredAt time.Time      `json:"registeredAt"`
	RegisteredBy common.Address `json:"registeredBy"`
	Active       bool           `json:"active"`
	RevokedAt    *time.Time     `json:"revokedAt,omitempty"`
}
