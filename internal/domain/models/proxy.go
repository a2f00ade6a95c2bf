package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ProxyInfo contains proxy-specific information
type ProxyInfo struct {
	Address        common.Address `json:"address"`
	Type           string         `json:"type"` // e.g., "ERC1967", "UUPS", "Transparent"
	Implementation common.Address `json:"implementation"`
	Admin          common.Address `json:"admin"`
	History        []ProxyUpgrade `json:"history"`
}

// ProxyUpgrade represents a proxy upgrade event
type ProxyUpgrade struct {
	From       common.Address `json:"from"`
	To         common.Address `json:"to"`
	CallData   []byte         `json:"callData,omitempty"`
	UpgradedAt time.Time      `json:"upgradedAt"`
}
