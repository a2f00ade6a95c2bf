package govtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// Oracle serves canned mint data keyed by request id
type Oracle struct {
	mu    sync.Mutex
	data  map[string]models.OracleMintData
	calls int
}

// NewOracle creates an empty oracle
func NewOracle() *Oracle {
	return &Oracle{data: make(map[string]models.OracleMintData)}
}

// Set stores the data returned for requestID
func (o *Oracle) Set(requestID string, data models.OracleMintData) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data[requestID] = data
}

// Calls returns how many lookups were made
func (o *Oracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// GetLatestMintData returns the data stored for requestID
func (o *Oracle) GetLatestMintData(_ context.Context, requestID string) (*models.OracleMintData, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls++
	d, ok := o.data[requestID]
	if !ok {
		return nil, fmt.Errorf("oracle request %q %w", requestID, domain.ErrNotFound)
	}
	return &d, nil
}

var _ usecase.MintOracle = (*Oracle)(nil)
