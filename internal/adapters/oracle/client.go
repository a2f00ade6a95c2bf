package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// mintDataResponse is the oracle's wire format; amounts are decimal strings
type mintDataResponse struct {
	RequestID    string `json:"requestId"`
	TotalRevenue string `json:"totalRevenue"`
	TokenPrice   string `json:"tokenPrice"`
	TokensToMint string `json:"tokensToMint"`
	Timestamp    int64  `json:"timestamp"`
	Finalized    bool   `json:"finalized"`
}

// Client reads mint sizing from the revenue oracle's HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new oracle client
func NewClient(cfg *config.GovernanceConfig) *Client {
	timeout := cfg.Oracle.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.Oracle.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetLatestMintData fetches the oracle's answer for requestID
func (c *Client) GetLatestMintData(ctx context.Context, requestID string) (*models.OracleMintData, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("no oracle configured: set [oracle] url in trebgov.toml")
	}
	endpoint := fmt.Sprintf("%s/api/v1/mint-data/%s", c.baseURL, url.PathEscape(requestID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("oracle request %q %w", requestID, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var raw mintDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return raw.toModel()
}

func (r *mintDataResponse) toModel() (*models.OracleMintData, error) {
	data := &models.OracleMintData{
		Timestamp: time.Unix(r.Timestamp, 0).UTC(),
		Finalized: r.Finalized,
	}
	fields := []struct {
		name string
		raw  string
		dst  **big.Int
	}{
		{"totalRevenue", r.TotalRevenue, &data.TotalRevenue},
		{"tokenPrice", r.TokenPrice, &data.TokenPrice},
		{"tokensToMint", r.TokensToMint, &data.TokensToMint},
	}
	for _, f := range fields {
		if f.raw == "" {
			*f.dst = new(big.Int)
			continue
		}
		v, ok := new(big.Int).SetString(f.raw, 10)
		if !ok {
			return nil, fmt.Errorf("invalid %s %q in oracle response", f.name, f.raw)
		}
		*f.dst = v
	}
	return data, nil
}

var _ usecase.MintOracle = (*Client)(nil)
