package oracle

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.DefaultGovernanceConfig()
	cfg.Oracle.URL = server.URL + "/"
	return NewClient(cfg)
}

func TestGetLatestMintData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/mint-data/q%201", r.URL.EscapedPath())
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"requestId": "q 1",
			"totalRevenue": "1000000",
			"tokenPrice": "250",
			"tokensToMint": "4000000000000000000000",
			"timestamp": 1735689600,
			"finalized": true
		}`))
	})

	data, err := client.GetLatestMintData(context.Background(), "q 1")
	require.NoError(t, err)
	want, _ := new(big.Int).SetString("4000000000000000000000", 10)
	assert.Equal(t, want, data.TokensToMint)
	assert.Equal(t, big.NewInt(1_000_000), data.TotalRevenue)
	assert.Equal(t, big.NewInt(250), data.TokenPrice)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), data.Timestamp)
	assert.True(t, data.Finalized)
}

func TestGetLatestMintDataErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		expectErr string
		is        error
	}{
		{name: "unknown request", status: http.StatusNotFound, is: domain.ErrNotFound},
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", expectErr: "unexpected status code: 502, body: upstream down"},
		{name: "bad json", status: http.StatusOK, body: "{", expectErr: "failed to decode response"},
		{name: "bad amount", status: http.StatusOK, body: `{"tokensToMint":"1e18"}`, expectErr: `invalid tokensToMint "1e18"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.GetLatestMintData(context.Background(), "q1")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.expectErr != "" {
				assert.Contains(t, err.Error(), tt.expectErr)
			}
		})
	}
}

func TestGetLatestMintDataUnconfigured(t *testing.T) {
	client := NewClient(config.DefaultGovernanceConfig())
	_, err := client.GetLatestMintData(context.Background(), "q1")
	assert.ErrorContains(t, err, "no oracle configured")
}

func TestMissingAmountsDecodeAsZero(t *testing.T) {
	raw := &mintDataResponse{TokensToMint: "7"}
	data, err := raw.toModel()
	require.NoError(t, err)
	assert.Zero(t, data.TotalRevenue.Sign())
	assert.Zero(t, data.TokenPrice.Sign())
	assert.Equal(t, big.NewInt(7), data.TokensToMint)
}
