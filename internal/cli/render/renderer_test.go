package render

import (
	"bytes"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

func init() {
	color.NoColor = true
}

type sample struct {
	Name   string   `json:"name"`
	Amount *big.Int `json:"amount"`
	Tags   []string `json:"tags"`
}

func TestStructured(t *testing.T) {
	v := sample{
		Name:   "grants",
		Amount: models.Tokens(1_000_000),
		Tags:   []string{"a", "b"},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Structured(&buf, FormatJSON, v))
		assert.JSONEq(t, `{"name":"grants","amount":1000000000000000000000000,"tags":["a","b"]}`, buf.String())
	})

	t.Run("yaml keeps big numbers exact", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Structured(&buf, FormatYAML, v))
		out := buf.String()
		assert.True(t, strings.HasPrefix(out, "name: grants\n"), out)
		assert.Contains(t, out, "amount: 1000000000000000000000000\n")
		assert.Contains(t, out, "- a\n")
		assert.NotContains(t, out, "{", "flow style is dropped")
	})

	t.Run("unknown format", func(t *testing.T) {
		err := Structured(&bytes.Buffer{}, "xml", v)
		assert.ErrorContains(t, err, `unsupported output format "xml"`)
	})

	assert.True(t, IsStructured(FormatJSON))
	assert.True(t, IsStructured(FormatYAML))
	assert.False(t, IsStructured(FormatTable))
}

func TestFormatting(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "until days and hours", got: Until(now, now.Add(50*time.Hour)), want: "in 2d2h"},
		{name: "until whole days", got: Until(now, now.Add(48*time.Hour)), want: "in 2d"},
		{name: "until hours", got: Until(now, now.Add(90*time.Minute)), want: "in 1h30m"},
		{name: "ago", got: Until(now, now.Add(-5*time.Minute)), want: "5m ago"},
		{name: "timestamp", got: Timestamp(now), want: "2025-01-01 00:00:00"},
		{name: "zero timestamp", got: Timestamp(time.Time{}), want: "-"},
		{name: "tokens", got: Tokens(new(big.Int).Div(models.Tokens(3), big.NewInt(2))), want: "1.5"},
		{name: "nil tokens", got: Tokens(nil), want: "0"},
		{name: "short address", got: Short(common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")), want: "0x7099…79C8"},
		{name: "short hash", got: ShortHash(common.HexToHash("0xabcdef")), want: "0x00000000"},
		{name: "truncate", got: truncate("ecosystem grants", 10), want: "ecosystem…"},
		{name: "no truncate", got: truncate("grants", 10), want: "grants"},
		{name: "first line", got: firstLine("Title\nbody"), want: "Title"},
		{name: "error message", got: FormatError("failed to execute: delay not met"), want: "❌ Delay not met"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestMintRendererRequests(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	r := NewMintRenderer(&buf, now)

	require.NoError(t, r.RenderRequests(nil))
	assert.Equal(t, "No mint requests found\n", buf.String())

	buf.Reset()
	req := &MintRequestView{
		MintRequest: &models.MintRequest{
			ID:        3,
			Recipient: common.HexToAddress("0x00000000000000000000000000000000000000b1"),
			Amount:    models.Tokens(250_000),
			Purpose:   "ecosystem grants",
			Period:    1,
		},
		Status:       models.MintRequestStatusPending,
		ExecutableAt: now.Add(48 * time.Hour),
	}
	require.NoError(t, r.RenderRequests([]*MintRequestView{req}))
	out := buf.String()
	assert.Contains(t, out, "250000")
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "in 2d")
	assert.True(t, strings.Contains(out, "ecosystem grants"))
}
