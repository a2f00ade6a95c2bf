package models

import (
	"fmt"
	"math/big"
	"strings"
)

// TokenDecimals is the number of decimals of the governance token
const TokenDecimals = 18

var tokenUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(TokenDecimals), nil)

// Tokens returns n whole tokens in base units
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), tokenUnit)
}

// ParseTokens parses a decimal token amount such as "1000", "1_000_000" or
// "0.25" into base units
func ParseTokens(s string) (*big.Int, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "_", "")
	if raw == "" {
		return nil, fmt.Errorf("empty token amount")
	}
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if hasFrac && len(frac) > TokenDecimals {
		return nil, fmt.Errorf("token amount %q has more than %d decimals", s, TokenDecimals)
	}
	digits := whole + frac + strings.Repeat("0", TokenDecimals-len(frac))
	v, ok := new(big.Int).SetString(digits, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid token amount %q", s)
	}
	return v, nil
}

// FormatTokens converts base units to whole tokens
func FormatTokens(v *big.Int) *big.Float {
	if v == nil {
		return new(big.Float)
	}
	return new(big.Float).Quo(new(big.Float).SetInt(v), new(big.Float).SetInt(tokenUnit))
}

// FormatTokensString renders base units as a decimal token amount without trailing zeros
func FormatTokensString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	q, r := new(big.Int).QuoRem(new(big.Int).Abs(v), tokenUnit, new(big.Int))
	sign := ""
	if v.Sign() < 0 {
		sign = "-"
	}
	if r.Sign() == 0 {
		return sign + q.String()
	}
	frac := r.String()
	frac = strings.Repeat("0", TokenDecimals-len(frac)) + frac
	return sign + q.String() + "." + strings.TrimRight(frac, "0")
}
