package bindings

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// UintParser converts a human-entered uint256 argument, named name, into its value
type UintParser func(name, s string) (*big.Int, error)

// Methods lists the governance methods in name order
func (g *Governance) Methods() []string {
	names := make([]string, 0, len(g.abi.Methods))
	for name := range g.abi.Methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signature returns the human-readable signature of method, e.g. addExecutor(address executor)
func (g *Governance) Signature(method string) (string, error) {
	m, ok := g.abi.Methods[method]
	if !ok {
		return "", fmt.Errorf("method %s not found", method)
	}
	params := make([]string, len(m.Inputs))
	for i, in := range m.Inputs {
		params[i] = in.Type.String() + " " + in.Name
	}
	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(params, ", ")), nil
}

// PackStrings encodes a call to method from textual arguments. uint256
// arguments go through uints when it is non-nil.
func (g *Governance) PackStrings(method string, raw []string, uints UintParser) ([]byte, error) {
	m, ok := g.abi.Methods[method]
	if !ok {
		return nil, fmt.Errorf("method %s not found", method)
	}
	if len(raw) != len(m.Inputs) {
		return nil, fmt.Errorf("%s expects %d arguments, got %d", method, len(m.Inputs), len(raw))
	}
	args := make([]interface{}, len(raw))
	for i, in := range m.Inputs {
		v, err := parseArg(in.Name, in.Type, strings.TrimSpace(raw[i]), uints)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %s: %w", method, in.Name, err)
		}
		args[i] = v
	}
	return g.abi.Pack(method, args...)
}

func parseArg(name string, t abi.Type, s string, uints UintParser) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return common.HexToAddress(s), nil
	case abi.UintTy:
		if uints != nil {
			return uints(name, s)
		}
		v, ok := new(big.Int).SetString(s, 0)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("invalid integer %q", s)
		}
		return v, nil
	case abi.BoolTy:
		return strconv.ParseBool(s)
	case abi.StringTy:
		return s, nil
	case abi.BytesTy:
		if s == "" {
			return []byte{}, nil
		}
		return hexutil.Decode(s)
	default:
		return nil, fmt.Errorf("unsupported argument type %s", t.String())
	}
}
