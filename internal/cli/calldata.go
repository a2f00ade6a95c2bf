package cli

import (
	"encoding/csv"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/domain/bindings"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
)

// call is one decoded --call or --raw operation
type call struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// uintArg parses uint256 arguments: token amounts in whole tokens, ids as integers
func uintArg(name, s string) (*big.Int, error) {
	if name == "amount" {
		return parseAmount(s)
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}

// encodeMethod packs `method(arg, "quoted, arg", ...)`
func encodeMethod(expr string) ([]byte, error) {
	expr = strings.TrimSpace(expr)
	open := strings.IndexByte(expr, '(')
	if open <= 0 || !strings.HasSuffix(expr, ")") {
		return nil, fmt.Errorf("invalid call %q: expected method(args...)", expr)
	}
	method := expr[:open]
	var args []string
	if inner := strings.TrimSpace(expr[open+1 : len(expr)-1]); inner != "" {
		r := csv.NewReader(strings.NewReader(inner))
		r.TrimLeadingSpace = true
		fields, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("invalid arguments in %q: %w", expr, err)
		}
		args = fields
	}
	return bindings.GovernanceContract().PackStrings(method, args, uintArg)
}

// parseCall reads `target:method(args...)`
func parseCall(gov *config.GovernanceConfig, expr string) (*call, error) {
	target, method, ok := strings.Cut(expr, ":")
	if !ok {
		return nil, fmt.Errorf("invalid call %q: expected target:method(args...)", expr)
	}
	addr, err := resolveTarget(gov, target)
	if err != nil {
		return nil, err
	}
	data, err := encodeMethod(method)
	if err != nil {
		return nil, err
	}
	return &call{Target: addr, Value: new(big.Int), Data: data}, nil
}

// parseRawCall reads `target:0xcalldata[:value]`
func parseRawCall(gov *config.GovernanceConfig, expr string) (*call, error) {
	parts := strings.Split(expr, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid raw call %q: expected target:0xcalldata[:value]", expr)
	}
	addr, err := resolveTarget(gov, parts[0])
	if err != nil {
		return nil, err
	}
	data, err := hexBytes(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid calldata in %q: %w", expr, err)
	}
	value := new(big.Int)
	if len(parts) == 3 {
		if _, ok := value.SetString(parts[2], 10); !ok || value.Sign() < 0 {
			return nil, fmt.Errorf("invalid value in %q", expr)
		}
	}
	return &call{Target: addr, Value: value, Data: data}, nil
}

// NewCalldataCmd creates the calldata command
func NewCalldataCmd() *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "calldata [method(args...)]",
		Short: "Encode governance calldata",
		Long: `Encode a call to one of the governance entry points, e.g. for a raw
proposal operation. Amount arguments are whole tokens; append "wei" for base
units. Quote string arguments that contain commas.`,
		Example: `  trebgov calldata 'addExecutor(0x70997970C51812dc3A010C7d01b50e0d17dc79C8)'
  trebgov calldata 'createMintRequest(0x70997970C51812dc3A010C7d01b50e0d17dc79C8, 250000, "grants, Q3")'
  trebgov calldata --list`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gov := bindings.GovernanceContract()
			if list || len(args) == 0 {
				for _, m := range gov.Methods() {
					sig, err := gov.Signature(m)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), sig)
				}
				return nil
			}
			data, err := encodeMethod(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List the governance methods")

	return cmd
}
