package cli

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-gov/internal/app"
	"github.com/trebuchet-org/treb-gov/internal/cli/render"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// sender returns the --from address, which every state-changing command needs
func sender(a *app.App) (common.Address, error) {
	if a.Config.Sender == (common.Address{}) {
		return common.Address{}, fmt.Errorf("no sender: pass --from or set TREBGOV_FROM")
	}
	return a.Config.Sender, nil
}

func parseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address: %s", s)
	}
	return common.HexToAddress(s), nil
}

func parseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	b, err := hexBytes(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid id: %s", s)
	}
	return common.BytesToHash(b), nil
}

func hexBytes(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	return hexutil.Decode(s)
}

func parseRequestID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid request id: %s", s)
	}
	return id, nil
}

// parseAmount reads whole tokens ("1_000.5"); a trailing "wei" takes base units
func parseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if raw, ok := strings.CutSuffix(s, "wei"); ok {
		v, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
		if !ok || v.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount: %s", s)
		}
		return v, nil
	}
	return models.ParseTokens(s)
}

// componentNames maps the names accepted as call targets to their addresses
func componentNames(gov *config.GovernanceConfig) map[string]common.Address {
	return map[string]common.Address{
		"governor":          gov.Governor.Address,
		"timelock":          gov.Timelock.Address,
		"upgrade-authority": gov.Upgrade.Address,
		"multisig-upgrader": gov.Multisig.Address,
		"executor-manager":  gov.Executors.Address,
		"admin-validator":   gov.Admins.Address,
		"mint-scheduler":    gov.Mint.Address,
	}
}

// resolveTarget accepts a hex address, a component name or a [contracts] label
func resolveTarget(gov *config.GovernanceConfig, s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if common.IsHexAddress(s) {
		return common.HexToAddress(s), nil
	}
	if addr, ok := componentNames(gov)[strings.ToLower(s)]; ok {
		return addr, nil
	}
	if addr, ok := gov.Contracts[s]; ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("unknown target %q: use an address, a component name or a [contracts] label", s)
}

// output writes v in the structured format when one was requested, otherwise
// runs the human-readable renderer
func output(cmd *cobra.Command, a *app.App, v interface{}, human func() error) error {
	if render.IsStructured(a.Config.Output) {
		return render.Structured(cmd.OutOrStdout(), a.Config.Output, v)
	}
	return human()
}

// success prints a confirmation line unless structured output was requested
func success(cmd *cobra.Command, a *app.App, format string, args ...interface{}) {
	if render.IsStructured(a.Config.Output) {
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.FormatSuccess(fmt.Sprintf(format, args...)))
}

// interactive reports whether prompts may be shown
func interactive(a *app.App) bool {
	return !a.Config.NonInteractive && !render.IsStructured(a.Config.Output)
}
