package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

// UpgradeView pairs an upgrade record with its derived status
type UpgradeView struct {
	*models.PendingUpgrade
	Status    models.UpgradeStatus `json:"status"`
	Required  int                  `json:"requiredSignatures"`
	ExpiresAt time.Time            `json:"expiresAt"`
}

// UpgradesRenderer renders pending upgrades of either authority
type UpgradesRenderer struct {
	out io.Writer
	now time.Time
}

// NewUpgradesRenderer creates a new upgrades renderer
func NewUpgradesRenderer(out io.Writer, now time.Time) *UpgradesRenderer {
	return &UpgradesRenderer{out: out, now: now}
}

func upgradeStatusColor(s models.UpgradeStatus) *color.Color {
	switch s {
	case models.UpgradeStatusExecutable, models.UpgradeStatusExecuted:
		return okStyle
	case models.UpgradeStatusPending:
		return pendingStyle
	case models.UpgradeStatusCanceled, models.UpgradeStatusExpired:
		return badStyle
	default:
		return mutedStyle
	}
}

// RenderList renders upgrades as a table
func (r *UpgradesRenderer) RenderList(upgrades []*UpgradeView) error {
	if len(upgrades) == 0 {
		fmt.Fprintln(r.out, "No upgrades found")
		return nil
	}
	t := newTable()
	t.AppendHeader([]interface{}{"ID", "Proxy", "Implementation", "Kind", "Status", "Signatures", "Executable"})
	for _, u := range upgrades {
		kind := "standard"
		if u.IsEmergency {
			kind = badStyle.Sprint("emergency")
		}
		t.AppendRow([]interface{}{
			ShortHash(u.ID),
			u.Proxy.Hex(),
			Short(u.Implementation),
			kind,
			upgradeStatusColor(u.Status).Sprint(string(u.Status)),
			fmt.Sprintf("%d/%d", u.SignatureCount(), u.Required),
			Until(r.now, u.ExecuteTime),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// RenderUpgrade renders one upgrade in detail
func (r *UpgradesRenderer) RenderUpgrade(u *UpgradeView) error {
	headerStyle.Fprintf(r.out, "Upgrade %s (%s authority)\n", u.ID.Hex(), u.Authority)
	fmt.Fprintln(r.out, strings.Repeat("=", 80))
	fmt.Fprintln(r.out, field("Proxy", u.Proxy.Hex()))
	fmt.Fprintln(r.out, field("Implementation", u.Implementation.Hex()))
	fmt.Fprintln(r.out, field("Status", upgradeStatusColor(u.Status).Sprint(string(u.Status))))
	fmt.Fprintln(r.out, field("Emergency", u.IsEmergency))
	if u.Reason != "" {
		fmt.Fprintln(r.out, field("Reason", u.Reason))
	}
	fmt.Fprintln(r.out, field("Proposer", u.Proposer.Hex()))
	fmt.Fprintln(r.out, field("Proposed", Timestamp(u.ProposedAt)))
	fmt.Fprintln(r.out, field("Executable", fmt.Sprintf("%s (%s)", Timestamp(u.ExecuteTime), Until(r.now, u.ExecuteTime))))
	fmt.Fprintln(r.out, field("Expires", fmt.Sprintf("%s (%s)", Timestamp(u.ExpiresAt), Until(r.now, u.ExpiresAt))))
	if len(u.Data) > 0 {
		fmt.Fprintln(r.out, field("Call data", truncate(hexutil.Encode(u.Data), 66)))
	}

	sectionStyle.Fprintf(r.out, "\nSignatures (%d/%d):\n", u.SignatureCount(), u.Required)
	for _, s := range u.Signers {
		fmt.Fprintf(r.out, "  - %s\n", s.Hex())
	}
	if u.ExecutedAt != nil {
		fmt.Fprintln(r.out, field("Executed", fmt.Sprintf("%s by %s", Timestamp(*u.ExecutedAt), u.ExecutedBy.Hex())))
	}
	if u.CanceledAt != nil {
		fmt.Fprintln(r.out, field("Canceled", fmt.Sprintf("%s by %s", Timestamp(*u.CanceledAt), u.CanceledBy.Hex())))
	}
	return nil
}
