package render

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
)

var (
	headerStyle    = color.New(color.FgCyan, color.Bold)
	sectionStyle   = color.New(color.Bold, color.FgHiWhite)
	labelStyle     = color.New(color.Faint)
	timestampStyle = color.New(color.Faint)
	amountStyle    = color.New(color.FgYellow)
	okStyle        = color.New(color.FgGreen)
	pendingStyle   = color.New(color.FgYellow)
	badStyle       = color.New(color.FgRed)
	mutedStyle     = color.New(color.FgHiBlack)
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return color.New(color.FgYellow).Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	// Extract just the error message part (after the last colon if it's an error chain)
	parts := strings.Split(message, ": ")
	msg := parts[len(parts)-1]

	// Capitalize first letter
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}

	return color.New(color.FgRed).Sprintf("❌ %s", msg)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// Tokens renders a base-unit amount as whole tokens
func Tokens(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return models.FormatTokensString(v)
}

// Timestamp renders t in UTC, or "-" when unset
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

// Until renders the distance from now to t, e.g. "in 2d4h" or "3h ago"
func Until(now, t time.Time) string {
	d := t.Sub(now)
	if d >= 0 {
		return "in " + shortDuration(d)
	}
	return shortDuration(-d) + " ago"
}

func shortDuration(d time.Duration) string {
	d = d.Truncate(time.Minute)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	switch {
	case days > 0 && d >= time.Hour:
		return fmt.Sprintf("%dd%dh", days, d/time.Hour)
	case days > 0:
		return fmt.Sprintf("%dd", days)
	case d >= time.Hour:
		return fmt.Sprintf("%dh%dm", d/time.Hour, (d%time.Hour)/time.Minute)
	default:
		return fmt.Sprintf("%dm", d/time.Minute)
	}
}

// Short abbreviates an address to 0x1234…abcd
func Short(addr common.Address) string {
	h := addr.Hex()
	return h[:6] + "…" + h[len(h)-4:]
}

// ShortHash abbreviates a hash to its first 10 hex characters
func ShortHash(h common.Hash) string {
	return h.Hex()[:10]
}

// newTable returns a borderless table in the style of the list views
func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.Style().Box = table.BoxStyle{
		PaddingRight: "   ",
	}
	return t
}

func field(label string, value interface{}) string {
	return fmt.Sprintf("  %s %v", labelStyle.Sprintf("%-16s", label+":"), value)
}
