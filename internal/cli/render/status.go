package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StatusRenderer renders the governance overview
type StatusRenderer struct {
	out io.Writer
}

// NewStatusRenderer creates a new status renderer
func NewStatusRenderer(out io.Writer) *StatusRenderer {
	return &StatusRenderer{out: out}
}

// Render implements Renderer
func (r *StatusRenderer) Render(s *usecase.GovernanceSummary) error {
	headerStyle.Fprintln(r.out, "Governance status")
	fmt.Fprintln(r.out, field("Time", Timestamp(s.Now)))
	fmt.Fprintln(r.out, field("Block", s.Block))
	if !s.Initialized {
		fmt.Fprintln(r.out, FormatWarning("State not initialized, run `trebgov init`"))
	}

	title := cases.Title(language.English)
	counts := func(m map[string]int) string {
		if len(m) == 0 {
			return mutedStyle.Sprint("none")
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := ""
		for i, k := range keys {
			if i > 0 {
				out += ", "
			}
			out += fmt.Sprintf("%s %d", title.String(k), m[k])
		}
		return out
	}

	proposals := make(map[string]int, len(s.Proposals))
	for k, v := range s.Proposals {
		proposals[string(k)] = v
	}
	sectionStyle.Fprintln(r.out, "\nGovernor:")
	fmt.Fprintln(r.out, field("Proposals", counts(proposals)))
	fmt.Fprintln(r.out, field("Pending ops", s.PendingOps))
	fmt.Fprintln(r.out, field("Council", s.Council))

	sectionStyle.Fprintln(r.out, "\nUpgrades:")
	for _, kind := range []models.UpgradeAuthorityKind{models.UpgradeAuthorityTimelock, models.UpgradeAuthorityMultisig} {
		upgrades := make(map[string]int)
		for k, v := range s.Upgrades[kind] {
			upgrades[string(k)] = v
		}
		fmt.Fprintln(r.out, field(title.String(string(kind)), counts(upgrades)))
	}
	fmt.Fprintln(r.out, field("Proxy admins", s.Admins))

	sectionStyle.Fprintln(r.out, "\nExecutors:")
	fmt.Fprintln(r.out, field("Enabled", s.Executors))
	if s.Frozen {
		fmt.Fprintln(r.out, field("Frozen", badStyle.Sprint("yes")))
	} else {
		fmt.Fprintln(r.out, field("Frozen", "no"))
	}

	requests := make(map[string]int, len(s.MintRequests))
	for k, v := range s.MintRequests {
		requests[string(k)] = v
	}
	fmt.Fprintln(r.out)
	if s.Supply != nil {
		if err := NewMintRenderer(r.out, s.Now).RenderSupply(s.Supply, s.CurrentPeriod); err != nil {
			return err
		}
	}
	fmt.Fprintln(r.out, field("Requests", counts(requests)))
	return nil
}

var _ Renderer[*usecase.GovernanceSummary] = (*StatusRenderer)(nil)
