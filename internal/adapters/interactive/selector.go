package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// SelectorAdapter handles interactive selection of pending governance items
type SelectorAdapter struct {
	config *config.RuntimeConfig
}

// NewSelectorAdapter creates a new selector adapter
func NewSelectorAdapter(cfg *config.RuntimeConfig) *SelectorAdapter {
	return &SelectorAdapter{config: cfg}
}

// SelectProposal selects a proposal from a list
func (s *SelectorAdapter) SelectProposal(ctx context.Context, proposals []*usecase.ProposalView, prompt string) (*usecase.ProposalView, error) {
	i, err := s.choose(len(proposals), prompt, func(i int) string {
		p := proposals[i]
		desc := firstLine(p.Description)
		return fmt.Sprintf("%s %s %s %s",
			color.New(color.FgWhite, color.Bold).Sprint(p.ID.Hex()[:10]),
			color.New(color.FgCyan).Sprintf("[%s]", p.State),
			color.New(color.FgYellow).Sprint(p.Type),
			desc)
	})
	if err != nil {
		return nil, err
	}
	return proposals[i], nil
}

// SelectUpgrade selects an upgrade record from a list
func (s *SelectorAdapter) SelectUpgrade(ctx context.Context, upgrades []*models.PendingUpgrade, prompt string) (*models.PendingUpgrade, error) {
	i, err := s.choose(len(upgrades), prompt, func(i int) string {
		u := upgrades[i]
		label := fmt.Sprintf("%s → %s",
			color.New(color.FgWhite, color.Bold).Sprint(u.Proxy.Hex()),
			color.New(color.FgBlue).Sprint(u.Implementation.Hex()))
		if u.IsEmergency {
			label += color.New(color.FgRed).Sprint(" [emergency]")
		}
		return label
	})
	if err != nil {
		return nil, err
	}
	return upgrades[i], nil
}

// SelectMintRequest selects a mint request from a list
func (s *SelectorAdapter) SelectMintRequest(ctx context.Context, requests []*models.MintRequest, prompt string) (*models.MintRequest, error) {
	i, err := s.choose(len(requests), prompt, func(i int) string {
		r := requests[i]
		return fmt.Sprintf("#%d %s tokens to %s %s",
			r.ID,
			color.New(color.FgWhite, color.Bold).Sprint(models.FormatTokensString(r.Amount)),
			color.New(color.FgBlue).Sprint(r.Recipient.Hex()),
			firstLine(r.Purpose))
	})
	if err != nil {
		return nil, err
	}
	return requests[i], nil
}

func (s *SelectorAdapter) choose(n int, prompt string, label func(int) string) (int, error) {
	// In non-interactive mode, we can't select
	if s.config.NonInteractive {
		return 0, fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if n == 0 {
		return 0, fmt.Errorf("nothing to select")
	}
	if n == 1 {
		return 0, nil
	}

	options := make([]string, n)
	for i := range options {
		options[i] = label(i)
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             prompt,
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(options),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	return index, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		// Empty search shows all items
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])

		if strings.Contains(item, input) {
			return true
		}

		pattern := fuzzy.Find(input, []string{item})
		return len(pattern) > 0
	}
}

// Ensure the adapter implements the interface
var _ usecase.ItemSelector = (*SelectorAdapter)(nil)
