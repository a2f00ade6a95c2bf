package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

var (
	proposalsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "proposals"),
		"Number of proposals by derived state.",
		[]string{"state"}, nil)
	upgradesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "upgrades"),
		"Number of upgrade records by authority and status.",
		[]string{"authority", "status"}, nil)
	mintRequestsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "mint_requests"),
		"Number of mint requests by status.",
		[]string{"status"}, nil)
	pendingOpsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "timelock", "pending_operations"),
		"Timelock operations scheduled and not yet resolved.",
		nil, nil)
	executorsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "executors_enabled"),
		"Addresses on the executor allow-list.",
		nil, nil)
	frozenDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "emergency_frozen"),
		"Whether executions are frozen (1/0).",
		nil, nil)
	periodDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "mint", "current_period"),
		"Current issuance period, 0 outside the schedule.",
		nil, nil)
	mintedDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "mint", "total_minted_tokens"),
		"Whole tokens minted under the schedule.",
		nil, nil)
)

// StateCollector exports the governance overview at scrape time
type StateCollector struct {
	status  *usecase.GovernanceStatus
	timeout time.Duration
	log     *slog.Logger
}

// NewStateCollector creates a new collector over the governance status
func NewStateCollector(status *usecase.GovernanceStatus, log *slog.Logger) *StateCollector {
	return &StateCollector{
		status:  status,
		timeout: 5 * time.Second,
		log:     log.With("component", "StateCollector"),
	}
}

// Describe implements prometheus.Collector
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		proposalsDesc, upgradesDesc, mintRequestsDesc, pendingOpsDesc,
		executorsDesc, frozenDesc, periodDesc, mintedDesc,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	s, err := c.status.Run(ctx)
	if err != nil {
		c.log.Error("failed to collect governance status", "error", err)
		return
	}
	for state, n := range s.Proposals {
		ch <- prometheus.MustNewConstMetric(proposalsDesc, prometheus.GaugeValue, float64(n), string(state))
	}
	for kind, counts := range s.Upgrades {
		for status, n := range counts {
			ch <- prometheus.MustNewConstMetric(upgradesDesc, prometheus.GaugeValue, float64(n), string(kind), string(status))
		}
	}
	for status, n := range s.MintRequests {
		ch <- prometheus.MustNewConstMetric(mintRequestsDesc, prometheus.GaugeValue, float64(n), string(status))
	}
	ch <- prometheus.MustNewConstMetric(pendingOpsDesc, prometheus.GaugeValue, float64(s.PendingOps))
	ch <- prometheus.MustNewConstMetric(executorsDesc, prometheus.GaugeValue, float64(s.Executors))
	ch <- prometheus.MustNewConstMetric(frozenDesc, prometheus.GaugeValue, boolGauge(s.Frozen))
	ch <- prometheus.MustNewConstMetric(periodDesc, prometheus.GaugeValue, float64(s.CurrentPeriod))
	if s.Supply != nil && s.Supply.TotalMinted != nil {
		minted, _ := models.FormatTokens(s.Supply.TotalMinted).Float64()
		ch <- prometheus.MustNewConstMetric(mintedDesc, prometheus.GaugeValue, minted)
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

var _ prometheus.Collector = (*StateCollector)(nil)
