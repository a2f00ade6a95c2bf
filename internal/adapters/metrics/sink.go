package metrics

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/domain/models"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

const namespace = "trebgov"

type eventMetrics struct {
	eventsTotal   *prometheus.CounterVec
	mintedTokens  prometheus.Counter
	freezeChanges *prometheus.CounterVec
}

var eventMetricsSingleton = sync.OnceValue(func() *eventMetrics {
	return &eventMetrics{
		eventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of committed governance events.",
		}, []string{"event"}),
		mintedTokens: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "minted_tokens_total",
			Help:      "Whole tokens minted through executed requests and allocations.",
		}),
		freezeChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emergency_freeze_changes_total",
			Help:      "Total number of emergency freeze toggles.",
		}, []string{"frozen"}),
	}
})

// EventSink counts committed governance events
type EventSink struct {
	m *eventMetrics
}

// NewEventSink creates a new prometheus event sink
func NewEventSink() *EventSink {
	return &EventSink{m: eventMetricsSingleton()}
}

// Publish records the event
func (s *EventSink) Publish(_ context.Context, event domain.Event) {
	s.m.eventsTotal.WithLabelValues(string(event.EventName())).Inc()
	switch e := event.(type) {
	case *domain.MintEvent:
		if e.Amount == nil || e.Type == domain.EventTypeMintRequestCreated || e.Type == domain.EventTypeMintRequestCanceled {
			return
		}
		tokens, _ := models.FormatTokens(e.Amount).Float64()
		s.m.mintedTokens.Add(tokens)
	case *domain.EmergencyFreezeChangedEvent:
		label := "false"
		if e.Frozen {
			label = "true"
		}
		s.m.freezeChanges.WithLabelValues(label).Inc()
	}
}

var _ usecase.EventSink = (*EventSink)(nil)
