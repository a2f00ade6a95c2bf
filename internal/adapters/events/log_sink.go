package events

import (
	"context"
	"log/slog"

	"github.com/trebuchet-org/treb-gov/internal/adapters/metrics"
	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// LogSink writes committed events to the structured log
type LogSink struct {
	log *slog.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(log *slog.Logger) *LogSink {
	return &LogSink{log: log.With("component", "events")}
}

// Publish logs the event at info level
func (s *LogSink) Publish(ctx context.Context, event domain.Event) {
	s.log.InfoContext(ctx, event.String(), "event", string(event.EventName()))
}

// ProvideEventSink fans events out to the log and the metrics registry
func ProvideEventSink(logSink *LogSink, metricSink *metrics.EventSink) usecase.EventSink {
	return usecase.MultiEventSink{logSink, metricSink}
}

var _ usecase.EventSink = (*LogSink)(nil)
