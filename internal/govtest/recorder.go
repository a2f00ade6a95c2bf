package govtest

import (
	"context"
	"sync"

	"github.com/trebuchet-org/treb-gov/internal/domain"
	"github.com/trebuchet-org/treb-gov/internal/usecase"
)

// Recorder collects published events in order
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// Publish records event
func (r *Recorder) Publish(_ context.Context, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns the recorded events
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Event(nil), r.events...)
}

// Types returns the names of the recorded events
func (r *Recorder) Types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventName()
	}
	return out
}

// Count returns how many events of type t were recorded
func (r *Recorder) Count(t domain.EventType) int {
	n := 0
	for _, name := range r.Types() {
		if name == t {
			n++
		}
	}
	return n
}

// Reset drops every recorded event
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

var _ usecase.EventSink = (*Recorder)(nil)
