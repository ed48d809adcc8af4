package market

import (
	"sync"

	"github.com/chatten/compute-engine/pkg/model"
	"go.uber.org/zap"
)

// LogSink writes every domain event to the global zap logger. It is the
// default sink when the engine is constructed without one.
type LogSink struct{}

// NewLogSink returns a sink that logs events at info level.
func NewLogSink() LogSink { return LogSink{} }

// Emit logs the event name and payload.
func (LogSink) Emit(event model.Event) {
	zap.L().Info("event", zap.String("name", event.Name()), zap.Any("event", event))
}

// CollectSink buffers emitted events in order. Useful for tests and for
// hosting layers that forward events to an external bus in batches.
type CollectSink struct {
	mu     sync.Mutex
	events []model.Event
}

// Emit appends the event to the buffer.
func (s *CollectSink) Emit(event model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a snapshot of all events emitted so far.
func (s *CollectSink) Events() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Names returns the names of all events emitted so far, in order.
func (s *CollectSink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Name()
	}
	return out
}

// Reset discards all buffered events.
func (s *CollectSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
