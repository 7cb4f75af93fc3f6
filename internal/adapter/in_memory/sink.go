package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
)

var _ port.EventSink = (*Sink)(nil)

// Sink records published events in order (tests, local runs).
type Sink struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Publish(ctx context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (s *Sink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}
