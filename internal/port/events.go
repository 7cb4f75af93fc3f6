package port

import (
	"context"

	"github.com/olyamironova/escrow-engine/internal/domain"
)

// EventSink receives committed-operation events, best effort.
type EventSink interface {
	Publish(ctx context.Context, ev domain.Event) error
}
