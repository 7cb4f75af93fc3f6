package port

import (
	"context"

	"github.com/olyamironova/escrow-engine/internal/domain"
)

// Cache is a read-through cache for hot records. A miss is (nil, nil).
type Cache interface {
	SetOrder(ctx context.Context, o *domain.Order) error
	GetOrder(ctx context.Context, id uint64) (*domain.Order, error)
	SetLobby(ctx context.Context, l *domain.Lobby) error
	GetLobby(ctx context.Context, id uint64) (*domain.Lobby, error)
}
