package port

import (
	"context"

	"github.com/olyamironova/escrow-engine/internal/domain"
)

// Repository persists engine records write-through; the engines remain the
// source of truth at runtime and reload from here on startup.
type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	SaveLobby(ctx context.Context, l *domain.Lobby) error
	SaveBrewery(ctx context.Context, b *domain.BreweryStatus) error

	LoadOrders(ctx context.Context) ([]*domain.Order, error)
	LoadLobbies(ctx context.Context) ([]*domain.Lobby, error)
	LoadBreweries(ctx context.Context) ([]*domain.BreweryStatus, error)
}
