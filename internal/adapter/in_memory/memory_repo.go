package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

type breweryKey struct {
	lobbyID uint64
	addr    domain.Address
}

// MemoryRepo keeps persisted rows in maps. Rows are stored by value so the
// repo never aliases engine state.
type MemoryRepo struct {
	mu        sync.Mutex
	orders    map[uint64]domain.Order
	lobbies   map[uint64]domain.Lobby
	breweries map[breweryKey]domain.BreweryStatus
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		orders:    make(map[uint64]domain.Order),
		lobbies:   make(map[uint64]domain.Lobby),
		breweries: make(map[breweryKey]domain.BreweryStatus),
	}
}

func (r *MemoryRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = *o
	return nil
}

func (r *MemoryRepo) SaveLobby(ctx context.Context, l *domain.Lobby) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lobbies[l.ID] = *l
	return nil
}

func (r *MemoryRepo) SaveBrewery(ctx context.Context, b *domain.BreweryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.breweries[breweryKey{b.LobbyID, b.Address}] = *b
	return nil
}

func (r *MemoryRepo) LoadOrders(ctx context.Context) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		cp := o
		res = append(res, &cp)
	}
	return res, nil
}

func (r *MemoryRepo) LoadLobbies(ctx context.Context) ([]*domain.Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*domain.Lobby, 0, len(r.lobbies))
	for _, l := range r.lobbies {
		cp := l
		res = append(res, &cp)
	}
	return res, nil
}

func (r *MemoryRepo) LoadBreweries(ctx context.Context) ([]*domain.BreweryStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*domain.BreweryStatus, 0, len(r.breweries))
	for _, b := range r.breweries {
		cp := b
		res = append(res, &cp)
	}
	return res, nil
}
