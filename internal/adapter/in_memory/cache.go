package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
)

var _ port.Cache = (*Cache)(nil)

type Cache struct {
	mu      sync.Mutex
	orders  map[uint64]domain.Order
	lobbies map[uint64]domain.Lobby
}

func NewCache() *Cache {
	return &Cache{
		orders:  make(map[uint64]domain.Order),
		lobbies: make(map[uint64]domain.Lobby),
	}
}

func (c *Cache) SetOrder(ctx context.Context, o *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[o.ID] = *o
	return nil
}

func (c *Cache) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	if !ok {
		return nil, nil
	}
	cp := o
	return &cp, nil
}

func (c *Cache) SetLobby(ctx context.Context, l *domain.Lobby) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobbies[l.ID] = *l
	return nil
}

func (c *Cache) GetLobby(ctx context.Context, id uint64) (*domain.Lobby, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.lobbies[id]
	if !ok {
		return nil, nil
	}
	cp := l
	return &cp, nil
}
