package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
	"github.com/redis/go-redis/v9"
)

var _ port.Cache = (*RedisCache)(nil)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(addr string, password string, db int, ttl time.Duration) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisCache{
		client: rdb,
		ttl:    ttl,
	}
}

func orderKey(id uint64) string { return fmt.Sprintf("order:%d", id) }
func lobbyKey(id uint64) string { return fmt.Sprintf("lobby:%d", id) }

func (c *RedisCache) SetOrder(ctx context.Context, o *domain.Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, orderKey(o.ID), b, c.ttl).Err()
}

func (c *RedisCache) GetOrder(ctx context.Context, id uint64) (*domain.Order, error) {
	b, err := c.client.Get(ctx, orderKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var o domain.Order
	if err := json.Unmarshal(b, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *RedisCache) SetLobby(ctx context.Context, l *domain.Lobby) error {
	b, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, lobbyKey(l.ID), b, c.ttl).Err()
}

func (c *RedisCache) GetLobby(ctx context.Context, id uint64) (*domain.Lobby, error) {
	b, err := c.client.Get(ctx, lobbyKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var l domain.Lobby
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *RedisCache) InvalidateOrder(ctx context.Context, id uint64) error {
	return c.client.Del(ctx, orderKey(id)).Err()
}

func (c *RedisCache) InvalidateLobby(ctx context.Context, id uint64) error {
	return c.client.Del(ctx, lobbyKey(id)).Err()
}
