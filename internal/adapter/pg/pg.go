package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func (p *PgRepo) Close(ctx context.Context) {
	if p.pool != nil {
		p.pool.Close()
	}
}

// EnsureSchema creates the tables on first run.
func (p *PgRepo) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS orders (
  id         BIGINT PRIMARY KEY,
  asset_id   BIGINT NOT NULL,
  seller     TEXT NOT NULL,
  buyer      TEXT NOT NULL DEFAULT '',
  price      NUMERIC NOT NULL,
  status     TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS lobbies (
  id                   BIGINT PRIMARY KEY,
  creator              TEXT NOT NULL,
  joiner               TEXT NOT NULL DEFAULT '',
  canceled             BOOLEAN NOT NULL DEFAULT FALSE,
  start_time           TIMESTAMPTZ NOT NULL,
  bet_amount           NUMERIC NOT NULL,
  creator_mead_in_land NUMERIC NOT NULL DEFAULT 0,
  joiner_mead_in_land  NUMERIC NOT NULL DEFAULT 0,
  created_at           TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS breweries (
  lobby_id        BIGINT NOT NULL,
  address         TEXT NOT NULL,
  mead            NUMERIC NOT NULL DEFAULT 0,
  points          BIGINT NOT NULL DEFAULT 0,
  valve_open      BOOLEAN NOT NULL DEFAULT FALSE,
  last_updated_at TIMESTAMPTZ NOT NULL,
  mead_per_second NUMERIC NOT NULL DEFAULT 0,
  PRIMARY KEY (lobby_id, address)
);
`)
	return err
}

func (p *PgRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO orders(id, asset_id, seller, buyer, price, status, created_at, updated_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
  buyer = EXCLUDED.buyer,
  price = EXCLUDED.price,
  status = EXCLUDED.status,
  updated_at = EXCLUDED.updated_at
`, int64(o.ID), int64(o.AssetID), string(o.Seller), string(o.Buyer),
		o.Price, string(o.Status), o.CreatedAt, o.UpdatedAt)
	return err
}

func (p *PgRepo) SaveLobby(ctx context.Context, l *domain.Lobby) error {
	if l == nil {
		return errors.New("nil lobby")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO lobbies(id, creator, joiner, canceled, start_time, bet_amount,
  creator_mead_in_land, joiner_mead_in_land, created_at)
VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  joiner = EXCLUDED.joiner,
  canceled = EXCLUDED.canceled,
  start_time = EXCLUDED.start_time,
  creator_mead_in_land = EXCLUDED.creator_mead_in_land,
  joiner_mead_in_land = EXCLUDED.joiner_mead_in_land
`, int64(l.ID), string(l.Creator), string(l.Joiner), l.Canceled, l.StartTime,
		l.BetAmount, l.CreatorMeadInLand, l.JoinerMeadInLand, l.CreatedAt)
	return err
}

func (p *PgRepo) SaveBrewery(ctx context.Context, b *domain.BreweryStatus) error {
	if b == nil {
		return errors.New("nil brewery status")
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO breweries(lobby_id, address, mead, points, valve_open, last_updated_at, mead_per_second)
VALUES($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (lobby_id, address) DO UPDATE SET
  mead = EXCLUDED.mead,
  points = EXCLUDED.points,
  valve_open = EXCLUDED.valve_open,
  last_updated_at = EXCLUDED.last_updated_at,
  mead_per_second = EXCLUDED.mead_per_second
`, int64(b.LobbyID), string(b.Address), b.Mead, b.Points, b.ValveOpen,
		b.LastUpdatedAt, b.MeadPerSecond)
	return err
}

func (p *PgRepo) LoadOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, asset_id, seller, buyer, price, status, created_at, updated_at
FROM orders
ORDER BY id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Order
	for rows.Next() {
		var o domain.Order
		var id, assetID int64
		var seller, buyer, status string
		if err := rows.Scan(&id, &assetID, &seller, &buyer, &o.Price, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.ID = uint64(id)
		o.AssetID = uint64(assetID)
		o.Seller = domain.Address(seller)
		o.Buyer = domain.Address(buyer)
		o.Status = domain.OrderStatus(status)
		res = append(res, &o)
	}
	return res, rows.Err()
}

func (p *PgRepo) LoadLobbies(ctx context.Context) ([]*domain.Lobby, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, creator, joiner, canceled, start_time, bet_amount,
  creator_mead_in_land, joiner_mead_in_land, created_at
FROM lobbies
ORDER BY id ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.Lobby
	for rows.Next() {
		var l domain.Lobby
		var id int64
		var creator, joiner string
		if err := rows.Scan(&id, &creator, &joiner, &l.Canceled, &l.StartTime,
			&l.BetAmount, &l.CreatorMeadInLand, &l.JoinerMeadInLand, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.ID = uint64(id)
		l.Creator = domain.Address(creator)
		l.Joiner = domain.Address(joiner)
		res = append(res, &l)
	}
	return res, rows.Err()
}

func (p *PgRepo) LoadBreweries(ctx context.Context) ([]*domain.BreweryStatus, error) {
	rows, err := p.pool.Query(ctx, `
SELECT lobby_id, address, mead, points, valve_open, last_updated_at, mead_per_second
FROM breweries
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*domain.BreweryStatus
	for rows.Next() {
		var b domain.BreweryStatus
		var lobbyID int64
		var addr string
		if err := rows.Scan(&lobbyID, &addr, &b.Mead, &b.Points, &b.ValveOpen,
			&b.LastUpdatedAt, &b.MeadPerSecond); err != nil {
			return nil, err
		}
		b.LobbyID = uint64(lobbyID)
		b.Address = domain.Address(addr)
		res = append(res, &b)
	}
	return res, rows.Err()
}
