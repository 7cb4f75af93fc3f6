package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	AssetID uint64          `json:"asset_id" binding:"required"`
	Price   decimal.Decimal `json:"price"`
}

type UpdateOrderRequest struct {
	OrderID uint64          `json:"order_id"`
	Price   decimal.Decimal `json:"price"`
}

type CancelOrderRequest struct {
	OrderID uint64 `json:"order_id"`
}

type BuyOrderRequest struct {
	OrderID uint64          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
}

type OrderResponse struct {
	Order Order `json:"order"`
}

type OrderPageResponse struct {
	Address   string   `json:"address"`
	OrderIDs  []uint64 `json:"order_ids"`
	NewCursor uint64   `json:"new_cursor"`
	Total     uint64   `json:"total"`
}

type CreateLobbyRequest struct {
	StartTime time.Time       `json:"start_time" binding:"required"`
	BetAmount decimal.Decimal `json:"bet_amount"`
}

type UpdateStartTimeRequest struct {
	LobbyID   uint64    `json:"lobby_id"`
	StartTime time.Time `json:"start_time" binding:"required"`
}

type LobbyIDRequest struct {
	LobbyID uint64 `json:"lobby_id"`
}

type ToggleValveRequest struct {
	LobbyID uint64 `json:"lobby_id"`
	Open    *bool  `json:"open" binding:"required"`
}

type LobbyResponse struct {
	Lobby Lobby `json:"lobby"`
}

type BreweryResponse struct {
	Brewery Brewery `json:"brewery"`
}

type Order struct {
	ID        uint64          `json:"id"`
	AssetID   uint64          `json:"asset_id"`
	Seller    string          `json:"seller"`
	Buyer     string          `json:"buyer,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Lobby struct {
	ID                uint64          `json:"id"`
	Creator           string          `json:"creator"`
	Joiner            string          `json:"joiner,omitempty"`
	Canceled          bool            `json:"canceled"`
	StartTime         time.Time       `json:"start_time"`
	BetAmount         decimal.Decimal `json:"bet_amount"`
	CreatorMeadInLand decimal.Decimal `json:"creator_mead_in_land"`
	JoinerMeadInLand  decimal.Decimal `json:"joiner_mead_in_land"`
	CreatedAt         time.Time       `json:"created_at"`
}

type Brewery struct {
	LobbyID       uint64          `json:"lobby_id"`
	Address       string          `json:"address"`
	Mead          decimal.Decimal `json:"mead"`
	Points        int64           `json:"points"`
	ValveOpen     bool            `json:"valve_open"`
	LastUpdatedAt time.Time       `json:"last_updated_at"`
	MeadPerSecond decimal.Decimal `json:"mead_per_second"`
}
