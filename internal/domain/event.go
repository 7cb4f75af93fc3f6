package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventOrderCreated  EventType = "ORDER_CREATED"
	EventOrderUpdated  EventType = "ORDER_UPDATED"
	EventOrderCanceled EventType = "ORDER_CANCELED"
	EventOrderBought   EventType = "ORDER_BOUGHT"

	EventLobbyCreated  EventType = "LOBBY_CREATED"
	EventLobbyUpdated  EventType = "LOBBY_UPDATED"
	EventLobbyCanceled EventType = "LOBBY_CANCELED"
	EventLobbyJoined   EventType = "LOBBY_JOINED"
	EventLobbyUnjoined EventType = "LOBBY_UNJOINED"
	EventValveToggled  EventType = "VALVE_TOGGLED"
)

// Event is emitted after an operation commits. Consumed by off-core
// observers (indexers, UIs); the engines never read events back.
type Event struct {
	ID      string          `json:"id"`
	Type    EventType       `json:"type"`
	At      time.Time       `json:"at"`
	Actor   Address         `json:"actor"`
	OrderID uint64          `json:"order_id,omitempty"`
	LobbyID uint64          `json:"lobby_id,omitempty"`
	AssetID uint64          `json:"asset_id,omitempty"`
	Amount  decimal.Decimal `json:"amount,omitempty"`
	Valve   bool            `json:"valve,omitempty"`
}
