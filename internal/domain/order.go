package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Address identifies an account in the value ledger and asset registry.
type Address string

func (a Address) Empty() bool { return a == "" }

type OrderStatus string

const (
	OrderActive   OrderStatus = "ACTIVE"
	OrderCanceled OrderStatus = "CANCELED"
	OrderSold     OrderStatus = "SOLD"
)

// Order is one escrow listing: a unique asset held by the engine while
// ACTIVE, released to the buyer on sale or back to the seller on cancel.
// CANCELED and SOLD are terminal.
type Order struct {
	ID        uint64
	AssetID   uint64
	Seller    Address
	Buyer     Address // set only when Status == SOLD
	Price     decimal.Decimal
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Actionable reports whether update/cancel/buy may still succeed.
func (o *Order) Actionable() bool {
	return o.Status == OrderActive
}
