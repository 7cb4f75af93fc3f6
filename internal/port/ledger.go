package port

import (
	"context"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// ValueLedger moves fungible balances between accounts. The engine owns an
// escrow account in the ledger; Transfer spends from that account.
type ValueLedger interface {
	Transfer(ctx context.Context, to domain.Address, amount decimal.Decimal) error
	TransferFrom(ctx context.Context, from, to domain.Address, amount decimal.Decimal) error
}

// AssetRegistry tracks ownership of unique assets and moves custody with
// safe-transfer semantics: TransferCustody fails unless from is the owner.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, assetID uint64) (domain.Address, error)
	TransferCustody(ctx context.Context, from, to domain.Address, assetID uint64) error
}

// Settings supplies the fee schedule and payee addresses. Rates are basis
// points (10000 = 100%).
type Settings interface {
	FeeRate(ctx context.Context) (int64, error)
	TreasuryFeeRate(ctx context.Context) (int64, error)
	TreasuryAddress(ctx context.Context) (domain.Address, error)
	RewardPoolAddress(ctx context.Context) (domain.Address, error)
}
