package core

import "github.com/shopspring/decimal"

// basis points: 10000 = 100%, fee arithmetic truncates toward zero
const bpsDenom = 10000

type feeSplit struct {
	Tax        decimal.Decimal
	Treasury   decimal.Decimal
	RewardPool decimal.Decimal
	Seller     decimal.Decimal
}

// splitPrice fans a sale price out into treasury, reward pool and seller
// portions. RewardPool absorbs tax-treasury and Seller absorbs price-tax, so
// the three disbursed amounts always sum to price exactly.
func splitPrice(price decimal.Decimal, feeRate, treasuryFeeRate int64) feeSplit {
	denom := decimal.NewFromInt(bpsDenom)
	tax := price.Mul(decimal.NewFromInt(feeRate)).Div(denom).Floor()
	treasury := tax.Mul(decimal.NewFromInt(treasuryFeeRate)).Div(denom).Floor()
	return feeSplit{
		Tax:        tax,
		Treasury:   treasury,
		RewardPool: tax.Sub(treasury),
		Seller:     price.Sub(tax),
	}
}
