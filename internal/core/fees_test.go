package core

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplitPriceConcrete(t *testing.T) {
	// 5% fee, 30% of the tax to the treasury
	split := splitPrice(decimal.NewFromInt(1000), 500, 3000)

	assert.True(t, split.Tax.Equal(decimal.NewFromInt(50)))
	assert.True(t, split.Treasury.Equal(decimal.NewFromInt(15)))
	assert.True(t, split.RewardPool.Equal(decimal.NewFromInt(35)))
	assert.True(t, split.Seller.Equal(decimal.NewFromInt(950)))
}

func TestSplitPriceTruncates(t *testing.T) {
	// 333 * 500 / 10000 = 16.65 -> 16; 16 * 3000 / 10000 = 4.8 -> 4
	split := splitPrice(decimal.NewFromInt(333), 500, 3000)

	assert.True(t, split.Tax.Equal(decimal.NewFromInt(16)))
	assert.True(t, split.Treasury.Equal(decimal.NewFromInt(4)))
	assert.True(t, split.RewardPool.Equal(decimal.NewFromInt(12)))
	assert.True(t, split.Seller.Equal(decimal.NewFromInt(317)))
}

func TestSplitPriceSumsToPrice(t *testing.T) {
	prices := []int64{1, 3, 7, 999, 1000, 12345, 99999999}
	rates := []int64{0, 1, 250, 500, 9999, 10000}

	for _, p := range prices {
		for _, fee := range rates {
			for _, tr := range rates {
				price := decimal.NewFromInt(p)
				split := splitPrice(price, fee, tr)

				sum := split.Treasury.Add(split.RewardPool).Add(split.Seller)
				assert.True(t, sum.Equal(price),
					"price=%d fee=%d treasury=%d: disbursed %s", p, fee, tr, sum)
				assert.False(t, split.Treasury.IsNegative())
				assert.False(t, split.RewardPool.IsNegative())
				assert.False(t, split.Seller.IsNegative())
			}
		}
	}
}
