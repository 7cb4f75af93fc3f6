package in_memory

import (
	"context"
	"sync"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
)

var _ port.Settings = (*Settings)(nil)

// Settings serves a fixed fee schedule, mutable for tests.
type Settings struct {
	mu              sync.Mutex
	feeRate         int64
	treasuryFeeRate int64
	treasury        domain.Address
	rewardPool      domain.Address
}

func NewSettings(feeRate, treasuryFeeRate int64, treasury, rewardPool domain.Address) *Settings {
	return &Settings{
		feeRate:         feeRate,
		treasuryFeeRate: treasuryFeeRate,
		treasury:        treasury,
		rewardPool:      rewardPool,
	}
}

func (s *Settings) FeeRate(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeRate, nil
}

func (s *Settings) TreasuryFeeRate(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.treasuryFeeRate, nil
}

func (s *Settings) TreasuryAddress(ctx context.Context) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.treasury, nil
}

func (s *Settings) RewardPoolAddress(ctx context.Context) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewardPool, nil
}

// SetFeeRates swaps the fee schedule (tests).
func (s *Settings) SetFeeRates(feeRate, treasuryFeeRate int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeRate = feeRate
	s.treasuryFeeRate = treasuryFeeRate
}
