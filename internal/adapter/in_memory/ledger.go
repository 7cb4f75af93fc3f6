package in_memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
	"github.com/shopspring/decimal"
)

var _ port.ValueLedger = (*Ledger)(nil)

// Ledger is an in-process value ledger used in tests and local runs. The
// engine's escrow account is an ordinary account; Transfer spends from it.
type Ledger struct {
	mu       sync.Mutex
	escrow   domain.Address
	balances map[domain.Address]decimal.Decimal
}

func NewLedger(escrow domain.Address) *Ledger {
	return &Ledger{
		escrow:   escrow,
		balances: make(map[domain.Address]decimal.Decimal),
	}
}

// Credit mints balance onto an account (test/bootstrap helper).
func (l *Ledger) Credit(addr domain.Address, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[addr] = l.balances[addr].Add(amount)
}

func (l *Ledger) BalanceOf(addr domain.Address) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

func (l *Ledger) Transfer(ctx context.Context, to domain.Address, amount decimal.Decimal) error {
	return l.TransferFrom(ctx, l.escrow, to, amount)
}

func (l *Ledger) TransferFrom(ctx context.Context, from, to domain.Address, amount decimal.Decimal) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount.IsNegative() {
		return fmt.Errorf("ledger: negative amount %s", amount)
	}
	if l.balances[from].LessThan(amount) {
		return fmt.Errorf("ledger: insufficient balance on %s: have %s, need %s",
			from, l.balances[from], amount)
	}
	l.balances[from] = l.balances[from].Sub(amount)
	l.balances[to] = l.balances[to].Add(amount)
	return nil
}
