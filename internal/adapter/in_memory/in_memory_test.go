package in_memory

import (
	"context"
	"testing"

	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const escrow = domain.Address("escrow")

func TestLedgerTransferFrom(t *testing.T) {
	l := NewLedger(escrow)
	l.Credit("alice", decimal.NewFromInt(100))

	err := l.TransferFrom(context.Background(), "alice", "bob", decimal.NewFromInt(40))
	require.NoError(t, err)
	assert.True(t, l.BalanceOf("alice").Equal(decimal.NewFromInt(60)))
	assert.True(t, l.BalanceOf("bob").Equal(decimal.NewFromInt(40)))
}

func TestLedgerTransferSpendsEscrow(t *testing.T) {
	l := NewLedger(escrow)
	l.Credit(escrow, decimal.NewFromInt(10))

	require.NoError(t, l.Transfer(context.Background(), "alice", decimal.NewFromInt(10)))
	assert.True(t, l.BalanceOf(escrow).IsZero())
	assert.True(t, l.BalanceOf("alice").Equal(decimal.NewFromInt(10)))
}

func TestLedgerRejectsOverdraftAndNegative(t *testing.T) {
	l := NewLedger(escrow)
	l.Credit("alice", decimal.NewFromInt(5))

	err := l.TransferFrom(context.Background(), "alice", "bob", decimal.NewFromInt(6))
	assert.Error(t, err)
	err = l.TransferFrom(context.Background(), "alice", "bob", decimal.NewFromInt(-1))
	assert.Error(t, err)

	assert.True(t, l.BalanceOf("alice").Equal(decimal.NewFromInt(5)), "failed transfers must not move balance")
	assert.True(t, l.BalanceOf("bob").IsZero())
}

func TestRegistryCustody(t *testing.T) {
	r := NewRegistry()
	r.Mint("alice", 7)

	owner, err := r.OwnerOf(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, domain.Address("alice"), owner)

	require.NoError(t, r.TransferCustody(context.Background(), "alice", escrow, 7))
	owner, err = r.OwnerOf(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, escrow, owner)
}

func TestRegistryRejectsWrongOwner(t *testing.T) {
	r := NewRegistry()
	r.Mint("alice", 7)

	err := r.TransferCustody(context.Background(), "bob", escrow, 7)
	assert.Error(t, err)
	owner, _ := r.OwnerOf(context.Background(), 7)
	assert.Equal(t, domain.Address("alice"), owner)
}

func TestRegistryUnknownAsset(t *testing.T) {
	r := NewRegistry()

	_, err := r.OwnerOf(context.Background(), 99)
	assert.Error(t, err)
	err = r.TransferCustody(context.Background(), "alice", escrow, 99)
	assert.Error(t, err)
}

func TestSettingsFeeSchedule(t *testing.T) {
	s := NewSettings(500, 3000, "treasury", "reward-pool")
	ctx := context.Background()

	fee, err := s.FeeRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), fee)

	s.SetFeeRates(250, 5000)
	fee, _ = s.FeeRate(ctx)
	tr, _ := s.TreasuryFeeRate(ctx)
	assert.Equal(t, int64(250), fee)
	assert.Equal(t, int64(5000), tr)

	treasury, _ := s.TreasuryAddress(ctx)
	pool, _ := s.RewardPoolAddress(ctx)
	assert.Equal(t, domain.Address("treasury"), treasury)
	assert.Equal(t, domain.Address("reward-pool"), pool)
}

func TestMemoryRepoRoundTrip(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()

	o := &domain.Order{ID: 3, AssetID: 9, Seller: "alice", Price: decimal.NewFromInt(10)}
	require.NoError(t, r.SaveOrder(ctx, o))
	o.Seller = "mutated after save"

	orders, err := r.LoadOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.Address("alice"), orders[0].Seller, "repo must store by value")

	b := &domain.BreweryStatus{LobbyID: 1, Address: "alice", ValveOpen: true}
	require.NoError(t, r.SaveBrewery(ctx, b))
	breweries, err := r.LoadBreweries(ctx)
	require.NoError(t, err)
	require.Len(t, breweries, 1)
	assert.True(t, breweries[0].ValveOpen)
}
