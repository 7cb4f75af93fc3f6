package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
	"github.com/shopspring/decimal"
)

// Market is the order escrow engine: it takes custody of a listed asset
// while the order is active and releases it on sale or cancel. Every
// operation re-checks preconditions against committed state, commits the
// state transition, then performs the external movements; a movement failure
// rolls the whole operation back.
type Market struct {
	escrow   domain.Address
	ledger   port.ValueLedger
	assets   port.AssetRegistry
	settings port.Settings
	repo     port.Repository
	cache    port.Cache
	events   port.EventSink

	mu           sync.Mutex
	orders       map[uint64]*domain.Order
	ownedOrders  map[domain.Address][]uint64
	boughtOrders map[domain.Address][]uint64
	nextID       uint64

	now func() time.Time
}

func NewMarket(
	escrow domain.Address,
	ledger port.ValueLedger,
	assets port.AssetRegistry,
	settings port.Settings,
	repo port.Repository,
	cache port.Cache,
	events port.EventSink,
) *Market {
	return &Market{
		escrow:       escrow,
		ledger:       ledger,
		assets:       assets,
		settings:     settings,
		repo:         repo,
		cache:        cache,
		events:       events,
		orders:       make(map[uint64]*domain.Order),
		ownedOrders:  make(map[domain.Address][]uint64),
		boughtOrders: make(map[domain.Address][]uint64),
		now:          time.Now,
	}
}

// LoadFromRepo rebuilds the in-memory ledgers from persisted rows (used on
// startup). The owned index is rebuilt in creation order, the bought index
// in purchase order.
func (m *Market) LoadFromRepo(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	orders, err := m.repo.LoadOrders(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })
	for _, o := range orders {
		m.orders[o.ID] = o
		m.ownedOrders[o.Seller] = append(m.ownedOrders[o.Seller], o.ID)
		if o.ID >= m.nextID {
			m.nextID = o.ID + 1
		}
	}

	var sold []*domain.Order
	for _, o := range orders {
		if o.Status == domain.OrderSold {
			sold = append(sold, o)
		}
	}
	sort.Slice(sold, func(i, j int) bool {
		if !sold[i].UpdatedAt.Equal(sold[j].UpdatedAt) {
			return sold[i].UpdatedAt.Before(sold[j].UpdatedAt)
		}
		return sold[i].ID < sold[j].ID
	})
	for _, o := range sold {
		m.boughtOrders[o.Buyer] = append(m.boughtOrders[o.Buyer], o.ID)
	}
	return nil
}

// CreateOrder lists an asset for sale. The caller must own the asset;
// custody moves to the escrow account until a terminal transition.
func (m *Market) CreateOrder(ctx context.Context, caller domain.Address, assetID uint64, price decimal.Decimal) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, err := m.assets.OwnerOf(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if owner != caller {
		return nil, domain.NewFault("createOrder", "order", m.nextID, domain.ErrUnauthorized)
	}

	now := m.now()
	o := &domain.Order{
		ID:        m.nextID,
		AssetID:   assetID,
		Seller:    caller,
		Price:     price,
		Status:    domain.OrderActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.orders[o.ID] = o
	m.ownedOrders[caller] = append(m.ownedOrders[caller], o.ID)
	m.nextID++

	if err := m.assets.TransferCustody(ctx, caller, m.escrow, assetID); err != nil {
		delete(m.orders, o.ID)
		m.ownedOrders[caller] = m.ownedOrders[caller][:len(m.ownedOrders[caller])-1]
		m.nextID--
		return nil, err
	}

	m.persistOrder(ctx, o)
	m.emit(ctx, domain.Event{
		Type:    domain.EventOrderCreated,
		Actor:   caller,
		OrderID: o.ID,
		AssetID: assetID,
		Amount:  price,
	})
	cp := *o
	return &cp, nil
}

// UpdateOrder overwrites the price of an active order. Only the seller may
// update, and only while the order is active.
func (m *Market) UpdateOrder(ctx context.Context, caller domain.Address, orderID uint64, price decimal.Decimal) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.NewFault("updateOrder", "order", orderID, domain.ErrNotFound)
	}
	if !o.Actionable() {
		return nil, domain.NewFault("updateOrder", "order", orderID, domain.ErrInvalidState)
	}
	if o.Seller != caller {
		return nil, domain.NewFault("updateOrder", "order", orderID, domain.ErrUnauthorized)
	}

	o.Price = price
	o.UpdatedAt = m.now()

	m.persistOrder(ctx, o)
	m.emit(ctx, domain.Event{
		Type:    domain.EventOrderUpdated,
		Actor:   caller,
		OrderID: o.ID,
		Amount:  price,
	})
	cp := *o
	return &cp, nil
}

// CancelOrder returns the asset to the seller and closes the order for good.
func (m *Market) CancelOrder(ctx context.Context, caller domain.Address, orderID uint64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.NewFault("cancelOrder", "order", orderID, domain.ErrNotFound)
	}
	if !o.Actionable() {
		return nil, domain.NewFault("cancelOrder", "order", orderID, domain.ErrInvalidState)
	}
	if o.Seller != caller {
		return nil, domain.NewFault("cancelOrder", "order", orderID, domain.ErrUnauthorized)
	}

	// commit terminal state before the custody return
	o.Status = domain.OrderCanceled
	o.UpdatedAt = m.now()

	if err := m.assets.TransferCustody(ctx, m.escrow, o.Seller, o.AssetID); err != nil {
		o.Status = domain.OrderActive
		return nil, err
	}

	m.persistOrder(ctx, o)
	m.emit(ctx, domain.Event{
		Type:    domain.EventOrderCanceled,
		Actor:   caller,
		OrderID: o.ID,
		AssetID: o.AssetID,
	})
	cp := *o
	return &cp, nil
}

// BuyOrder settles an active order. The submitted amount must equal the
// current price exactly, guarding the buyer against a concurrent price
// update. The terminal transition commits first; the payment pull, the fee
// fan-out and the asset release run as one compensated batch afterwards.
func (m *Market) BuyOrder(ctx context.Context, caller domain.Address, orderID uint64, amount decimal.Decimal) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.NewFault("buyOrder", "order", orderID, domain.ErrNotFound)
	}
	if !o.Actionable() {
		return nil, domain.NewFault("buyOrder", "order", orderID, domain.ErrInvalidState)
	}
	if !amount.Equal(o.Price) {
		return nil, domain.NewFault("buyOrder", "order", orderID, domain.ErrAmountMismatch)
	}

	feeRate, err := m.settings.FeeRate(ctx)
	if err != nil {
		return nil, err
	}
	treasuryFeeRate, err := m.settings.TreasuryFeeRate(ctx)
	if err != nil {
		return nil, err
	}
	treasury, err := m.settings.TreasuryAddress(ctx)
	if err != nil {
		return nil, err
	}
	rewardPool, err := m.settings.RewardPoolAddress(ctx)
	if err != nil {
		return nil, err
	}
	split := splitPrice(o.Price, feeRate, treasuryFeeRate)

	seller := o.Seller
	o.Status = domain.OrderSold
	o.Buyer = caller
	o.UpdatedAt = m.now()
	m.boughtOrders[caller] = append(m.boughtOrders[caller], o.ID)

	steps := []step{
		{
			apply:  func(c context.Context) error { return m.ledger.TransferFrom(c, caller, m.escrow, amount) },
			revert: func(c context.Context) error { return m.ledger.Transfer(c, caller, amount) },
		},
		{
			apply:  func(c context.Context) error { return m.ledger.Transfer(c, treasury, split.Treasury) },
			revert: func(c context.Context) error { return m.ledger.TransferFrom(c, treasury, m.escrow, split.Treasury) },
		},
		{
			apply:  func(c context.Context) error { return m.ledger.Transfer(c, rewardPool, split.RewardPool) },
			revert: func(c context.Context) error { return m.ledger.TransferFrom(c, rewardPool, m.escrow, split.RewardPool) },
		},
		{
			apply:  func(c context.Context) error { return m.ledger.Transfer(c, seller, split.Seller) },
			revert: func(c context.Context) error { return m.ledger.TransferFrom(c, seller, m.escrow, split.Seller) },
		},
		{
			apply: func(c context.Context) error { return m.assets.TransferCustody(c, m.escrow, caller, o.AssetID) },
		},
	}
	if err := runSteps(ctx, steps); err != nil {
		o.Status = domain.OrderActive
		o.Buyer = ""
		m.boughtOrders[caller] = m.boughtOrders[caller][:len(m.boughtOrders[caller])-1]
		return nil, err
	}

	m.persistOrder(ctx, o)
	m.emit(ctx, domain.Event{
		Type:    domain.EventOrderBought,
		Actor:   caller,
		OrderID: o.ID,
		AssetID: o.AssetID,
		Amount:  amount,
	})
	cp := *o
	return &cp, nil
}

// GetOrder reads one order, cache first.
func (m *Market) GetOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	if m.cache != nil {
		if o, err := m.cache.GetOrder(ctx, orderID); err == nil && o != nil {
			return o, nil
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, domain.NewFault("getOrder", "order", orderID, domain.ErrNotFound)
	}
	if m.cache != nil {
		_ = m.cache.SetOrder(ctx, o)
	}
	cp := *o
	return &cp, nil
}

func (m *Market) CountOwnedOrders(ctx context.Context, addr domain.Address) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.ownedOrders[addr]))
}

func (m *Market) CountBoughtOrders(ctx context.Context, addr domain.Address) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.boughtOrders[addr]))
}

// FetchOwnedOrders pages through the ids of orders listed by addr.
func (m *Market) FetchOwnedOrders(ctx context.Context, addr domain.Address, cursor, limit uint64) ([]uint64, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pageIDs(m.ownedOrders[addr], cursor, limit)
}

// FetchBoughtOrders pages through the ids of orders bought by addr.
func (m *Market) FetchBoughtOrders(ctx context.Context, addr domain.Address, cursor, limit uint64) ([]uint64, uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pageIDs(m.boughtOrders[addr], cursor, limit)
}

func (m *Market) persistOrder(ctx context.Context, o *domain.Order) {
	if m.repo != nil {
		_ = m.repo.SaveOrder(ctx, o)
	}
	if m.cache != nil {
		_ = m.cache.SetOrder(ctx, o)
	}
}

func (m *Market) emit(ctx context.Context, ev domain.Event) {
	if m.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.At = m.now()
	_ = m.events.Publish(ctx, ev)
}
