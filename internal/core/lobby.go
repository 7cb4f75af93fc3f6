package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/olyamironova/escrow-engine/internal/port"
	"github.com/shopspring/decimal"
)

type breweryKey struct {
	lobbyID uint64
	addr    domain.Address
}

// LobbyEngine is the paired-stake escrow: the creator stakes on creation,
// the joiner on join, and both are refunded on cancel. During the timed
// in-progress window participants toggle their valve, each toggle
// checkpointing the caller's mead accrual.
type LobbyEngine struct {
	escrow domain.Address
	ledger port.ValueLedger
	repo   port.Repository
	cache  port.Cache
	events port.EventSink

	// rate assigned to brewery records on first access; settlement of the
	// accrued mead into points is a policy hook left to the caller
	meadRate decimal.Decimal

	mu        sync.Mutex
	lobbies   map[uint64]*domain.Lobby
	breweries map[breweryKey]*domain.BreweryStatus
	lastID    uint64

	now func() time.Time
}

func NewLobbyEngine(
	escrow domain.Address,
	ledger port.ValueLedger,
	repo port.Repository,
	cache port.Cache,
	events port.EventSink,
	meadRate decimal.Decimal,
) *LobbyEngine {
	return &LobbyEngine{
		escrow:    escrow,
		ledger:    ledger,
		repo:      repo,
		cache:     cache,
		events:    events,
		meadRate:  meadRate,
		lobbies:   make(map[uint64]*domain.Lobby),
		breweries: make(map[breweryKey]*domain.BreweryStatus),
		now:       time.Now,
	}
}

// LoadFromRepo rebuilds lobbies and brewery records from persisted rows.
func (e *LobbyEngine) LoadFromRepo(ctx context.Context) error {
	if e.repo == nil {
		return nil
	}
	lobbies, err := e.repo.LoadLobbies(ctx)
	if err != nil {
		return err
	}
	breweries, err := e.repo.LoadBreweries(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, l := range lobbies {
		e.lobbies[l.ID] = l
		if l.ID > e.lastID {
			e.lastID = l.ID
		}
	}
	for _, b := range breweries {
		e.breweries[breweryKey{b.LobbyID, b.Address}] = b
	}
	return nil
}

// CreateLobby mints a new lobby and pulls the creator's stake into escrow.
// The start time must be strictly in the future.
func (e *LobbyEngine) CreateLobby(ctx context.Context, caller domain.Address, startTime time.Time, betAmount decimal.Decimal) (*domain.Lobby, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !startTime.After(now) {
		return nil, domain.NewFault("createLobby", "lobby", e.lastID+1, domain.ErrTimingViolation)
	}

	l := &domain.Lobby{
		ID:        e.lastID + 1,
		Creator:   caller,
		StartTime: startTime,
		BetAmount: betAmount,
		CreatedAt: now,
	}
	e.lobbies[l.ID] = l
	e.lastID = l.ID

	if err := e.ledger.TransferFrom(ctx, caller, e.escrow, betAmount); err != nil {
		delete(e.lobbies, l.ID)
		e.lastID--
		return nil, err
	}

	e.persistLobby(ctx, l)
	e.emit(ctx, domain.Event{
		Type:    domain.EventLobbyCreated,
		Actor:   caller,
		LobbyID: l.ID,
		Amount:  betAmount,
	})
	cp := *l
	return &cp, nil
}

// UpdateStartTime moves the start of a lobby that has not started or been
// canceled. Creator only.
func (e *LobbyEngine) UpdateStartTime(ctx context.Context, caller domain.Address, lobbyID uint64, startTime time.Time) (*domain.Lobby, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.lobbies[lobbyID]
	if !ok {
		return nil, domain.NewFault("updateStartTime", "lobby", lobbyID, domain.ErrNotFound)
	}
	if l.Canceled {
		return nil, domain.NewFault("updateStartTime", "lobby", lobbyID, domain.ErrInvalidState)
	}
	if l.Started(e.now()) {
		return nil, domain.NewFault("updateStartTime", "lobby", lobbyID, domain.ErrTimingViolation)
	}
	if l.Creator != caller {
		return nil, domain.NewFault("updateStartTime", "lobby", lobbyID, domain.ErrUnauthorized)
	}

	l.StartTime = startTime

	e.persistLobby(ctx, l)
	e.emit(ctx, domain.Event{
		Type:    domain.EventLobbyUpdated,
		Actor:   caller,
		LobbyID: l.ID,
	})
	cp := *l
	return &cp, nil
}

// CancelLobby marks the lobby canceled for good and refunds the creator's
// stake, plus the joiner's if a joiner is seated.
func (e *LobbyEngine) CancelLobby(ctx context.Context, caller domain.Address, lobbyID uint64) (*domain.Lobby, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.lobbies[lobbyID]
	if !ok {
		return nil, domain.NewFault("cancelLobby", "lobby", lobbyID, domain.ErrNotFound)
	}
	if l.Canceled {
		return nil, domain.NewFault("cancelLobby", "lobby", lobbyID, domain.ErrInvalidState)
	}
	if l.Started(e.now()) {
		return nil, domain.NewFault("cancelLobby", "lobby", lobbyID, domain.ErrTimingViolation)
	}
	if l.Creator != caller {
		return nil, domain.NewFault("cancelLobby", "lobby", lobbyID, domain.ErrUnauthorized)
	}

	// commit cancellation before the refunds
	l.Canceled = true

	steps := []step{
		{
			apply:  func(c context.Context) error { return e.ledger.Transfer(c, l.Creator, l.BetAmount) },
			revert: func(c context.Context) error { return e.ledger.TransferFrom(c, l.Creator, e.escrow, l.BetAmount) },
		},
	}
	if l.Joined() {
		joiner := l.Joiner
		steps = append(steps, step{
			apply:  func(c context.Context) error { return e.ledger.Transfer(c, joiner, l.BetAmount) },
			revert: func(c context.Context) error { return e.ledger.TransferFrom(c, joiner, e.escrow, l.BetAmount) },
		})
	}
	if err := runSteps(ctx, steps); err != nil {
		l.Canceled = false
		return nil, err
	}

	e.persistLobby(ctx, l)
	e.emit(ctx, domain.Event{
		Type:    domain.EventLobbyCanceled,
		Actor:   caller,
		LobbyID: l.ID,
		Amount:  l.BetAmount,
	})
	cp := *l
	return &cp, nil
}

// JoinLobby seats the caller as joiner and pulls the matching stake.
func (e *LobbyEngine) JoinLobby(ctx context.Context, caller domain.Address, lobbyID uint64) (*domain.Lobby, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.lobbies[lobbyID]
	if !ok {
		return nil, domain.NewFault("joinLobby", "lobby", lobbyID, domain.ErrNotFound)
	}
	if l.Canceled {
		return nil, domain.NewFault("joinLobby", "lobby", lobbyID, domain.ErrInvalidState)
	}
	if l.Started(e.now()) {
		return nil, domain.NewFault("joinLobby", "lobby", lobbyID, domain.ErrTimingViolation)
	}
	if l.Joined() {
		return nil, domain.NewFault("joinLobby", "lobby", lobbyID, domain.ErrAlreadyInState)
	}

	l.Joiner = caller

	if err := e.ledger.TransferFrom(ctx, caller, e.escrow, l.BetAmount); err != nil {
		l.Joiner = ""
		return nil, err
	}

	e.persistLobby(ctx, l)
	e.emit(ctx, domain.Event{
		Type:    domain.EventLobbyJoined,
		Actor:   caller,
		LobbyID: l.ID,
		Amount:  l.BetAmount,
	})
	cp := *l
	return &cp, nil
}

// UnjoinLobby lets the seated joiner back out and reclaims the stake, but
// only while more than the cutoff remains before the start time. The seat
// reopens for another joiner.
func (e *LobbyEngine) UnjoinLobby(ctx context.Context, caller domain.Address, lobbyID uint64) (*domain.Lobby, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.lobbies[lobbyID]
	if !ok {
		return nil, domain.NewFault("unjoinLobby", "lobby", lobbyID, domain.ErrNotFound)
	}
	if l.Canceled {
		return nil, domain.NewFault("unjoinLobby", "lobby", lobbyID, domain.ErrInvalidState)
	}
	if !l.Joined() || l.Joiner != caller {
		return nil, domain.NewFault("unjoinLobby", "lobby", lobbyID, domain.ErrUnauthorized)
	}
	if !e.now().Before(l.StartTime.Add(-domain.UnjoinCutoff)) {
		return nil, domain.NewFault("unjoinLobby", "lobby", lobbyID, domain.ErrTimingViolation)
	}

	l.Joiner = ""

	if err := e.ledger.Transfer(ctx, caller, l.BetAmount); err != nil {
		l.Joiner = caller
		return nil, err
	}

	e.persistLobby(ctx, l)
	e.emit(ctx, domain.Event{
		Type:    domain.EventLobbyUnjoined,
		Actor:   caller,
		LobbyID: l.ID,
		Amount:  l.BetAmount,
	})
	cp := *l
	return &cp, nil
}

// ToggleValve flips the caller's valve during the in-progress window. A
// redundant toggle is rejected; a successful one checkpoints the caller's
// accrual before the flip takes effect.
func (e *LobbyEngine) ToggleValve(ctx context.Context, caller domain.Address, lobbyID uint64, desired bool) (*domain.BreweryStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.lobbies[lobbyID]
	if !ok {
		return nil, domain.NewFault("toggleValve", "lobby", lobbyID, domain.ErrNotFound)
	}
	now := e.now()
	if l.Canceled || !l.Joined() {
		return nil, domain.NewFault("toggleValve", "lobby", lobbyID, domain.ErrInvalidState)
	}
	if !l.InProgress(now) {
		return nil, domain.NewFault("toggleValve", "lobby", lobbyID, domain.ErrTimingViolation)
	}
	if !l.IsParticipant(caller) {
		return nil, domain.NewFault("toggleValve", "lobby", lobbyID, domain.ErrUnauthorized)
	}

	b := e.brewery(lobbyID, caller, now)
	if b.ValveOpen == desired {
		return nil, domain.NewFault("toggleValve", "lobby", lobbyID, domain.ErrAlreadyInState)
	}

	checkpoint(b, now)
	b.ValveOpen = desired

	if e.repo != nil {
		_ = e.repo.SaveBrewery(ctx, b)
	}
	e.emit(ctx, domain.Event{
		Type:    domain.EventValveToggled,
		Actor:   caller,
		LobbyID: lobbyID,
		Valve:   desired,
	})
	cp := *b
	return &cp, nil
}

// GetLobby reads one lobby, cache first.
func (e *LobbyEngine) GetLobby(ctx context.Context, lobbyID uint64) (*domain.Lobby, error) {
	if e.cache != nil {
		if l, err := e.cache.GetLobby(ctx, lobbyID); err == nil && l != nil {
			return l, nil
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.lobbies[lobbyID]
	if !ok {
		return nil, domain.NewFault("getLobby", "lobby", lobbyID, domain.ErrNotFound)
	}
	if e.cache != nil {
		_ = e.cache.SetLobby(ctx, l)
	}
	cp := *l
	return &cp, nil
}

// GetBreweryStatus returns the per-participant accrual record, creating it
// lazily on first access.
func (e *LobbyEngine) GetBreweryStatus(ctx context.Context, lobbyID uint64, addr domain.Address) (*domain.BreweryStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.lobbies[lobbyID]; !ok {
		return nil, domain.NewFault("getBreweryStatus", "lobby", lobbyID, domain.ErrNotFound)
	}
	b := e.brewery(lobbyID, addr, e.now())
	cp := *b
	return &cp, nil
}

func (e *LobbyEngine) brewery(lobbyID uint64, addr domain.Address, now time.Time) *domain.BreweryStatus {
	k := breweryKey{lobbyID, addr}
	b, ok := e.breweries[k]
	if !ok {
		b = &domain.BreweryStatus{
			LobbyID:       lobbyID,
			Address:       addr,
			MeadPerSecond: e.meadRate,
			LastUpdatedAt: now,
		}
		e.breweries[k] = b
	}
	return b
}

// checkpoint folds elapsed open-valve production into the mead balance and
// advances the accrual timestamp.
func checkpoint(b *domain.BreweryStatus, now time.Time) {
	if b.ValveOpen {
		elapsed := now.Sub(b.LastUpdatedAt)
		seconds := decimal.New(elapsed.Nanoseconds(), -9)
		b.Mead = b.Mead.Add(b.MeadPerSecond.Mul(seconds))
	}
	b.LastUpdatedAt = now
}

func (e *LobbyEngine) persistLobby(ctx context.Context, l *domain.Lobby) {
	if e.repo != nil {
		_ = e.repo.SaveLobby(ctx, l)
	}
	if e.cache != nil {
		_ = e.cache.SetLobby(ctx, l)
	}
}

func (e *LobbyEngine) emit(ctx context.Context, ev domain.Event) {
	if e.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.At = e.now()
	_ = e.events.Publish(ctx, ev)
}
