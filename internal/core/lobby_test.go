package core

import (
	"context"
	"testing"
	"time"

	"github.com/olyamironova/escrow-engine/internal/adapter/in_memory"
	"github.com/olyamironova/escrow-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	creator  = domain.Address("carol")
	joiner   = domain.Address("dave")
	stranger = domain.Address("mallory")
)

type lobbyFixture struct {
	ledger *in_memory.Ledger
	repo   *in_memory.MemoryRepo
	sink   *in_memory.Sink
	engine *LobbyEngine
	clock  time.Time
}

func newLobbyFixture(t *testing.T, meadRate int64) *lobbyFixture {
	t.Helper()
	f := &lobbyFixture{
		ledger: in_memory.NewLedger(escrowAddr),
		repo:   in_memory.NewMemoryRepo(),
		sink:   in_memory.NewSink(),
		clock:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.engine = NewLobbyEngine(escrowAddr, f.ledger, f.repo, nil, f.sink, decimal.NewFromInt(meadRate))
	f.engine.now = func() time.Time { return f.clock }
	f.ledger.Credit(creator, d(100))
	f.ledger.Credit(joiner, d(100))
	return f
}

// createAt makes a lobby starting an hour out and returns it.
func (f *lobbyFixture) create(t *testing.T) *domain.Lobby {
	t.Helper()
	l, err := f.engine.CreateLobby(context.Background(), creator, f.clock.Add(time.Hour), d(100))
	require.NoError(t, err)
	return l
}

func TestCreateLobbyTakesStake(t *testing.T) {
	f := newLobbyFixture(t, 0)

	l := f.create(t)
	assert.Equal(t, uint64(1), l.ID)
	assert.Equal(t, creator, l.Creator)
	assert.True(t, l.Joiner.Empty())
	assert.False(t, l.Canceled)

	assert.True(t, f.ledger.BalanceOf(creator).IsZero())
	assert.True(t, f.ledger.BalanceOf(escrowAddr).Equal(d(100)))
}

func TestCreateLobbyRejectsPastStart(t *testing.T) {
	f := newLobbyFixture(t, 0)

	_, err := f.engine.CreateLobby(context.Background(), creator, f.clock, d(100))
	assert.ErrorIs(t, err, domain.ErrTimingViolation)
	_, err = f.engine.CreateLobby(context.Background(), creator, f.clock.Add(-time.Minute), d(100))
	assert.ErrorIs(t, err, domain.ErrTimingViolation)

	assert.True(t, f.ledger.BalanceOf(creator).Equal(d(100)), "no stake may be pulled")
}

func TestCreateLobbyInsufficientStakeRollsBack(t *testing.T) {
	f := newLobbyFixture(t, 0)

	_, err := f.engine.CreateLobby(context.Background(), stranger, f.clock.Add(time.Hour), d(100))
	require.Error(t, err)
	_, err = f.engine.GetLobby(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// the id is not burned by the failed attempt
	l := f.create(t)
	assert.Equal(t, uint64(1), l.ID)
}

func TestJoinLobby(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)

	got, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)
	assert.Equal(t, joiner, got.Joiner)
	assert.True(t, f.ledger.BalanceOf(joiner).IsZero())
	assert.True(t, f.ledger.BalanceOf(escrowAddr).Equal(d(200)))

	_, err = f.engine.JoinLobby(context.Background(), stranger, l.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadyInState)
}

func TestJoinAfterStartFails(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)

	f.clock = l.StartTime
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	assert.ErrorIs(t, err, domain.ErrTimingViolation)
}

func TestUnjoinWindow(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)

	_, err = f.engine.UnjoinLobby(context.Background(), stranger, l.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// 100s before start: still allowed
	f.clock = l.StartTime.Add(-100 * time.Second)
	got, err := f.engine.UnjoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Joiner.Empty())
	assert.True(t, f.ledger.BalanceOf(joiner).Equal(d(100)))

	// the seat reopens
	_, err = f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)

	// 50s before start: inside the cutoff
	f.clock = l.StartTime.Add(-50 * time.Second)
	_, err = f.engine.UnjoinLobby(context.Background(), joiner, l.ID)
	assert.ErrorIs(t, err, domain.ErrTimingViolation)

	got, err = f.engine.GetLobby(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, joiner, got.Joiner)
	assert.True(t, f.ledger.BalanceOf(joiner).IsZero())
}

func TestCancelLobbyRefundsBothStakes(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)

	_, err = f.engine.CancelLobby(context.Background(), joiner, l.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := f.engine.CancelLobby(context.Background(), creator, l.ID)
	require.NoError(t, err)
	assert.True(t, got.Canceled)

	assert.True(t, f.ledger.BalanceOf(creator).Equal(d(100)))
	assert.True(t, f.ledger.BalanceOf(joiner).Equal(d(100)))
	assert.True(t, f.ledger.BalanceOf(escrowAddr).IsZero())

	// canceled is final
	_, err = f.engine.CancelLobby(context.Background(), creator, l.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.engine.JoinLobby(context.Background(), stranger, l.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.engine.UpdateStartTime(context.Background(), creator, l.ID, f.clock.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancelLobbyAfterStartFails(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)

	f.clock = l.StartTime.Add(time.Second)
	_, err := f.engine.CancelLobby(context.Background(), creator, l.ID)
	assert.ErrorIs(t, err, domain.ErrTimingViolation)
	assert.True(t, f.ledger.BalanceOf(escrowAddr).Equal(d(100)), "stake stays in escrow")
}

func TestUpdateStartTime(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)

	_, err := f.engine.UpdateStartTime(context.Background(), joiner, l.ID, f.clock.Add(2*time.Hour))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	moved := f.clock.Add(2 * time.Hour)
	got, err := f.engine.UpdateStartTime(context.Background(), creator, l.ID, moved)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(moved))

	f.clock = moved
	_, err = f.engine.UpdateStartTime(context.Background(), creator, l.ID, moved.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrTimingViolation)
}

func TestToggleValveWindow(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)

	// before start
	_, err = f.engine.ToggleValve(context.Background(), creator, l.ID, true)
	assert.ErrorIs(t, err, domain.ErrTimingViolation)

	// inside the window
	f.clock = l.StartTime
	_, err = f.engine.ToggleValve(context.Background(), creator, l.ID, true)
	require.NoError(t, err)

	_, err = f.engine.ToggleValve(context.Background(), stranger, l.ID, true)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// window closed
	f.clock = l.StartTime.Add(domain.InProgressWindow)
	_, err = f.engine.ToggleValve(context.Background(), creator, l.ID, false)
	assert.ErrorIs(t, err, domain.ErrTimingViolation)
}

func TestToggleValveWithoutJoinerFails(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)

	f.clock = l.StartTime
	_, err := f.engine.ToggleValve(context.Background(), creator, l.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestToggleValveRejectsRedundantToggle(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)

	f.clock = l.StartTime
	b, err := f.engine.ToggleValve(context.Background(), joiner, l.ID, true)
	require.NoError(t, err)
	assert.True(t, b.ValveOpen)

	_, err = f.engine.ToggleValve(context.Background(), joiner, l.ID, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyInState)

	b, err = f.engine.ToggleValve(context.Background(), joiner, l.ID, false)
	require.NoError(t, err)
	assert.False(t, b.ValveOpen)
}

func TestToggleValveCheckpointsAccrual(t *testing.T) {
	f := newLobbyFixture(t, 2)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)

	f.clock = l.StartTime
	b, err := f.engine.ToggleValve(context.Background(), creator, l.ID, true)
	require.NoError(t, err)
	assert.True(t, b.Mead.IsZero())
	assert.True(t, b.LastUpdatedAt.Equal(l.StartTime))

	// 30s of open valve at 2 mead/s
	f.clock = l.StartTime.Add(30 * time.Second)
	b, err = f.engine.ToggleValve(context.Background(), creator, l.ID, false)
	require.NoError(t, err)
	assert.True(t, b.Mead.Equal(d(60)), "accrued %s", b.Mead)
	assert.True(t, b.LastUpdatedAt.Equal(f.clock))

	// closed valve accrues nothing
	f.clock = l.StartTime.Add(60 * time.Second)
	b, err = f.engine.ToggleValve(context.Background(), creator, l.ID, true)
	require.NoError(t, err)
	assert.True(t, b.Mead.Equal(d(60)))
	assert.True(t, b.LastUpdatedAt.Equal(f.clock))
}

func TestToggleValvePerParticipant(t *testing.T) {
	f := newLobbyFixture(t, 1)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)

	f.clock = l.StartTime
	_, err = f.engine.ToggleValve(context.Background(), creator, l.ID, true)
	require.NoError(t, err)

	// joiner's valve state is independent of the creator's
	b, err := f.engine.GetBreweryStatus(context.Background(), l.ID, joiner)
	require.NoError(t, err)
	assert.False(t, b.ValveOpen)

	_, err = f.engine.ToggleValve(context.Background(), joiner, l.ID, true)
	require.NoError(t, err)
}

func TestGetBreweryStatusLazyCreate(t *testing.T) {
	f := newLobbyFixture(t, 3)
	l := f.create(t)

	b, err := f.engine.GetBreweryStatus(context.Background(), l.ID, creator)
	require.NoError(t, err)
	assert.Equal(t, l.ID, b.LobbyID)
	assert.Equal(t, creator, b.Address)
	assert.True(t, b.Mead.IsZero())
	assert.False(t, b.ValveOpen)
	assert.True(t, b.MeadPerSecond.Equal(d(3)))

	_, err = f.engine.GetBreweryStatus(context.Background(), 99, creator)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLobbyEvents(t *testing.T) {
	f := newLobbyFixture(t, 0)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)
	_, err = f.engine.CancelLobby(context.Background(), creator, l.ID)
	require.NoError(t, err)

	events := f.sink.Events()
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventLobbyCreated, events[0].Type)
	assert.Equal(t, domain.EventLobbyJoined, events[1].Type)
	assert.Equal(t, domain.EventLobbyCanceled, events[2].Type)
	assert.Equal(t, l.ID, events[2].LobbyID)
}

func TestLobbyReloadsFromRepo(t *testing.T) {
	f := newLobbyFixture(t, 1)
	l := f.create(t)
	_, err := f.engine.JoinLobby(context.Background(), joiner, l.ID)
	require.NoError(t, err)
	f.clock = l.StartTime
	_, err = f.engine.ToggleValve(context.Background(), creator, l.ID, true)
	require.NoError(t, err)

	restarted := NewLobbyEngine(escrowAddr, f.ledger, f.repo, nil, f.sink, decimal.NewFromInt(1))
	restarted.now = func() time.Time { return f.clock }
	require.NoError(t, restarted.LoadFromRepo(context.Background()))

	got, err := restarted.GetLobby(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, joiner, got.Joiner)

	b, err := restarted.GetBreweryStatus(context.Background(), l.ID, creator)
	require.NoError(t, err)
	assert.True(t, b.ValveOpen)

	// counter continues past the highest persisted id
	f.ledger.Credit(creator, d(100))
	f.clock = l.StartTime.Add(-time.Hour)
	l2, err := restarted.CreateLobby(context.Background(), creator, f.clock.Add(time.Hour), d(100))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), l2.ID)
}
