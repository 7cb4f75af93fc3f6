package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// InProgressWindow is how long a lobby stays playable after its start time.
	InProgressWindow = 5 * time.Minute
	// UnjoinCutoff is the minimum distance to the start time at which a joiner
	// may still back out.
	UnjoinCutoff = 60 * time.Second
)

// Lobby is a paired-stake escrow. The creator stakes on creation, the joiner
// on join. Cancellation is monotonic and only possible before the start time;
// the joiner seat is re-openable via unjoin until the unjoin cutoff.
type Lobby struct {
	ID                uint64
	Creator           Address
	Joiner            Address // empty while the seat is open
	Canceled          bool
	StartTime         time.Time
	BetAmount         decimal.Decimal
	CreatorMeadInLand decimal.Decimal
	JoinerMeadInLand  decimal.Decimal
	CreatedAt         time.Time
}

func (l *Lobby) Joined() bool { return !l.Joiner.Empty() }

func (l *Lobby) Started(now time.Time) bool { return !now.Before(l.StartTime) }

// InProgress reports whether the lobby is inside its timed play window.
func (l *Lobby) InProgress(now time.Time) bool {
	return l.Joined() && !l.Canceled &&
		l.Started(now) && now.Before(l.StartTime.Add(InProgressWindow))
}

// IsParticipant reports whether addr holds a seat in the lobby.
func (l *Lobby) IsParticipant(addr Address) bool {
	return addr == l.Creator || (l.Joined() && addr == l.Joiner)
}

// BreweryStatus is the per-lobby, per-participant accrual record. Mead
// accumulates while the valve is open; LastUpdatedAt is the checkpoint every
// mutating access advances. Points and end-of-game settlement are an
// extension point and are never written by the engine.
type BreweryStatus struct {
	LobbyID       uint64
	Address       Address
	Mead          decimal.Decimal
	Points        int64
	ValveOpen     bool
	LastUpdatedAt time.Time
	MeadPerSecond decimal.Decimal
}
