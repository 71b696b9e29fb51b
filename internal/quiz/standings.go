package quiz

import (
	"context"
	"time"

	"atenu-bots/internal/domain"
)

// Standings serves ranked leaderboard views for the current periods. It sits
// on top of a StandingsSource so the caller can be backed either directly by
// the store or by the Redis read-through cache.
type Standings struct {
	src   StandingsSource
	clock func() time.Time
}

func NewStandings(src StandingsSource) *Standings {
	return NewStandingsWithClock(src, time.Now)
}

// NewStandingsWithClock allows deterministic period keys in tests.
func NewStandingsWithClock(src StandingsSource, clock func() time.Time) *Standings {
	return &Standings{src: src, clock: clock}
}

// Snapshot holds the three current-period views side by side.
type Snapshot struct {
	Keys    domain.PeriodKeys
	Daily   []domain.Standing
	Weekly  []domain.Standing
	Monthly []domain.Standing
}

// Current fetches the daily, weekly and monthly top-n as of now.
func (s *Standings) Current(ctx context.Context, n int) (Snapshot, error) {
	now := s.clock()
	keys := domain.KeysAt(now)

	daily, err := s.src.TopN(ctx, domain.PeriodDaily, keys.Daily, n)
	if err != nil {
		return Snapshot{}, err
	}
	weekly, err := s.src.TopN(ctx, domain.PeriodWeekly, keys.Weekly, n)
	if err != nil {
		return Snapshot{}, err
	}
	monthly, err := s.src.TopN(ctx, domain.PeriodMonthly, keys.Monthly, n)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{Keys: keys, Daily: daily, Weekly: weekly, Monthly: monthly}, nil
}

// For fetches the top-n view for an arbitrary period key.
func (s *Standings) For(ctx context.Context, period domain.PeriodType, key string, n int) ([]domain.Standing, error) {
	return s.src.TopN(ctx, period, key, n)
}
