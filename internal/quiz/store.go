package quiz

import (
	"context"
	"time"

	"atenu-bots/internal/domain"
)

// AttemptRecord carries everything one scored answer mutates: the event row,
// the user's lifetime counters and the three period leaderboard entries.
type AttemptRecord struct {
	UserID     int64
	Username   string
	FirstName  string
	QuestionID int64
	Selected   int
	Correct    int
	IsCorrect  bool
	Points     int
	At         time.Time
}

// Store abstracts the relational persistence gateway (Postgres, in-memory for
// tests). Implementations must apply RecordAttempt as one atomic unit of work.
type Store interface {
	// RecordAttempt appends the answer event and folds it into the user's
	// lifetime counters and the daily/weekly/monthly leaderboard entries,
	// all inside a single transaction. Point deltas are clamped so no
	// running total ever drops below zero.
	RecordAttempt(ctx context.Context, rec AttemptRecord) error

	// AttemptHistory returns how many attempts the user has made on the
	// question and when the most recent one happened.
	AttemptHistory(ctx context.Context, userID, questionID int64) (count int, last time.Time, err error)

	// TopN returns the ranked standings for one period view, ordered by
	// points descending, ties broken by correct answers descending, then
	// by insertion order.
	TopN(ctx context.Context, period domain.PeriodType, key string, n int) ([]domain.Standing, error)

	// UserStats fetches lifetime stats, or domain.ErrUserNotFound.
	UserStats(ctx context.Context, userID int64) (domain.User, error)

	// ClearMonthly deletes every monthly leaderboard entry.
	ClearMonthly(ctx context.Context) error

	// DeleteAnswersBefore prunes answer events older than cutoff and
	// reports how many rows went away.
	DeleteAnswersBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// PruneEntries deletes leaderboard entries of the given period type
	// whose period key sorts before beforeKey.
	PruneEntries(ctx context.Context, period domain.PeriodType, beforeKey string) (int64, error)

	// RecordHelpTicket logs one help-bot interaction.
	RecordHelpTicket(ctx context.Context, ticket domain.HelpTicket) error
}

// StandingsSource is the query side of the leaderboard, satisfied by Store
// and by the Redis read-through cache that can sit in front of it.
type StandingsSource interface {
	TopN(ctx context.Context, period domain.PeriodType, key string, n int) ([]domain.Standing, error)
}
