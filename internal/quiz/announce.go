package quiz

import (
	"context"
	"log/slog"
	"time"

	"atenu-bots/internal/domain"
)

// RecapPublisher renders and broadcasts leaderboard recaps to the target
// chats, tolerating per-chat delivery failure.
type RecapPublisher interface {
	PublishWeeklyRecap(ctx context.Context, weekStart, weekEnd time.Time, rows []domain.Standing)
	PublishMonthlyRecap(ctx context.Context, month time.Time, rows []domain.Standing)
}

// AnnouncerConfig fixes the wall-clock recurrence rules and retention policy.
// All times are UTC.
type AnnouncerConfig struct {
	WeeklyRecapDay   time.Weekday // default Sunday
	WeeklyRecapHour  int          // default 9
	MonthlyRecapHour int          // default 23, on the last day of the month
	CleanupDay       time.Weekday // default Sunday
	CleanupHour      int          // default 2
	AnswerRetention  time.Duration
	EntryRetention   time.Duration // 0 keeps daily/weekly entries forever
}

// DefaultAnnouncerConfig mirrors the production schedule.
func DefaultAnnouncerConfig(answerRetention, entryRetention time.Duration) AnnouncerConfig {
	return AnnouncerConfig{
		WeeklyRecapDay:   time.Sunday,
		WeeklyRecapHour:  9,
		MonthlyRecapHour: 23,
		CleanupDay:       time.Sunday,
		CleanupHour:      2,
		AnswerRetention:  answerRetention,
		EntryRetention:   entryRetention,
	}
}

// Announcer computes next-fire times for the weekly recap, the monthly recap
// and the retention cleanup, and runs each job on its own loop. Next-fire
// times are re-derived from the clock on every lap, so nothing about the
// schedule is persisted. A failed run is logged and the loop keeps going.
type Announcer struct {
	store     Store
	standings *Standings
	publisher RecapPublisher
	cfg       AnnouncerConfig
	clock     func() time.Time
}

func NewAnnouncer(store Store, standings *Standings, publisher RecapPublisher, cfg AnnouncerConfig) *Announcer {
	return &Announcer{store: store, standings: standings, publisher: publisher, cfg: cfg, clock: time.Now}
}

// NewAnnouncerWithClock is test-only.
func NewAnnouncerWithClock(store Store, standings *Standings, publisher RecapPublisher, cfg AnnouncerConfig, clock func() time.Time) *Announcer {
	a := NewAnnouncer(store, standings, publisher, cfg)
	a.clock = clock
	return a
}

// Run starts the three job loops and blocks until ctx is done.
func (a *Announcer) Run(ctx context.Context) {
	go a.loop(ctx, "weekly_recap",
		func(now time.Time) time.Time { return NextWeekday(now, a.cfg.WeeklyRecapDay, a.cfg.WeeklyRecapHour) },
		a.AnnounceWeekly)
	go a.loop(ctx, "monthly_recap",
		func(now time.Time) time.Time { return NextMonthEnd(now, a.cfg.MonthlyRecapHour) },
		a.AnnounceMonthly)
	a.loop(ctx, "retention_cleanup",
		func(now time.Time) time.Time { return NextWeekday(now, a.cfg.CleanupDay, a.cfg.CleanupHour) },
		a.Cleanup)
}

func (a *Announcer) loop(ctx context.Context, name string, next func(time.Time) time.Time, job func(context.Context) error) {
	for {
		fireAt := next(a.clock())
		timer := time.NewTimer(fireAt.Sub(a.clock()))
		slog.Info("scheduled job", slog.String("job", name), slog.Time("next_fire", fireAt))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := job(ctx); err != nil {
			slog.Error("scheduled job failed", slog.String("job", name), slog.Any("error", err))
		}
	}
}

// AnnounceWeekly broadcasts last week's top-3. The announced week key comes
// from the same derivation the aggregator writes with, so the recap always
// names the period the points actually landed in.
func (a *Announcer) AnnounceWeekly(ctx context.Context) error {
	now := a.clock().UTC()
	key := domain.LastWeekKey(now)

	rows, err := a.standings.For(ctx, domain.PeriodWeekly, key, 3)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		slog.Info("no participants for weekly leaderboard", slog.String("week", key))
		return nil
	}

	weekStart := domain.WeekStart(now.AddDate(0, 0, -7))
	weekEnd := weekStart.AddDate(0, 0, 6)
	a.publisher.PublishWeeklyRecap(ctx, weekStart, weekEnd, rows)
	slog.Info("weekly leaderboard announcement completed", slog.String("week", key))
	return nil
}

// AnnounceMonthly broadcasts last month's top-3 and then clears the monthly
// leaderboard unconditionally, so the new month always starts empty even
// when nobody participated.
func (a *Announcer) AnnounceMonthly(ctx context.Context) error {
	now := a.clock().UTC()
	lastMonth := domain.LastMonth(now)
	key := domain.MonthlyKey(lastMonth)

	rows, err := a.standings.For(ctx, domain.PeriodMonthly, key, 3)
	if err == nil && len(rows) > 0 {
		a.publisher.PublishMonthlyRecap(ctx, lastMonth, rows)
	} else if err != nil {
		slog.Error("failed to fetch monthly leaderboard", slog.String("month", key), slog.Any("error", err))
	} else {
		slog.Info("no participants for monthly leaderboard", slog.String("month", key))
	}

	if err := a.store.ClearMonthly(ctx); err != nil {
		return err
	}
	slog.Info("monthly leaderboard cleared", slog.String("month", key))
	return nil
}

// Cleanup prunes answer events older than the retention window and, when
// entry retention is enabled, stale daily/weekly leaderboard entries. User
// lifetime counters and surviving entries are untouched: they are already
// folded aggregates independent of raw event retention.
func (a *Announcer) Cleanup(ctx context.Context) error {
	now := a.clock().UTC()
	cutoff := now.Add(-a.cfg.AnswerRetention)

	deleted, err := a.store.DeleteAnswersBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	slog.Info("retention cleanup completed",
		slog.Int64("answers_deleted", deleted),
		slog.Time("cutoff", cutoff))

	if a.cfg.EntryRetention <= 0 {
		return nil
	}
	entryCutoff := now.Add(-a.cfg.EntryRetention)
	for _, pt := range []domain.PeriodType{domain.PeriodDaily, domain.PeriodWeekly} {
		pruned, err := a.store.PruneEntries(ctx, pt, pt.Key(entryCutoff))
		if err != nil {
			return err
		}
		slog.Info("pruned stale leaderboard entries",
			slog.String("period_type", string(pt)),
			slog.Int64("entries_deleted", pruned))
	}
	return nil
}

// NextWeekday returns the next occurrence of day at hour:00 UTC, strictly
// after now unless today's occurrence is still ahead.
func NextWeekday(now time.Time, day time.Weekday, hour int) time.Time {
	now = now.UTC()
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	daysAhead := (int(day) - int(now.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysAhead)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// NextMonthEnd returns hour:00 UTC on the last day of the current month, or
// of the next month when that instant has already passed.
func NextMonthEnd(now time.Time, hour int) time.Time {
	now = now.UTC()
	firstOfNext := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	candidate := firstOfNext.AddDate(0, 0, -1)
	candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), hour, 0, 0, 0, time.UTC)
	if !candidate.After(now) {
		firstOfAfter := firstOfNext.AddDate(0, 1, 0)
		candidate = firstOfAfter.AddDate(0, 0, -1)
		candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), hour, 0, 0, 0, time.UTC)
	}
	return candidate
}
