package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/infra/memory"
	"atenu-bots/internal/quiz"
)

func TestStandingsCacheServesFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := seededStore(t)
	src := &countingSource{StandingsSource: store}
	cache := NewStandingsCache(newClient(mr), src, time.Minute)

	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	key := domain.DailyKey(at)

	rows, err := cache.TopN(context.Background(), domain.PeriodDaily, key, 10)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(rows) != 1 || rows[0].Points != 3 {
		t.Fatalf("rows = %+v", rows)
	}
	if src.calls != 1 {
		t.Fatalf("expected source called once, got %d", src.calls)
	}

	// Second call should hit cache, source not incremented.
	if _, err := cache.TopN(context.Background(), domain.PeriodDaily, key, 10); err != nil {
		t.Fatalf("cached top n: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected cache hit, source calls=%d", src.calls)
	}
}

func TestStandingsCacheClipsToRequestedSize(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := memory.NewStore()
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	for userID := int64(1); userID <= 5; userID++ {
		record(t, store, userID, at)
	}
	cache := NewStandingsCache(newClient(mr), store, time.Minute)

	rows, err := cache.TopN(context.Background(), domain.PeriodDaily, domain.DailyKey(at), 3)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
}

func TestInvalidateDropsAllPeriodViews(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := seededStore(t)
	src := &countingSource{StandingsSource: store}
	cache := NewStandingsCache(newClient(mr), src, time.Minute)

	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	keys := domain.KeysAt(at)

	for _, view := range []struct {
		period domain.PeriodType
		key    string
	}{
		{domain.PeriodDaily, keys.Daily},
		{domain.PeriodWeekly, keys.Weekly},
		{domain.PeriodMonthly, keys.Monthly},
	} {
		if _, err := cache.TopN(context.Background(), view.period, view.key, 10); err != nil {
			t.Fatalf("warm %s: %v", view.period, err)
		}
	}
	if src.calls != 3 {
		t.Fatalf("warm-up source calls = %d, want 3", src.calls)
	}

	cache.Invalidate(context.Background(), keys)

	if _, err := cache.TopN(context.Background(), domain.PeriodDaily, keys.Daily, 10); err != nil {
		t.Fatalf("top n after invalidate: %v", err)
	}
	if src.calls != 4 {
		t.Fatalf("expected cache miss after invalidate, source calls=%d", src.calls)
	}
}

type countingSource struct {
	quiz.StandingsSource
	calls int
}

func (s *countingSource) TopN(ctx context.Context, period domain.PeriodType, key string, n int) ([]domain.Standing, error) {
	s.calls++
	return s.StandingsSource.TopN(ctx, period, key, n)
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	record(t, store, 1, time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC))
	return store
}

func record(t *testing.T, store *memory.Store, userID int64, at time.Time) {
	t.Helper()
	err := store.RecordAttempt(context.Background(), quiz.AttemptRecord{
		UserID:     userID,
		Username:   "tester",
		QuestionID: 100,
		Selected:   1,
		Correct:    1,
		IsCorrect:  true,
		Points:     3,
		At:         at,
	})
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
