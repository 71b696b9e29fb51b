package quiz_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/infra/memory"
	"atenu-bots/internal/quiz"
)

func TestFirstAttemptScoresCorrectAnswer(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	engine := quiz.NewEngineWithClock(store, func() time.Time { return now })

	out, err := engine.SubmitAnswer(context.Background(), submission(1, 100, 1, 1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Allowed || !out.IsCorrect || out.Points != 3 {
		t.Fatalf("outcome = %+v, want allowed correct +3", out)
	}
	if out.CooldownMessage != "✅ First attempt" {
		t.Fatalf("message = %q", out.CooldownMessage)
	}
}

func TestIncorrectAnswerCostsOnePoint(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	engine := quiz.NewEngineWithClock(store, func() time.Time { return now })

	out, err := engine.SubmitAnswer(context.Background(), submission(1, 100, 0, 1))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.IsCorrect || out.Points != -1 {
		t.Fatalf("outcome = %+v, want incorrect -1", out)
	}
}

func TestProgressiveCooldownLadder(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	engine := quiz.NewEngineWithClock(store, func() time.Time { return now })

	// first attempt, always free
	mustSubmit(t, engine, submission(1, 100, 0, 1))

	// retry #2 needs 1h since the first attempt
	now = now.Add(30 * time.Minute)
	out, _ := engine.SubmitAnswer(context.Background(), submission(1, 100, 0, 1))
	if out.Allowed {
		t.Fatal("retry #2 allowed after 30m, want blocked until 1h")
	}
	if out.CooldownMessage != "⏳ Wait 0h 30m before retry #2 (next: 6 hours)" {
		t.Fatalf("message = %q", out.CooldownMessage)
	}

	now = now.Add(30 * time.Minute)
	out = mustSubmit(t, engine, submission(1, 100, 0, 1))
	if out.CooldownMessage != "✅ Retry #2 allowed (next wait: 6 hours)" {
		t.Fatalf("message = %q", out.CooldownMessage)
	}

	// retry #3 needs 6h since retry #2
	now = now.Add(5 * time.Hour)
	out, _ = engine.SubmitAnswer(context.Background(), submission(1, 100, 0, 1))
	if out.Allowed {
		t.Fatal("retry #3 allowed after 5h, want blocked until 6h")
	}

	now = now.Add(time.Hour)
	out = mustSubmit(t, engine, submission(1, 100, 0, 1))
	if out.CooldownMessage != "✅ Retry #3 allowed (next wait: 24 hours)" {
		t.Fatalf("message = %q", out.CooldownMessage)
	}

	// retry #4 and beyond need 24h
	now = now.Add(23 * time.Hour)
	out, _ = engine.SubmitAnswer(context.Background(), submission(1, 100, 0, 1))
	if out.Allowed {
		t.Fatal("retry #4 allowed after 23h, want blocked until 24h")
	}
	if !strings.Contains(out.CooldownMessage, "retry #4 (next: 24 hours)") {
		t.Fatalf("message = %q", out.CooldownMessage)
	}

	now = now.Add(time.Hour)
	mustSubmit(t, engine, submission(1, 100, 0, 1))
}

func TestCooldownIsPerQuestionPair(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	engine := quiz.NewEngineWithClock(store, func() time.Time { return now })

	mustSubmit(t, engine, submission(1, 100, 0, 1))
	mustSubmit(t, engine, submission(1, 200, 0, 1))
	mustSubmit(t, engine, submission(2, 100, 0, 1))
}

func TestCooldownFailsOpenOnStoreError(t *testing.T) {
	engine := quiz.NewEngine(&failingHistoryStore{Store: memory.NewStore()})

	allowed, message := engine.EvaluateAttempt(context.Background(), 1, 100)
	if !allowed {
		t.Fatal("store error must not block the attempt")
	}
	if message != "✅ Proceeding (error occurred)" {
		t.Fatalf("message = %q", message)
	}
}

func TestDoubleClickRecordsOneAttempt(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	engine := quiz.NewEngineWithClock(store, func() time.Time { return now })

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := engine.SubmitAnswer(context.Background(), submission(1, 100, 1, 1))
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			if out.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Fatalf("allowed attempts = %d, want 1", allowed)
	}
	count, _, err := store.AttemptHistory(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("attempt history: %v", err)
	}
	if count != 1 {
		t.Fatalf("recorded attempts = %d, want 1", count)
	}
}

func TestOnRecordedReceivesPeriodKeys(t *testing.T) {
	store := memory.NewStore()
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	engine := quiz.NewEngineWithClock(store, func() time.Time { return now })

	var got domain.PeriodKeys
	engine.OnRecorded = func(ctx context.Context, keys domain.PeriodKeys) { got = keys }

	mustSubmit(t, engine, submission(1, 100, 1, 1))

	want := domain.KeysAt(now)
	if got != want {
		t.Fatalf("keys = %+v, want %+v", got, want)
	}
}

func mustSubmit(t *testing.T, engine *quiz.Engine, sub quiz.AttemptSubmission) quiz.Outcome {
	t.Helper()
	out, err := engine.SubmitAnswer(context.Background(), sub)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !out.Allowed {
		t.Fatalf("attempt blocked: %s", out.CooldownMessage)
	}
	return out
}

func submission(userID, questionID int64, selected, correct int) quiz.AttemptSubmission {
	return quiz.AttemptSubmission{
		UserID:       userID,
		Username:     "tester",
		QuestionID:   questionID,
		Selected:     selected,
		CorrectIndex: correct,
	}
}

type failingHistoryStore struct {
	*memory.Store
}

func (s *failingHistoryStore) AttemptHistory(ctx context.Context, userID, questionID int64) (int, time.Time, error) {
	return 0, time.Time{}, errors.New("connection refused")
}
