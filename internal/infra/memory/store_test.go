package memory

import (
	"context"
	"testing"
	"time"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

func TestRecordAttemptFoldsCounters(t *testing.T) {
	store := NewStore()
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	mustRecord(t, store, attempt(1, 100, true, 3, at))
	mustRecord(t, store, attempt(1, 101, false, -1, at.Add(time.Minute)))

	u, err := store.UserStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if u.QuestionsAnswered != 2 || u.CorrectAnswers != 1 {
		t.Fatalf("counters = %d/%d, want 2/1", u.QuestionsAnswered, u.CorrectAnswers)
	}
	if u.Points != 2 {
		t.Fatalf("points = %d, want 2", u.Points)
	}
	if u.Accuracy != 50.0 {
		t.Fatalf("accuracy = %.1f, want 50.0", u.Accuracy)
	}
}

func TestPointsNeverDropBelowZero(t *testing.T) {
	store := NewStore()
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	mustRecord(t, store, attempt(1, 100, false, -1, at))
	mustRecord(t, store, attempt(1, 101, false, -1, at.Add(time.Minute)))
	mustRecord(t, store, attempt(1, 102, true, 3, at.Add(2*time.Minute)))

	u, err := store.UserStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("user stats: %v", err)
	}
	if u.Points != 3 {
		t.Fatalf("points = %d, want 3 (deltas clamp at zero, they do not bank debt)", u.Points)
	}

	rows, err := store.TopN(context.Background(), domain.PeriodDaily, domain.DailyKey(at), 10)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(rows) != 1 || rows[0].Points != 3 {
		t.Fatalf("daily standing = %+v, want single row with 3 points", rows)
	}
}

func TestTopNOrdering(t *testing.T) {
	store := NewStore()
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	// user 1: one correct (3 pts, 1 correct)
	mustRecord(t, store, attempt(1, 100, true, 3, at))
	// user 2: two correct, one wrong (5 pts, 2 correct)
	mustRecord(t, store, attempt(2, 100, true, 3, at))
	mustRecord(t, store, attempt(2, 101, true, 3, at))
	mustRecord(t, store, attempt(2, 102, false, -1, at))
	// user 3: one correct (3 pts, 1 correct) -> ties user 1, registered later
	mustRecord(t, store, attempt(3, 100, true, 3, at))

	rows, err := store.TopN(context.Background(), domain.PeriodDaily, domain.DailyKey(at), 10)
	if err != nil {
		t.Fatalf("top n: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].DisplayName != "user2" || rows[1].DisplayName != "user1" || rows[2].DisplayName != "user3" {
		t.Fatalf("order = %s, %s, %s; want user2, user1, user3",
			rows[0].DisplayName, rows[1].DisplayName, rows[2].DisplayName)
	}
}

func TestAttemptHistoryPerQuestion(t *testing.T) {
	store := NewStore()
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	mustRecord(t, store, attempt(1, 100, false, -1, at))
	mustRecord(t, store, attempt(1, 100, true, 3, at.Add(2*time.Hour)))
	mustRecord(t, store, attempt(1, 200, true, 3, at.Add(3*time.Hour)))

	count, last, err := store.AttemptHistory(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("attempt history: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}
	if !last.Equal(at.Add(2 * time.Hour)) {
		t.Fatalf("last = %v, want %v", last, at.Add(2*time.Hour))
	}
}

func TestClearMonthlyLeavesOtherPeriods(t *testing.T) {
	store := NewStore()
	at := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	mustRecord(t, store, attempt(1, 100, true, 3, at))

	if err := store.ClearMonthly(context.Background()); err != nil {
		t.Fatalf("clear monthly: %v", err)
	}

	monthly, _ := store.TopN(context.Background(), domain.PeriodMonthly, domain.MonthlyKey(at), 10)
	if len(monthly) != 0 {
		t.Fatalf("monthly rows after clear = %d, want 0", len(monthly))
	}
	daily, _ := store.TopN(context.Background(), domain.PeriodDaily, domain.DailyKey(at), 10)
	if len(daily) != 1 {
		t.Fatalf("daily rows after clear = %d, want 1", len(daily))
	}
}

func TestRetentionDeletes(t *testing.T) {
	store := NewStore()
	old := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)

	mustRecord(t, store, attempt(1, 100, true, 3, old))
	mustRecord(t, store, attempt(1, 101, true, 3, recent))

	deleted, err := store.DeleteAnswersBefore(context.Background(), recent.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("delete answers: %v", err)
	}
	if deleted != 1 || store.AnswerCount() != 1 {
		t.Fatalf("deleted = %d, remaining = %d; want 1 and 1", deleted, store.AnswerCount())
	}

	pruned, err := store.PruneEntries(context.Background(), domain.PeriodDaily, domain.DailyKey(recent))
	if err != nil {
		t.Fatalf("prune entries: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("pruned = %d, want 1 (the June daily entry)", pruned)
	}
}

func mustRecord(t *testing.T, store *Store, rec quiz.AttemptRecord) {
	t.Helper()
	if err := store.RecordAttempt(context.Background(), rec); err != nil {
		t.Fatalf("record attempt: %v", err)
	}
}

func attempt(userID, questionID int64, correct bool, points int, at time.Time) quiz.AttemptRecord {
	correctIdx := 1
	selected := 1
	if !correct {
		selected = 0
	}
	return quiz.AttemptRecord{
		UserID:     userID,
		Username:   usernameFor(userID),
		QuestionID: questionID,
		Selected:   selected,
		Correct:    correctIdx,
		IsCorrect:  correct,
		Points:     points,
		At:         at,
	}
}

func usernameFor(id int64) string {
	switch id {
	case 1:
		return "user1"
	case 2:
		return "user2"
	default:
		return "user3"
	}
}
