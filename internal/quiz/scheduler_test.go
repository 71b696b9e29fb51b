package quiz_test

import (
	"errors"
	"math/rand"
	"testing"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

func TestCycleShowsEveryBatchOnce(t *testing.T) {
	sched := quiz.NewBatchSchedulerWithRand(threeBatches(), rand.New(rand.NewSource(1)))

	seen := map[int64]bool{}
	for i := 1; i <= 3; i++ {
		batch, pos, err := sched.Advance()
		if err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}
		if seen[batch.ID] {
			t.Fatalf("batch %d repeated within a cycle", batch.ID)
		}
		seen[batch.ID] = true
		if pos.Shown != i || pos.Total != 3 {
			t.Fatalf("position = %d/%d, want %d/3", pos.Shown, pos.Total, i)
		}
	}
	if sched.RemainingInCycle() != 0 {
		t.Fatalf("remaining = %d, want 0", sched.RemainingInCycle())
	}
}

func TestExhaustedCycleReshuffles(t *testing.T) {
	sched := quiz.NewBatchSchedulerWithRand(threeBatches(), rand.New(rand.NewSource(1)))

	for i := 0; i < 3; i++ {
		if _, _, err := sched.Advance(); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}

	batch, pos, err := sched.Advance()
	if err != nil {
		t.Fatalf("advance into new cycle: %v", err)
	}
	if pos.Shown != 1 || pos.Total != 3 {
		t.Fatalf("position = %d/%d, want 1/3", pos.Shown, pos.Total)
	}
	if batch.ID == 0 {
		t.Fatal("new cycle returned empty batch")
	}
}

func TestAdvanceWithoutData(t *testing.T) {
	sched := quiz.NewBatchScheduler(nil)

	_, _, err := sched.Advance()
	if !errors.Is(err, domain.ErrNoQuizData) {
		t.Fatalf("err = %v, want ErrNoQuizData", err)
	}
}

func TestCurrentTracksActiveBatch(t *testing.T) {
	sched := quiz.NewBatchSchedulerWithRand(threeBatches(), rand.New(rand.NewSource(7)))

	if _, _, ok := sched.Current(); ok {
		t.Fatal("current before first advance, want none")
	}

	advanced, _, err := sched.Advance()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	current, _, ok := sched.Current()
	if !ok {
		t.Fatal("no current batch after advance")
	}
	if current.ID != advanced.ID {
		t.Fatalf("current = %d, advanced = %d", current.ID, advanced.ID)
	}
}

func threeBatches() []domain.QuizBatch {
	return []domain.QuizBatch{
		{ID: 1, Title: "Algebra Basics"},
		{ID: 2, Title: "Photosynthesis"},
		{ID: 3, Title: "World Capitals"},
	}
}
