package quiz

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"atenu-bots/internal/domain"
)

// CyclePosition locates the active batch within the current shuffled cycle.
type CyclePosition struct {
	Shown int // 1-based position of the active batch
	Total int
}

// BatchSender delivers one batch to a set of chats. Implementations tolerate
// per-chat failure: one broken chat must not stop the rest.
type BatchSender interface {
	SendBatch(ctx context.Context, chats []int64, batch domain.QuizBatch, pos CyclePosition)
}

// BatchScheduler owns the shuffled non-repeating batch cycle. State lives on
// the value, is rebuilt with a fresh shuffle on restart, and is never
// persisted: batch order is a fairness heuristic, not a correctness guarantee.
type BatchScheduler struct {
	mu      sync.Mutex
	batches []domain.QuizBatch
	pending []int // shuffled indices not yet shown this cycle
	active  int   // index into batches, -1 when nothing is active
	rnd     *rand.Rand
}

func NewBatchScheduler(batches []domain.QuizBatch) *BatchScheduler {
	return NewBatchSchedulerWithRand(batches, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewBatchSchedulerWithRand allows a seeded source for deterministic tests.
func NewBatchSchedulerWithRand(batches []domain.QuizBatch, rnd *rand.Rand) *BatchScheduler {
	s := &BatchScheduler{batches: batches, active: -1, rnd: rnd}
	s.reshuffleLocked()
	return s
}

// Advance pops the next batch from the shuffled queue and makes it active,
// reshuffling the full deck first when the queue has been exhausted.
func (s *BatchScheduler) Advance() (domain.QuizBatch, CyclePosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.batches) == 0 {
		return domain.QuizBatch{}, CyclePosition{}, domain.ErrNoQuizData
	}
	if len(s.pending) == 0 {
		slog.Info("all quiz batches completed, starting new random cycle",
			slog.Int("total_batches", len(s.batches)))
		s.reshuffleLocked()
	}

	s.active = s.pending[0]
	s.pending = s.pending[1:]
	return s.batches[s.active], s.positionLocked(), nil
}

// Current returns the active batch, if any. An out-of-range active index
// (quiz data swapped at runtime) self-heals to no-active-batch instead of
// wedging the periodic job.
func (s *BatchScheduler) Current() (domain.QuizBatch, CyclePosition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active < 0 {
		return domain.QuizBatch{}, CyclePosition{}, false
	}
	if s.active >= len(s.batches) {
		slog.Error("active batch index out of range, resetting",
			slog.Int("active", s.active),
			slog.Int("total_batches", len(s.batches)))
		s.active = -1
		return domain.QuizBatch{}, CyclePosition{}, false
	}
	return s.batches[s.active], s.positionLocked(), true
}

// BatchCount reports the total number of loaded batches.
func (s *BatchScheduler) BatchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

// RemainingInCycle reports how many batches are still unshown this cycle.
func (s *BatchScheduler) RemainingInCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *BatchScheduler) reshuffleLocked() {
	s.pending = s.pending[:0]
	for i := range s.batches {
		s.pending = append(s.pending, i)
	}
	s.rnd.Shuffle(len(s.pending), func(i, j int) {
		s.pending[i], s.pending[j] = s.pending[j], s.pending[i]
	})
}

func (s *BatchScheduler) positionLocked() CyclePosition {
	return CyclePosition{
		Shown: len(s.batches) - len(s.pending),
		Total: len(s.batches),
	}
}

// RunPosting drives the periodic quiz job: one batch shortly after startup,
// then one every interval. Send failures are the sender's problem per chat;
// the schedule itself never stops until ctx does.
func (s *BatchScheduler) RunPosting(ctx context.Context, sender BatchSender, chats []int64, interval, initialDelay time.Duration) {
	timer := time.NewTimer(initialDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		s.postNext(ctx, sender, chats)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.postNext(ctx, sender, chats)
		}
	}
}

func (s *BatchScheduler) postNext(ctx context.Context, sender BatchSender, chats []int64) {
	batch, pos, err := s.Advance()
	if err != nil {
		slog.Error("cannot advance quiz batch", slog.Any("error", err))
		return
	}
	sender.SendBatch(ctx, chats, batch, pos)
	slog.Info("posted scheduled quiz batch",
		slog.Int64("batch_id", batch.ID),
		slog.String("title", batch.Title),
		slog.Int("cycle_position", pos.Shown),
		slog.Int("cycle_total", pos.Total),
		slog.Int("remaining_in_cycle", s.RemainingInCycle()))
}
