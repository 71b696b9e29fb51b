package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"atenu-bots/internal/domain"
)

// Scoring: +3 for a correct answer (+2 correct, +1 participation), -1 for an
// incorrect one (-2 wrong, +1 participation). Totals are floored at zero by
// the store, never by rejecting the delta.
const (
	correctPoints   = 3
	incorrectPoints = -1
)

// AttemptSubmission is one decoded answer click.
type AttemptSubmission struct {
	UserID       int64
	Username     string
	FirstName    string
	QuestionID   int64
	Selected     int
	CorrectIndex int
}

// Outcome reports what the engine did with a submission. When Allowed is
// false only CooldownMessage is meaningful.
type Outcome struct {
	Allowed         bool
	CooldownMessage string
	IsCorrect       bool
	Points          int
}

// Engine decides whether an answer attempt is allowed under the progressive
// cooldown policy, scores it, and records it through the store.
type Engine struct {
	store Store
	clock func() time.Time

	// OnRecorded, when set, runs after a successful record with the period
	// keys the attempt was folded into. Used to invalidate cached views.
	OnRecorded func(ctx context.Context, keys domain.PeriodKeys)

	locks sync.Map // "userID:questionID" -> *sync.Mutex
}

func NewEngine(store Store) *Engine {
	return NewEngineWithClock(store, time.Now)
}

// NewEngineWithClock allows deterministic timestamps in tests.
func NewEngineWithClock(store Store, clock func() time.Time) *Engine {
	return &Engine{store: store, clock: clock}
}

// SubmitAnswer serializes the cooldown check and the recording for one
// (user, question) pair, so a double-click cannot sneak two first attempts
// through. A store failure while recording is returned to the caller and
// leaves the cooldown state untouched.
func (e *Engine) SubmitAnswer(ctx context.Context, sub AttemptSubmission) (Outcome, error) {
	mu := e.pairLock(sub.UserID, sub.QuestionID)
	mu.Lock()
	defer mu.Unlock()

	allowed, message := e.EvaluateAttempt(ctx, sub.UserID, sub.QuestionID)
	if !allowed {
		return Outcome{Allowed: false, CooldownMessage: message}, nil
	}

	isCorrect := sub.Selected == sub.CorrectIndex
	points := incorrectPoints
	if isCorrect {
		points = correctPoints
	}

	now := e.clock()
	rec := AttemptRecord{
		UserID:     sub.UserID,
		Username:   sub.Username,
		FirstName:  sub.FirstName,
		QuestionID: sub.QuestionID,
		Selected:   sub.Selected,
		Correct:    sub.CorrectIndex,
		IsCorrect:  isCorrect,
		Points:     points,
		At:         now,
	}
	if err := e.store.RecordAttempt(ctx, rec); err != nil {
		slog.Error("failed to record answer attempt",
			slog.Int64("user_id", sub.UserID),
			slog.Int64("question_id", sub.QuestionID),
			slog.Any("error", err))
		return Outcome{}, err
	}

	if e.OnRecorded != nil {
		e.OnRecorded(ctx, domain.KeysAt(now))
	}

	return Outcome{
		Allowed:         true,
		CooldownMessage: message,
		IsCorrect:       isCorrect,
		Points:          points,
	}, nil
}

// EvaluateAttempt applies the progressive cooldown ladder: the first attempt
// is free, the second needs 1h since the first, the third 6h, and every one
// after that 24h since the immediately preceding attempt. A store error here
// fails open: availability beats strict abuse prevention in that window.
func (e *Engine) EvaluateAttempt(ctx context.Context, userID, questionID int64) (bool, string) {
	attempts, last, err := e.store.AttemptHistory(ctx, userID, questionID)
	if err != nil {
		slog.Warn("cooldown check failed, allowing attempt",
			slog.Int64("user_id", userID),
			slog.Int64("question_id", questionID),
			slog.Any("error", err))
		return true, "✅ Proceeding (error occurred)"
	}

	if attempts == 0 {
		return true, "✅ First attempt"
	}

	cooldown, nextWait := cooldownTier(attempts)
	elapsed := e.clock().Sub(last)
	if elapsed < cooldown {
		remaining := cooldown - elapsed
		hours := int(remaining.Hours())
		minutes := int(remaining.Minutes()) % 60
		return false, fmt.Sprintf("⏳ Wait %dh %dm before retry #%d (next: %s)", hours, minutes, attempts+1, nextWait)
	}
	return true, fmt.Sprintf("✅ Retry #%d allowed (next wait: %s)", attempts+1, nextWait)
}

// cooldownTier maps the number of prior attempts to the wait required before
// the next one and the tier a further retry would face.
func cooldownTier(attempts int) (time.Duration, string) {
	switch attempts {
	case 1:
		return time.Hour, "6 hours"
	case 2:
		return 6 * time.Hour, "24 hours"
	default:
		return 24 * time.Hour, "24 hours"
	}
}

func (e *Engine) pairLock(userID, questionID int64) *sync.Mutex {
	key := fmt.Sprintf("%d:%d", userID, questionID)
	mu, _ := e.locks.LoadOrStore(key, &sync.Mutex{})
	return mu.(*sync.Mutex)
}
