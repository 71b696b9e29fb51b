package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

// Store is an in-memory implementation of quiz.Store used by unit tests. It
// mirrors the relational semantics: floor-at-zero point totals, per-period
// leaderboard entries and insertion-order tie-breaking.
type Store struct {
	mu      sync.RWMutex
	users   map[int64]*domain.User
	order   map[int64]int // user id -> insertion sequence, for tie-breaks
	seq     int
	answers []quiz.AttemptRecord
	entries map[entryKey]*entry
	tickets []domain.HelpTicket
}

type entryKey struct {
	userID int64
	period domain.PeriodType
	key    string
}

type entry struct {
	points   int
	correct  int
	answered int
}

func NewStore() *Store {
	return &Store{
		users:   make(map[int64]*domain.User),
		order:   make(map[int64]int),
		entries: make(map[entryKey]*entry),
	}
}

func (s *Store) RecordAttempt(ctx context.Context, rec quiz.AttemptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[rec.UserID]
	if !ok {
		u = &domain.User{ID: rec.UserID, RegisteredAt: rec.At}
		s.users[rec.UserID] = u
		s.order[rec.UserID] = s.seq
		s.seq++
	}
	if rec.Username != "" {
		u.Username = rec.Username
	}
	if rec.FirstName != "" {
		u.FirstName = rec.FirstName
	}

	u.QuestionsAnswered++
	if rec.IsCorrect {
		u.CorrectAnswers++
	}
	u.Points = clampZero(u.Points + rec.Points)
	u.Accuracy = float64(u.CorrectAnswers) * 100.0 / float64(u.QuestionsAnswered)
	u.LastActivity = rec.At

	s.answers = append(s.answers, rec)

	keys := domain.KeysAt(rec.At)
	for period, key := range map[domain.PeriodType]string{
		domain.PeriodDaily:   keys.Daily,
		domain.PeriodWeekly:  keys.Weekly,
		domain.PeriodMonthly: keys.Monthly,
	} {
		ek := entryKey{userID: rec.UserID, period: period, key: key}
		e, ok := s.entries[ek]
		if !ok {
			e = &entry{}
			s.entries[ek] = e
		}
		e.points = clampZero(e.points + rec.Points)
		e.answered++
		if rec.IsCorrect {
			e.correct++
		}
	}
	return nil
}

func (s *Store) AttemptHistory(ctx context.Context, userID, questionID int64) (int, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	var last time.Time
	for _, rec := range s.answers {
		if rec.UserID != userID || rec.QuestionID != questionID {
			continue
		}
		count++
		if rec.At.After(last) {
			last = rec.At
		}
	}
	return count, last, nil
}

func (s *Store) TopN(ctx context.Context, period domain.PeriodType, key string, n int) ([]domain.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type ranked struct {
		domain.Standing
		correct int
		order   int
	}
	var rows []ranked
	for ek, e := range s.entries {
		if ek.period != period || ek.key != key {
			continue
		}
		u := s.users[ek.userID]
		rows = append(rows, ranked{
			Standing: domain.Standing{
				DisplayName:       u.DisplayName(),
				Points:            e.points,
				QuestionsAnswered: e.answered,
				Accuracy:          float64(e.correct) * 100.0 / float64(max(1, e.answered)),
			},
			correct: e.correct,
			order:   s.order[ek.userID],
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].correct != rows[j].correct {
			return rows[i].correct > rows[j].correct
		}
		return rows[i].order < rows[j].order
	})

	if len(rows) > n {
		rows = rows[:n]
	}
	out := make([]domain.Standing, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Standing)
	}
	return out, nil
}

func (s *Store) UserStats(ctx context.Context, userID int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *u, nil
}

func (s *Store) ClearMonthly(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ek := range s.entries {
		if ek.period == domain.PeriodMonthly {
			delete(s.entries, ek)
		}
	}
	return nil
}

func (s *Store) DeleteAnswersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.answers[:0]
	var deleted int64
	for _, rec := range s.answers {
		if rec.At.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.answers = kept
	return deleted, nil
}

func (s *Store) PruneEntries(ctx context.Context, period domain.PeriodType, beforeKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for ek := range s.entries {
		if ek.period == period && ek.key < beforeKey {
			delete(s.entries, ek)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) RecordHelpTicket(ctx context.Context, ticket domain.HelpTicket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tickets = append(s.tickets, ticket)
	return nil
}

// Tickets returns a copy of the recorded help tickets.
func (s *Store) Tickets() []domain.HelpTicket {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.HelpTicket, len(s.tickets))
	copy(out, s.tickets)
	return out
}

// AnswerCount reports how many answer events are retained.
func (s *Store) AnswerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
