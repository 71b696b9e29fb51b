package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"atenu-bots/internal/domain"
	"atenu-bots/internal/quiz"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                int64     `bun:"id,pk"`
	Username          string    `bun:"username"`
	FirstName         string    `bun:"first_name"`
	QuestionsAnswered int       `bun:"total_questions_answered"`
	CorrectAnswers    int       `bun:"total_correct_answers"`
	Points            int       `bun:"total_points"`
	Accuracy          float64   `bun:"accuracy_percentage"`
	LastActivity      time.Time `bun:"last_activity"`
	RegisteredAt      time.Time `bun:"registration_date"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:user_answers,alias:ua"`

	ID         int64     `bun:"id,pk,autoincrement"`
	UserID     int64     `bun:"user_id"`
	QuestionID int64     `bun:"question_id"`
	Selected   int       `bun:"selected_option"`
	Correct    int       `bun:"correct_option"`
	IsCorrect  bool      `bun:"is_correct"`
	Points     int       `bun:"points_awarded"`
	AnsweredAt time.Time `bun:"answered_at"`
}

type entryRow struct {
	bun.BaseModel `bun:"table:leaderboard_entries,alias:le"`

	ID                int64  `bun:"id,pk,autoincrement"`
	UserID            int64  `bun:"user_id"`
	PeriodType        string `bun:"period_type"`
	PeriodKey         string `bun:"period_key"`
	Points            int    `bun:"points"`
	CorrectAnswers    int    `bun:"correct_answers"`
	QuestionsAnswered int    `bun:"questions_answered"`
}

type ticketRow struct {
	bun.BaseModel `bun:"table:help_tickets,alias:ht"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    int64     `bun:"user_id"`
	Username  string    `bun:"username"`
	Command   string    `bun:"command"`
	CreatedAt time.Time `bun:"created_at"`
}

// Store is the Postgres-backed quiz.Store.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// RecordAttempt applies one scored answer inside a single transaction: the
// event row, the user's lifetime counters and the three period leaderboard
// entries. Point totals clamp at zero per update; a negative delta never
// banks debt against future points.
func (s *Store) RecordAttempt(ctx context.Context, rec quiz.AttemptRecord) error {
	keys := domain.KeysAt(rec.At)
	correctDelta := 0
	if rec.IsCorrect {
		correctDelta = 1
	}
	initialPoints := rec.Points
	if initialPoints < 0 {
		initialPoints = 0
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		user := &userRow{
			ID:           rec.UserID,
			Username:     rec.Username,
			FirstName:    rec.FirstName,
			LastActivity: rec.At,
			RegisteredAt: rec.At,
		}
		// Empty identity fields from Telegram never overwrite known ones.
		if _, err := tx.NewInsert().Model(user).
			On("CONFLICT (id) DO UPDATE").
			Set("username = COALESCE(NULLIF(EXCLUDED.username, ''), u.username)").
			Set("first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), u.first_name)").
			Set("last_activity = EXCLUDED.last_activity").
			Exec(ctx); err != nil {
			return fmt.Errorf("upsert user: %w", err)
		}

		// Accuracy is derived from the pre-update totals plus this attempt;
		// every right-hand side in one UPDATE sees the old row.
		if _, err := tx.NewUpdate().Model((*userRow)(nil)).
			Set("total_questions_answered = total_questions_answered + 1").
			Set("total_correct_answers = total_correct_answers + ?", correctDelta).
			Set("total_points = GREATEST(0, total_points + ?)", rec.Points).
			Set("accuracy_percentage = (total_correct_answers + ?) * 100.0 / (total_questions_answered + 1)", correctDelta).
			Where("id = ?", rec.UserID).
			Exec(ctx); err != nil {
			return fmt.Errorf("fold user counters: %w", err)
		}

		answer := &answerRow{
			UserID:     rec.UserID,
			QuestionID: rec.QuestionID,
			Selected:   rec.Selected,
			Correct:    rec.Correct,
			IsCorrect:  rec.IsCorrect,
			Points:     rec.Points,
			AnsweredAt: rec.At,
		}
		if _, err := tx.NewInsert().Model(answer).Exec(ctx); err != nil {
			return fmt.Errorf("insert answer event: %w", err)
		}

		for period, key := range map[domain.PeriodType]string{
			domain.PeriodDaily:   keys.Daily,
			domain.PeriodWeekly:  keys.Weekly,
			domain.PeriodMonthly: keys.Monthly,
		} {
			entry := &entryRow{
				UserID:            rec.UserID,
				PeriodType:        string(period),
				PeriodKey:         key,
				Points:            initialPoints,
				CorrectAnswers:    correctDelta,
				QuestionsAnswered: 1,
			}
			if _, err := tx.NewInsert().Model(entry).
				On("CONFLICT (user_id, period_type, period_key) DO UPDATE").
				Set("points = GREATEST(0, le.points + ?)", rec.Points).
				Set("correct_answers = le.correct_answers + ?", correctDelta).
				Set("questions_answered = le.questions_answered + 1").
				Exec(ctx); err != nil {
				return fmt.Errorf("upsert %s leaderboard entry: %w", period, err)
			}
		}
		return nil
	})
}

func (s *Store) AttemptHistory(ctx context.Context, userID, questionID int64) (int, time.Time, error) {
	var count int
	var last sql.NullTime
	err := s.db.NewSelect().Model((*answerRow)(nil)).
		ColumnExpr("count(*)").
		ColumnExpr("max(answered_at)").
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Scan(ctx, &count, &last)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("attempt history: %w", err)
	}
	return count, last.Time, nil
}

func (s *Store) TopN(ctx context.Context, period domain.PeriodType, key string, n int) ([]domain.Standing, error) {
	var rows []struct {
		UserID            int64  `bun:"user_id"`
		Username          string `bun:"username"`
		FirstName         string `bun:"first_name"`
		Points            int    `bun:"points"`
		CorrectAnswers    int    `bun:"correct_answers"`
		QuestionsAnswered int    `bun:"questions_answered"`
	}
	err := s.db.NewSelect().Model((*entryRow)(nil)).
		ColumnExpr("le.user_id, le.points, le.correct_answers, le.questions_answered").
		ColumnExpr("u.username, u.first_name").
		Join("JOIN users AS u ON u.id = le.user_id").
		Where("le.period_type = ? AND le.period_key = ?", string(period), key).
		OrderExpr("le.points DESC, le.correct_answers DESC, le.id ASC").
		Limit(n).
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("top %s standings: %w", period, err)
	}

	standings := make([]domain.Standing, 0, len(rows))
	for _, r := range rows {
		u := domain.User{ID: r.UserID, Username: r.Username, FirstName: r.FirstName}
		answered := r.QuestionsAnswered
		if answered < 1 {
			answered = 1
		}
		standings = append(standings, domain.Standing{
			DisplayName:       u.DisplayName(),
			Points:            r.Points,
			QuestionsAnswered: r.QuestionsAnswered,
			Accuracy:          float64(r.CorrectAnswers) * 100.0 / float64(answered),
		})
	}
	return standings, nil
}

func (s *Store) UserStats(ctx context.Context, userID int64) (domain.User, error) {
	row := new(userRow)
	err := s.db.NewSelect().Model(row).Where("u.id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("user stats: %w", err)
	}
	return domain.User{
		ID:                row.ID,
		Username:          row.Username,
		FirstName:         row.FirstName,
		QuestionsAnswered: row.QuestionsAnswered,
		CorrectAnswers:    row.CorrectAnswers,
		Points:            row.Points,
		Accuracy:          row.Accuracy,
		LastActivity:      row.LastActivity,
		RegisteredAt:      row.RegisteredAt,
	}, nil
}

func (s *Store) ClearMonthly(ctx context.Context) error {
	_, err := s.db.NewDelete().Model((*entryRow)(nil)).
		Where("period_type = ?", string(domain.PeriodMonthly)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("clear monthly leaderboard: %w", err)
	}
	return nil
}

func (s *Store) DeleteAnswersBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().Model((*answerRow)(nil)).
		Where("answered_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete old answers: %w", err)
	}
	return res.RowsAffected()
}

// PruneEntries relies on the period keys being zero-padded, so lexical
// comparison matches chronological order within one period type.
func (s *Store) PruneEntries(ctx context.Context, period domain.PeriodType, beforeKey string) (int64, error) {
	res, err := s.db.NewDelete().Model((*entryRow)(nil)).
		Where("period_type = ? AND period_key < ?", string(period), beforeKey).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune %s entries: %w", period, err)
	}
	return res.RowsAffected()
}

func (s *Store) RecordHelpTicket(ctx context.Context, ticket domain.HelpTicket) error {
	row := &ticketRow{
		UserID:    ticket.UserID,
		Username:  ticket.Username,
		Command:   ticket.Command,
		CreatedAt: ticket.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("record help ticket: %w", err)
	}
	return nil
}
