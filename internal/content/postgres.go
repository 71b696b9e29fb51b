package content

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"atenu-bots/internal/domain"
)

// PostgresSource loads quiz batch JSONB rows from Postgres.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) LoadBatches(ctx context.Context) ([]domain.QuizBatch, error) {
	rows, err := s.pool.Query(ctx, `SELECT data FROM quiz_batches ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load quiz batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.QuizBatch
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan quiz batch: %w", err)
		}
		var batch domain.QuizBatch
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal quiz batch: %w", err)
		}
		batches = append(batches, batch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quiz batches: %w", err)
	}
	if err := Validate(batches); err != nil {
		return nil, err
	}
	return batches, nil
}
