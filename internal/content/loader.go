package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"atenu-bots/internal/domain"
)

// BatchSource loads the full quiz catalogue once at startup. Batches are
// immutable for the lifetime of the process.
type BatchSource interface {
	LoadBatches(ctx context.Context) ([]domain.QuizBatch, error)
}

// FileSource reads quiz batches from a JSON file of the form
// {"quiz_batches": [...]}.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) LoadBatches(ctx context.Context) ([]domain.QuizBatch, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read quiz content: %w", err)
	}
	var file struct {
		Batches []domain.QuizBatch `json:"quiz_batches"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse quiz content: %w", err)
	}
	if err := Validate(file.Batches); err != nil {
		return nil, err
	}
	return file.Batches, nil
}

// StaticSource serves a fixed batch slice, mainly for tests.
type StaticSource struct {
	batches []domain.QuizBatch
}

func NewStaticSource(batches []domain.QuizBatch) *StaticSource {
	return &StaticSource{batches: batches}
}

func (s *StaticSource) LoadBatches(ctx context.Context) ([]domain.QuizBatch, error) {
	if err := Validate(s.batches); err != nil {
		return nil, err
	}
	return s.batches, nil
}

// Validate rejects catalogues the bot cannot serve: empty data, batches
// without questions, questions without exactly four options or with a
// correct index outside them, and duplicate question ids across batches.
func Validate(batches []domain.QuizBatch) error {
	if len(batches) == 0 {
		return domain.ErrNoQuizData
	}
	seen := make(map[int64]int64)
	for _, batch := range batches {
		if len(batch.Questions) == 0 {
			return fmt.Errorf("batch %d has no questions", batch.ID)
		}
		for _, q := range batch.Questions {
			if len(q.Options) != 4 {
				return fmt.Errorf("question %d in batch %d has %d options, want 4", q.ID, batch.ID, len(q.Options))
			}
			if q.CorrectIndex < 0 || q.CorrectIndex > 3 {
				return fmt.Errorf("question %d in batch %d has correct index %d out of range", q.ID, batch.ID, q.CorrectIndex)
			}
			if prev, ok := seen[q.ID]; ok {
				return fmt.Errorf("question id %d appears in batches %d and %d", q.ID, prev, batch.ID)
			}
			seen[q.ID] = batch.ID
		}
	}
	return nil
}
