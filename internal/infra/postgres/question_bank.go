package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"

	"quiz-runner/internal/domain"
)

// QuestionBank loads locally hosted question sets from Postgres. Each
// category row holds the raw backend-shaped payload as JSONB; normalization
// happens here, at ingestion, same as for the remote API.
type QuestionBank struct {
	pool   *pgxpool.Pool
	timers domain.TimerDefaults
	log    *zap.Logger
}

func NewQuestionBank(pool *pgxpool.Pool, timers domain.TimerDefaults, log *zap.Logger) *QuestionBank {
	if log == nil {
		log = zap.NewNop()
	}
	return &QuestionBank{pool: pool, timers: timers, log: log}
}

type bankPayload struct {
	Category  string               `json:"category"`
	Questions []domain.RawQuestion `json:"questions"`
}

func (b *QuestionBank) FetchQuestions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	var raw []byte
	err := b.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE category_id=$1`, categoryID).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	var payload bankPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	category := payload.Category
	if category == "" {
		category = categoryID
	}
	return domain.NormalizeQuestions(category, payload.Questions, b.timers, b.log), nil
}

// Categories lists the categories present in the bank.
func (b *QuestionBank) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := b.pool.Query(ctx, `SELECT category_id, COALESCE(data->>'category', category_id) FROM question_sets ORDER BY category_id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
