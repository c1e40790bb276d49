package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) StoreExchange(ctx context.Context, deviceID, tier, kind string, estimatedTokens int, promptTokens, completionTokens *int) (string, error) {
	query := `
		INSERT INTO chat_exchanges (id, device_id, tier, kind, estimated_tokens, prompt_tokens, completion_tokens, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id
	`

	var exchangeID string
	err := r.db.GetContext(ctx, &exchangeID, query, uuid.NewString(), deviceID, tier, kind, estimatedTokens, promptTokens, completionTokens)
	if err != nil {
		return "", fmt.Errorf("не удалось сохранить обмен с моделью: %w", err)
	}

	return exchangeID, nil
}

func (r *Repository) GetTotals(ctx context.Context, deviceID string, since time.Time) (*Totals, error) {
	query := `
		SELECT
			COUNT(*) as exchanges,
			COALESCE(SUM(estimated_tokens), 0) as estimated_tokens,
			COALESCE(SUM(prompt_tokens), 0) as prompt_tokens,
			COALESCE(SUM(completion_tokens), 0) as completion_tokens
		FROM chat_exchanges
		WHERE device_id = $1 AND created_at >= $2
	`

	var totals Totals
	err := r.db.GetContext(ctx, &totals, query, deviceID, since)
	if err != nil {
		return nil, fmt.Errorf("не удалось получить статистику использования: %w", err)
	}

	return &totals, nil
}
