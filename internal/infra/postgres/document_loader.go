package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"adaptive-quiz-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// DocumentLoader loads the document catalog JSONB from Postgres.
type DocumentLoader struct {
	pool *pgxpool.Pool
}

func NewDocumentLoader(pool *pgxpool.Pool) *DocumentLoader {
	return &DocumentLoader{pool: pool}
}

func (l *DocumentLoader) LoadDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := l.pool.Query(ctx, `SELECT data FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc domain.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return out, nil
}
