package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/basel-ax/fakedetect/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS generations (
		id            BIGSERIAL PRIMARY KEY,
		model_name    TEXT NOT NULL,
		model_version TEXT NOT NULL DEFAULT '',
		backend       TEXT NOT NULL DEFAULT '',
		uuid          TEXT NOT NULL,
		type          TEXT NOT NULL DEFAULT '',
		subdir        TEXT NOT NULL DEFAULT '',
		url           TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// GenerationRepository defines the interface for generation history access
type GenerationRepository interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, g *domain.Generation) error
	ListRecent(ctx context.Context, limit int) ([]domain.Generation, error)
}

// PostgresGenerationRepository implements GenerationRepository for PostgreSQL
type PostgresGenerationRepository struct {
	db *sql.DB
}

// NewPostgresGenerationRepository creates a new PostgreSQL generation repository
func NewPostgresGenerationRepository(db *sql.DB) *PostgresGenerationRepository {
	return &PostgresGenerationRepository{db: db}
}

// EnsureSchema creates the generations table if it does not exist
func (r *PostgresGenerationRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create generations table: %w", err)
	}
	return nil
}

// Save inserts a generation and fills in its ID and creation time
func (r *PostgresGenerationRepository) Save(ctx context.Context, g *domain.Generation) error {
	query := `
		INSERT INTO generations (model_name, model_version, backend, uuid, type, subdir, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		g.ModelName,
		g.ModelVersion,
		g.Backend,
		g.UUID,
		g.Type,
		g.Subdir,
		g.URL,
	).Scan(&g.ID, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert generation: %w", err)
	}
	return nil
}

// ListRecent returns the latest generations, newest first
func (r *PostgresGenerationRepository) ListRecent(ctx context.Context, limit int) ([]domain.Generation, error) {
	query := `
		SELECT id, model_name, model_version, backend, uuid, type, subdir, url, created_at
		FROM generations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var out []domain.Generation
	for rows.Next() {
		var g domain.Generation
		if err := rows.Scan(
			&g.ID,
			&g.ModelName,
			&g.ModelVersion,
			&g.Backend,
			&g.UUID,
			&g.Type,
			&g.Subdir,
			&g.URL,
			&g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
