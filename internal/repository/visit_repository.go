// internal/repository/visit_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
)

type VisitRepository interface {
	Create(ctx context.Context, visit *entity.Visit) error
	// AddDuration atomically adds seconds to the visit duration, clamped to
	// ceiling. It reports false when the visit does not exist.
	AddDuration(ctx context.Context, id uuid.UUID, seconds, ceiling int) (bool, error)
	// ListSince returns at most limit visits created at or after since,
	// oldest first.
	ListSince(ctx context.Context, since time.Time, limit int) ([]entity.Visit, error)
}

type visitRepository struct {
	db *sqlx.DB
}

func NewVisitRepository(db *sqlx.DB) VisitRepository {
	return &visitRepository{db: db}
}

func (r *visitRepository) Create(ctx context.Context, visit *entity.Visit) error {
	query := `
		INSERT INTO visits (id, content_ref, path, fingerprint, referrer, device, browser, duration_seconds, created_at)
		VALUES (:id, :content_ref, :path, :fingerprint, :referrer, :device, :browser, :duration_seconds, :created_at)`

	_, err := r.db.NamedExecContext(ctx, query, visit)
	if err != nil {
		return fmt.Errorf("failed to insert visit: %w", err)
	}
	return nil
}

func (r *visitRepository) AddDuration(ctx context.Context, id uuid.UUID, seconds, ceiling int) (bool, error) {
	query := `UPDATE visits SET duration_seconds = LEAST(duration_seconds + $2, $3) WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, seconds, ceiling)
	if err != nil {
		return false, fmt.Errorf("failed to add visit duration: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *visitRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]entity.Visit, error) {
	query := `
		SELECT id, content_ref, path, fingerprint, referrer, device, browser, duration_seconds, created_at
		FROM visits
		WHERE created_at >= $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2`

	var visits []entity.Visit
	if err := r.db.SelectContext(ctx, &visits, query, since, limit); err != nil {
		return nil, fmt.Errorf("failed to list visits: %w", err)
	}

	return visits, nil
}
