// internal/repository/experiment_repository.go
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ErrDuplicateSlug is returned by Create when the slug is taken.
var ErrDuplicateSlug = errors.New("experiment slug already exists")

// uniqueViolation is the Postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

type ExperimentRepository interface {
	Create(ctx context.Context, experiment *entity.Experiment) error
	GetBySlug(ctx context.Context, slug string) (*entity.Experiment, error)
	List(ctx context.Context) ([]entity.Experiment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ExperimentStatus, updatedAt time.Time) error

	GetAssignment(ctx context.Context, experimentID uuid.UUID, sessionID string) (*entity.Assignment, error)
	// InsertAssignmentIfAbsent relies on the (experiment_id, session_id)
	// unique constraint. It reports false when another row already won.
	InsertAssignmentIfAbsent(ctx context.Context, assignment *entity.Assignment) (bool, error)
	CreateConversion(ctx context.Context, conversion *entity.Conversion) error
	GetVariantCounts(ctx context.Context, experimentID uuid.UUID) ([]entity.VariantCounts, error)
}

type experimentRepository struct {
	db *sqlx.DB
}

func NewExperimentRepository(db *sqlx.DB) ExperimentRepository {
	return &experimentRepository{db: db}
}

func (r *experimentRepository) Create(ctx context.Context, experiment *entity.Experiment) error {
	query := `
		INSERT INTO experiments (id, slug, name, status, variants, created_at, updated_at)
		VALUES (:id, :slug, :name, :status, :variants, :created_at, :updated_at)`

	_, err := r.db.NamedExecContext(ctx, query, experiment)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("failed to insert experiment: %w", err)
	}
	return nil
}

func (r *experimentRepository) GetBySlug(ctx context.Context, slug string) (*entity.Experiment, error) {
	var experiment entity.Experiment
	query := `SELECT id, slug, name, status, variants, created_at, updated_at FROM experiments WHERE slug = $1`

	err := r.db.GetContext(ctx, &experiment, query, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get experiment by slug: %w", err)
	}

	return &experiment, nil
}

func (r *experimentRepository) List(ctx context.Context) ([]entity.Experiment, error) {
	var experiments []entity.Experiment
	query := `SELECT id, slug, name, status, variants, created_at, updated_at FROM experiments ORDER BY created_at DESC`

	if err := r.db.SelectContext(ctx, &experiments, query); err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	return experiments, nil
}

func (r *experimentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ExperimentStatus, updatedAt time.Time) error {
	query := `UPDATE experiments SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to update experiment status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *experimentRepository) GetAssignment(ctx context.Context, experimentID uuid.UUID, sessionID string) (*entity.Assignment, error) {
	var assignment entity.Assignment
	query := `
		SELECT id, experiment_id, session_id, variant_id, created_at
		FROM experiment_assignments
		WHERE experiment_id = $1 AND session_id = $2`

	err := r.db.GetContext(ctx, &assignment, query, experimentID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &assignment, nil
}

func (r *experimentRepository) InsertAssignmentIfAbsent(ctx context.Context, assignment *entity.Assignment) (bool, error) {
	query := `
		INSERT INTO experiment_assignments (id, experiment_id, session_id, variant_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (experiment_id, session_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		assignment.ID, assignment.ExperimentID, assignment.SessionID, assignment.VariantID, assignment.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert assignment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

func (r *experimentRepository) CreateConversion(ctx context.Context, conversion *entity.Conversion) error {
	query := `
		INSERT INTO experiment_conversions (id, assignment_id, conversion_type, value, metadata, created_at)
		VALUES (:id, :assignment_id, :conversion_type, :value, :metadata, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, conversion); err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}
	return nil
}

func (r *experimentRepository) GetVariantCounts(ctx context.Context, experimentID uuid.UUID) ([]entity.VariantCounts, error) {
	query := `
		SELECT
			a.variant_id,
			COUNT(DISTINCT a.id) AS assignments,
			COUNT(c.id) AS conversions,
			COUNT(DISTINCT c.assignment_id) AS converted,
			COALESCE(SUM(c.value), 0) AS total_value
		FROM experiment_assignments a
		LEFT JOIN experiment_conversions c ON c.assignment_id = a.id
		WHERE a.experiment_id = $1
		GROUP BY a.variant_id`

	var counts []entity.VariantCounts
	if err := r.db.SelectContext(ctx, &counts, query, experimentID); err != nil {
		return nil, fmt.Errorf("failed to get variant counts: %w", err)
	}
	return counts, nil
}
