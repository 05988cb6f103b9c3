// internal/repository/event_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/jmoiron/sqlx"
)

type EventRepository interface {
	Create(ctx context.Context, event *entity.Event) error
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Create(ctx context.Context, event *entity.Event) error {
	query := `
		INSERT INTO events (id, session_id, event_type, target_type, target_id, target_slug, metadata, created_at)
		VALUES (:id, :session_id, :event_type, :target_type, :target_id, :target_slug, :metadata, :created_at)`

	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}
