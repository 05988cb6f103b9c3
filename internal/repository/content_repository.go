// internal/repository/content_repository.go
package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ContentRepository touches the CMS-owned posts table. The tracking side only
// bumps view counters and reads titles; it never creates or deletes content.
type ContentRepository interface {
	IncrementViews(ctx context.Context, contentRef string) error
	Titles(ctx context.Context, contentRefs []string) (map[string]string, error)
}

type contentRepository struct {
	db *sqlx.DB
}

func NewContentRepository(db *sqlx.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) IncrementViews(ctx context.Context, contentRef string) error {
	query := `UPDATE posts SET view_count = view_count + 1 WHERE id::text = $1`

	if _, err := r.db.ExecContext(ctx, query, contentRef); err != nil {
		return fmt.Errorf("failed to increment content views: %w", err)
	}
	return nil
}

func (r *contentRepository) Titles(ctx context.Context, contentRefs []string) (map[string]string, error) {
	titles := make(map[string]string, len(contentRefs))
	if len(contentRefs) == 0 {
		return titles, nil
	}

	query := `SELECT id::text AS id, title FROM posts WHERE id::text = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(contentRefs))
	if err != nil {
		return nil, fmt.Errorf("failed to get content titles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, fmt.Errorf("failed to scan content title: %w", err)
		}
		titles[id] = title
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return titles, nil
}
