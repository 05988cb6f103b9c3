// Package memory holds in-process twins of the Postgres repositories. They
// back STORAGE_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/repository"
	"github.com/gofrs/uuid"
)

type VisitRepository struct {
	mu     sync.Mutex
	visits []entity.Visit
	index  map[uuid.UUID]int
}

var _ repository.VisitRepository = (*VisitRepository)(nil)

func NewVisitRepository() *VisitRepository {
	return &VisitRepository{index: make(map[uuid.UUID]int)}
}

func (r *VisitRepository) Create(_ context.Context, visit *entity.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.index[visit.ID] = len(r.visits)
	r.visits = append(r.visits, *visit)
	return nil
}

func (r *VisitRepository) AddDuration(_ context.Context, id uuid.UUID, seconds, ceiling int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return false, nil
	}
	r.visits[i].DurationSeconds = min(r.visits[i].DurationSeconds+seconds, ceiling)
	return true, nil
}

func (r *VisitRepository) ListSince(_ context.Context, since time.Time, limit int) ([]entity.Visit, error) {
	r.mu.Lock()
	matched := make([]entity.Visit, 0, len(r.visits))
	for _, v := range r.visits {
		if !v.CreatedAt.Before(since) {
			matched = append(matched, v)
		}
	}
	r.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	if limit >= 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Get returns a copy of the stored visit.
func (r *VisitRepository) Get(id uuid.UUID) (entity.Visit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[id]
	if !ok {
		return entity.Visit{}, false
	}
	return r.visits[i], true
}

func (r *VisitRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.visits)
}
