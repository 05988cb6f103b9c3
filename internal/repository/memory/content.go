package memory

import (
	"context"
	"sync"

	"github.com/dinerozz/tracking-backend/internal/repository"
)

type ContentRepository struct {
	mu     sync.Mutex
	views  map[string]int
	titles map[string]string
	// failWith makes IncrementViews fail, for exercising the counter path.
	failWith error
}

var _ repository.ContentRepository = (*ContentRepository)(nil)

func NewContentRepository() *ContentRepository {
	return &ContentRepository{
		views:  make(map[string]int),
		titles: make(map[string]string),
	}
}

func (r *ContentRepository) IncrementViews(_ context.Context, contentRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failWith != nil {
		return r.failWith
	}
	r.views[contentRef]++
	return nil
}

func (r *ContentRepository) Titles(_ context.Context, contentRefs []string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]string, len(contentRefs))
	for _, ref := range contentRefs {
		if title, ok := r.titles[ref]; ok {
			out[ref] = title
		}
	}
	return out, nil
}

func (r *ContentRepository) SetTitle(contentRef, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles[contentRef] = title
}

func (r *ContentRepository) Views(contentRef string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[contentRef]
}

func (r *ContentRepository) FailIncrements(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}
