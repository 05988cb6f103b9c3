package memory

import (
	"context"
	"sync"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/repository"
)

type EventRepository struct {
	mu     sync.Mutex
	events []entity.Event
}

var _ repository.EventRepository = (*EventRepository)(nil)

func NewEventRepository() *EventRepository {
	return &EventRepository{}
}

func (r *EventRepository) Create(_ context.Context, event *entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

// Events returns the log in arrival order.
func (r *EventRepository) Events() []entity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.Event, len(r.events))
	copy(out, r.events)
	return out
}
