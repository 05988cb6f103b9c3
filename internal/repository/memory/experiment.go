package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/repository"
	"github.com/gofrs/uuid"
)

type assignmentKey struct {
	experimentID uuid.UUID
	sessionID    string
}

type ExperimentRepository struct {
	mu          sync.Mutex
	experiments map[string]*entity.Experiment
	assignments map[assignmentKey]entity.Assignment
	conversions []entity.Conversion
}

var _ repository.ExperimentRepository = (*ExperimentRepository)(nil)

func NewExperimentRepository() *ExperimentRepository {
	return &ExperimentRepository{
		experiments: make(map[string]*entity.Experiment),
		assignments: make(map[assignmentKey]entity.Assignment),
	}
}

func (r *ExperimentRepository) Create(_ context.Context, experiment *entity.Experiment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.experiments[experiment.Slug]; ok {
		return repository.ErrDuplicateSlug
	}
	stored := *experiment
	stored.Variants = append(entity.Variants(nil), experiment.Variants...)
	r.experiments[experiment.Slug] = &stored
	return nil
}

func (r *ExperimentRepository) GetBySlug(_ context.Context, slug string) (*entity.Experiment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	experiment, ok := r.experiments[slug]
	if !ok {
		return nil, nil
	}
	out := *experiment
	return &out, nil
}

func (r *ExperimentRepository) List(_ context.Context) ([]entity.Experiment, error) {
	r.mu.Lock()
	out := make([]entity.Experiment, 0, len(r.experiments))
	for _, experiment := range r.experiments {
		out = append(out, *experiment)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Slug < out[j].Slug
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *ExperimentRepository) UpdateStatus(_ context.Context, id uuid.UUID, status entity.ExperimentStatus, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, experiment := range r.experiments {
		if experiment.ID == id {
			experiment.Status = status
			experiment.UpdatedAt = updatedAt
			return nil
		}
	}
	return sql.ErrNoRows
}

func (r *ExperimentRepository) GetAssignment(_ context.Context, experimentID uuid.UUID, sessionID string) (*entity.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignment, ok := r.assignments[assignmentKey{experimentID, sessionID}]
	if !ok {
		return nil, nil
	}
	return &assignment, nil
}

func (r *ExperimentRepository) InsertAssignmentIfAbsent(_ context.Context, assignment *entity.Assignment) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := assignmentKey{assignment.ExperimentID, assignment.SessionID}
	if _, ok := r.assignments[key]; ok {
		return false, nil
	}
	r.assignments[key] = *assignment
	return true, nil
}

func (r *ExperimentRepository) CreateConversion(_ context.Context, conversion *entity.Conversion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conversions = append(r.conversions, *conversion)
	return nil
}

func (r *ExperimentRepository) GetVariantCounts(_ context.Context, experimentID uuid.UUID) ([]entity.VariantCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byAssignment := make(map[uuid.UUID]string)
	counts := make(map[string]*entity.VariantCounts)
	var order []string
	for key, assignment := range r.assignments {
		if key.experimentID != experimentID {
			continue
		}
		byAssignment[assignment.ID] = assignment.VariantID
		c, ok := counts[assignment.VariantID]
		if !ok {
			c = &entity.VariantCounts{VariantID: assignment.VariantID}
			counts[assignment.VariantID] = c
			order = append(order, assignment.VariantID)
		}
		c.Assignments++
	}

	converted := make(map[uuid.UUID]bool)
	for _, conversion := range r.conversions {
		variantID, ok := byAssignment[conversion.AssignmentID]
		if !ok {
			continue
		}
		c := counts[variantID]
		c.Conversions++
		c.TotalValue += conversion.Value
		if !converted[conversion.AssignmentID] {
			converted[conversion.AssignmentID] = true
			c.Converted++
		}
	}

	sort.Strings(order)
	out := make([]entity.VariantCounts, 0, len(order))
	for _, id := range order {
		out = append(out, *counts[id])
	}
	return out, nil
}

// AssignmentCount reports how many assignments exist for an experiment.
func (r *ExperimentRepository) AssignmentCount(experimentID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key := range r.assignments {
		if key.experimentID == experimentID {
			n++
		}
	}
	return n
}

func (r *ExperimentRepository) Conversions() []entity.Conversion {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]entity.Conversion, len(r.conversions))
	copy(out, r.conversions)
	return out
}
