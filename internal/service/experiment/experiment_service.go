package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/gofrs/uuid"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/metrics"
	"github.com/dinerozz/tracking-backend/internal/repository"
	"github.com/dinerozz/tracking-backend/pkg/apperror"
	"github.com/dinerozz/tracking-backend/pkg/utils"
)

const (
	maxSlugLen           = 100
	maxSessionIDLen      = 100
	maxVariantIDLen      = 50
	maxConversionTypeLen = 50
	maxMetadataBytes     = 4096

	defaultConversionType = "conversion"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// transitions lists the allowed status changes. Completed is terminal.
var transitions = map[entity.ExperimentStatus][]entity.ExperimentStatus{
	entity.ExperimentDraft:  {entity.ExperimentActive, entity.ExperimentCompleted},
	entity.ExperimentActive: {entity.ExperimentCompleted},
}

type ExperimentService interface {
	CreateExperiment(ctx context.Context, req entity.CreateExperimentRequest) (*entity.Experiment, error)
	ListExperiments(ctx context.Context) ([]entity.Experiment, error)
	UpdateStatus(ctx context.Context, slug string, status entity.ExperimentStatus) (*entity.Experiment, error)
	GetResults(ctx context.Context, slug string) (*entity.ExperimentResults, error)

	// GetVariant returns the session's variant, assigning one on first call
	// to an active experiment. Unknown and inactive experiments without an
	// existing assignment yield nil.
	GetVariant(ctx context.Context, slug, sessionID string) (*string, error)
	RecordConversion(ctx context.Context, req entity.RecordConversionRequest) error
}

type experimentService struct {
	repo    repository.ExperimentRepository
	clock   quartz.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewExperimentService(repo repository.ExperimentRepository, clock quartz.Clock, logger *slog.Logger, m *metrics.Metrics) ExperimentService {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &experimentService{
		repo:    repo,
		clock:   clock,
		logger:  logger,
		metrics: m,
	}
}

func (s *experimentService) CreateExperiment(ctx context.Context, req entity.CreateExperimentRequest) (*entity.Experiment, error) {
	if len(req.Slug) > maxSlugLen || !slugPattern.MatchString(req.Slug) {
		return nil, apperror.Validation("slug must be lowercase letters, digits, '-' or '_' and at most %d characters", maxSlugLen)
	}

	variants, err := normalizeVariants(req.Variants)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = entity.ExperimentDraft
	}
	if !status.Valid() {
		return nil, apperror.Validation("invalid status: %s", status)
	}

	name := req.Name
	if name == "" {
		name = req.Slug
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, apperror.Storage("generate experiment id", err)
	}

	now := s.clock.Now().UTC()
	experiment := &entity.Experiment{
		ID:        id,
		Slug:      req.Slug,
		Name:      name,
		Status:    status,
		Variants:  variants,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, experiment); err != nil {
		if errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, apperror.Validation("experiment %q already exists", req.Slug)
		}
		return nil, apperror.Storage("create experiment", err)
	}

	s.logger.Info("experiment created",
		slog.String("slug", experiment.Slug),
		slog.String("status", string(experiment.Status)),
		slog.Int("variants", len(experiment.Variants)))

	return experiment, nil
}

func (s *experimentService) ListExperiments(ctx context.Context) ([]entity.Experiment, error) {
	experiments, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.Storage("list experiments", err)
	}
	if experiments == nil {
		experiments = []entity.Experiment{}
	}
	return experiments, nil
}

func (s *experimentService) UpdateStatus(ctx context.Context, slug string, status entity.ExperimentStatus) (*entity.Experiment, error) {
	if !status.Valid() {
		return nil, apperror.Validation("invalid status: %s", status)
	}

	experiment, err := s.mustGet(ctx, slug)
	if err != nil {
		return nil, err
	}

	if experiment.Status == status {
		return experiment, nil
	}
	if !canTransition(experiment.Status, status) {
		return nil, apperror.Validation("cannot move experiment from %s to %s", experiment.Status, status)
	}

	now := s.clock.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, experiment.ID, status, now); err != nil {
		return nil, apperror.Storage("update experiment status", err)
	}

	s.logger.Info("experiment status changed",
		slog.String("slug", slug),
		slog.String("from", string(experiment.Status)),
		slog.String("to", string(status)))

	experiment.Status = status
	experiment.UpdatedAt = now
	return experiment, nil
}

func (s *experimentService) GetResults(ctx context.Context, slug string) (*entity.ExperimentResults, error) {
	experiment, err := s.mustGet(ctx, slug)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.GetVariantCounts(ctx, experiment.ID)
	if err != nil {
		return nil, apperror.Storage("get variant counts", err)
	}

	byVariant := make(map[string]entity.VariantCounts, len(counts))
	for _, c := range counts {
		byVariant[c.VariantID] = c
	}

	results := &entity.ExperimentResults{
		Experiment: experiment,
		Variants:   make([]entity.VariantResult, 0, len(experiment.Variants)),
	}
	seen := make(map[string]bool, len(experiment.Variants))
	for _, v := range experiment.Variants {
		seen[v.ID] = true
		results.Variants = append(results.Variants, variantResult(v.ID, v.Weight, byVariant[v.ID]))
	}
	// assignments to variants that were later removed from the config
	for _, c := range counts {
		if !seen[c.VariantID] {
			results.Variants = append(results.Variants, variantResult(c.VariantID, 0, c))
		}
	}

	return results, nil
}

func (s *experimentService) GetVariant(ctx context.Context, slug, sessionID string) (*string, error) {
	if slug == "" {
		return nil, apperror.Validation("slug is required")
	}
	if sessionID == "" {
		return nil, apperror.Validation("sessionId is required")
	}
	if utf8.RuneCountInString(sessionID) > maxSessionIDLen {
		return nil, apperror.Validation("sessionId exceeds %d characters", maxSessionIDLen)
	}

	experiment, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperror.Storage("get experiment", err)
	}
	if experiment == nil {
		return nil, nil
	}

	existing, err := s.repo.GetAssignment(ctx, experiment.ID, sessionID)
	if err != nil {
		return nil, apperror.Storage("get assignment", err)
	}
	if existing != nil {
		s.metrics.RecordAssignment(metrics.AssignmentExisting)
		return &existing.VariantID, nil
	}

	if experiment.Status != entity.ExperimentActive {
		s.metrics.RecordAssignment(metrics.AssignmentInactive)
		return nil, nil
	}

	variantID := Bucket(experiment.ID.String(), sessionID, experiment.Variants)
	if variantID == "" {
		return nil, nil
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, apperror.Storage("generate assignment id", err)
	}

	inserted, err := s.repo.InsertAssignmentIfAbsent(ctx, &entity.Assignment{
		ID:           id,
		ExperimentID: experiment.ID,
		SessionID:    sessionID,
		VariantID:    variantID,
		CreatedAt:    s.clock.Now().UTC(),
	})
	if err != nil {
		return nil, apperror.Storage("insert assignment", err)
	}
	if inserted {
		s.metrics.RecordAssignment(metrics.AssignmentNew)
		return &variantID, nil
	}

	// lost the race; the committed row wins even if it disagrees with the hash
	committed, err := s.repo.GetAssignment(ctx, experiment.ID, sessionID)
	if err != nil {
		return nil, apperror.Storage("get assignment", err)
	}
	if committed == nil {
		return nil, apperror.Storage("get assignment", fmt.Errorf("assignment for %s missing after conflict", sessionID))
	}

	s.metrics.RecordAssignment(metrics.AssignmentRaceLost)
	return &committed.VariantID, nil
}

func (s *experimentService) RecordConversion(ctx context.Context, req entity.RecordConversionRequest) error {
	if req.ExperimentSlug == "" {
		return apperror.Validation("experimentSlug is required")
	}
	if req.SessionID == "" {
		return apperror.Validation("sessionId is required")
	}
	if utf8.RuneCountInString(req.SessionID) > maxSessionIDLen {
		return apperror.Validation("sessionId exceeds %d characters", maxSessionIDLen)
	}

	conversionType := defaultConversionType
	if req.ConversionType != nil && *req.ConversionType != "" {
		conversionType = *req.ConversionType
	}
	if utf8.RuneCountInString(conversionType) > maxConversionTypeLen {
		return apperror.Validation("conversionType exceeds %d characters", maxConversionTypeLen)
	}

	var value float64
	if req.ConversionValue != nil {
		value = *req.ConversionValue
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = entity.Metadata{}
	}
	if raw, err := json.Marshal(metadata); err != nil || len(raw) > maxMetadataBytes {
		return apperror.Validation("metadata must be a JSON object of at most %d bytes", maxMetadataBytes)
	}

	experiment, err := s.mustGet(ctx, req.ExperimentSlug)
	if err != nil {
		return err
	}

	assignment, err := s.repo.GetAssignment(ctx, experiment.ID, req.SessionID)
	if err != nil {
		return apperror.Storage("get assignment", err)
	}
	if assignment == nil {
		return apperror.NotFound("no assignment for session in experiment %q", req.ExperimentSlug)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return apperror.Storage("generate conversion id", err)
	}

	err = s.repo.CreateConversion(ctx, &entity.Conversion{
		ID:             id,
		AssignmentID:   assignment.ID,
		ConversionType: conversionType,
		Value:          value,
		Metadata:       metadata,
		CreatedAt:      s.clock.Now().UTC(),
	})
	if err != nil {
		return apperror.Storage("create conversion", err)
	}

	return nil
}

func (s *experimentService) mustGet(ctx context.Context, slug string) (*entity.Experiment, error) {
	experiment, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperror.Storage("get experiment", err)
	}
	if experiment == nil {
		return nil, apperror.NotFound("experiment %q not found", slug)
	}
	return experiment, nil
}

// normalizeVariants rejects empty, duplicate and negative entries. When every
// weight is zero the variants split traffic evenly.
func normalizeVariants(in entity.Variants) (entity.Variants, error) {
	if len(in) == 0 {
		return nil, apperror.Validation("at least one variant is required")
	}

	out := make(entity.Variants, len(in))
	seen := make(map[string]bool, len(in))
	allZero := true
	for i, v := range in {
		if v.ID == "" || utf8.RuneCountInString(v.ID) > maxVariantIDLen {
			return nil, apperror.Validation("variant id must be 1-%d characters", maxVariantIDLen)
		}
		if seen[v.ID] {
			return nil, apperror.Validation("duplicate variant id: %s", v.ID)
		}
		if v.Weight < 0 {
			return nil, apperror.Validation("variant %s has a negative weight", v.ID)
		}
		if v.Weight > 0 {
			allZero = false
		}
		seen[v.ID] = true
		out[i] = v
	}

	if allZero {
		for i := range out {
			out[i].Weight = 1
		}
	}
	return out, nil
}

func canTransition(from, to entity.ExperimentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func variantResult(id string, weight int, c entity.VariantCounts) entity.VariantResult {
	var rate float64
	if c.Assignments > 0 {
		rate = utils.RoundToTwoDecimals(float64(c.Converted) / float64(c.Assignments) * 100)
	}
	return entity.VariantResult{
		VariantID:      id,
		Weight:         weight,
		Assignments:    c.Assignments,
		Conversions:    c.Conversions,
		Converted:      c.Converted,
		ConversionRate: rate,
		TotalValue:     utils.RoundToTwoDecimals(c.TotalValue),
	}
}
