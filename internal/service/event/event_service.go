package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/gofrs/uuid"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/metrics"
	"github.com/dinerozz/tracking-backend/internal/repository"
	"github.com/dinerozz/tracking-backend/internal/service/redis"
	"github.com/dinerozz/tracking-backend/pkg/apperror"
)

const (
	maxSessionIDLen  = 100
	maxEventTypeLen  = 50
	maxTargetIDLen   = 100
	maxTargetSlugLen = 200
	maxMetadataBytes = 4096

	trendingTTL          = 48 * time.Hour
	defaultTrendingLimit = 10
	maxTrendingLimit     = 50
)

// TrendStore keeps the per-day trending counters.
type TrendStore interface {
	IncrementScore(ctx context.Context, key, member string, by float64, ttl time.Duration) error
	TopScores(ctx context.Context, key string, count int64) ([]redis.ScoredMember, error)
}

type EventService interface {
	// Record validates and appends an event. Storage failures are logged
	// and not returned.
	Record(ctx context.Context, req entity.RecordEventRequest) error
	Trending(ctx context.Context, limit int) ([]entity.TrendingItem, error)
}

type eventService struct {
	repo    repository.EventRepository
	trends  TrendStore
	clock   quartz.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewEventService(repo repository.EventRepository, trends TrendStore, clock quartz.Clock, logger *slog.Logger, m *metrics.Metrics) EventService {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &eventService{
		repo:    repo,
		trends:  trends,
		clock:   clock,
		logger:  logger,
		metrics: m,
	}
}

func (s *eventService) Record(ctx context.Context, req entity.RecordEventRequest) error {
	event, err := s.buildEvent(req)
	if err != nil {
		s.metrics.RecordEvent(metrics.ResultInvalid)
		return err
	}

	if err := s.repo.Create(ctx, event); err != nil {
		s.logger.Error("failed to record event",
			slog.String("event_type", event.EventType),
			slog.String("session_id", event.SessionID),
			slog.Any("error", err))
		s.metrics.RecordEvent(metrics.ResultDropped)
		return nil
	}
	s.metrics.RecordEvent(metrics.ResultOK)

	s.bumpTrending(ctx, event)
	return nil
}

func (s *eventService) Trending(ctx context.Context, limit int) ([]entity.TrendingItem, error) {
	if limit <= 0 {
		limit = defaultTrendingLimit
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	items := []entity.TrendingItem{}
	if s.trends == nil {
		return items, nil
	}

	top, err := s.trends.TopScores(ctx, trendingKey(s.clock.Now()), int64(limit))
	if err != nil {
		return nil, apperror.Storage("read trending", err)
	}
	for _, member := range top {
		items = append(items, entity.TrendingItem{Target: member.Member, Score: member.Score})
	}
	return items, nil
}

func (s *eventService) buildEvent(req entity.RecordEventRequest) (*entity.Event, error) {
	if req.SessionID == "" {
		return nil, apperror.Validation("sessionId is required")
	}
	if utf8.RuneCountInString(req.SessionID) > maxSessionIDLen {
		return nil, apperror.Validation("sessionId exceeds %d characters", maxSessionIDLen)
	}
	if req.EventType == "" {
		return nil, apperror.Validation("eventType is required")
	}
	if utf8.RuneCountInString(req.EventType) > maxEventTypeLen {
		return nil, apperror.Validation("eventType exceeds %d characters", maxEventTypeLen)
	}

	targetType := entity.TargetNone
	if req.TargetType != nil && *req.TargetType != "" {
		targetType = *req.TargetType
	}
	if !entity.ValidTargetTypes[targetType] {
		return nil, apperror.Validation("invalid targetType: %s", targetType)
	}

	targetID := req.TargetID.Ptr()
	if targetID != nil && utf8.RuneCountInString(*targetID) > maxTargetIDLen {
		return nil, apperror.Validation("targetId exceeds %d characters", maxTargetIDLen)
	}

	var targetSlug *string
	if req.TargetSlug != nil && *req.TargetSlug != "" {
		if utf8.RuneCountInString(*req.TargetSlug) > maxTargetSlugLen {
			return nil, apperror.Validation("targetSlug exceeds %d characters", maxTargetSlugLen)
		}
		targetSlug = req.TargetSlug
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = entity.Metadata{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return nil, apperror.Validation("metadata is not serializable")
	}
	if len(raw) > maxMetadataBytes {
		return nil, apperror.Validation("metadata exceeds %d bytes", maxMetadataBytes)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, apperror.Storage("generate event id", err)
	}

	return &entity.Event{
		ID:         id,
		SessionID:  req.SessionID,
		EventType:  req.EventType,
		TargetType: targetType,
		TargetID:   targetID,
		TargetSlug: targetSlug,
		Metadata:   metadata,
		CreatedAt:  s.clock.Now().UTC(),
	}, nil
}

func (s *eventService) bumpTrending(ctx context.Context, event *entity.Event) {
	if s.trends == nil || event.TargetType == entity.TargetNone {
		return
	}

	var target string
	switch {
	case event.TargetID != nil:
		target = *event.TargetID
	case event.TargetSlug != nil:
		target = *event.TargetSlug
	default:
		return
	}

	member := event.TargetType + ":" + target
	if err := s.trends.IncrementScore(ctx, trendingKey(event.CreatedAt), member, 1, trendingTTL); err != nil {
		s.logger.Warn("failed to bump trending", slog.String("member", member), slog.Any("error", err))
	}
}

func trendingKey(t time.Time) string {
	return "trending:" + t.UTC().Format(time.DateOnly)
}
