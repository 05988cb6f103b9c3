package service

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/gofrs/uuid"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/metrics"
	"github.com/dinerozz/tracking-backend/internal/repository"
	"github.com/dinerozz/tracking-backend/pkg/apperror"
)

const (
	maxPathLen       = 2048
	maxUserAgentLen  = 512
	maxReferrerLen   = 512
	maxContentRefLen = 100
)

// Deduper remembers recent visit ids per fingerprint and path.
type Deduper interface {
	GetString(ctx context.Context, key string) (string, bool, error)
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

type VisitService interface {
	InitVisit(ctx context.Context, input entity.InitVisitInput) (uuid.UUID, error)
	// Heartbeat adds seconds to the visit duration. Unknown visits and
	// storage failures are not reported.
	Heartbeat(ctx context.Context, visitID string, seconds int) error
}

type Options struct {
	// DedupWindow of zero disables duplicate suppression.
	DedupWindow time.Duration
	Clock       quartz.Clock
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

type visitService struct {
	visits  repository.VisitRepository
	content repository.ContentRepository
	dedup   Deduper
	window  time.Duration
	clock   quartz.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewVisitService(visits repository.VisitRepository, content repository.ContentRepository, dedup Deduper, opts Options) VisitService {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &visitService{
		visits:  visits,
		content: content,
		dedup:   dedup,
		window:  opts.DedupWindow,
		clock:   opts.Clock,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

func (s *visitService) InitVisit(ctx context.Context, input entity.InitVisitInput) (uuid.UUID, error) {
	if err := validateInit(input); err != nil {
		s.metrics.RecordView(entity.ViewKindInit, metrics.ResultInvalid)
		return uuid.Nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, apperror.Storage("generate visit id", err)
	}

	// The key is claimed before the insert so concurrent inits for the same
	// fingerprint and path collapse onto one visit.
	dedupKey := "visit:dedup:" + input.Fingerprint + ":" + input.Path
	held, existing := s.reserve(ctx, dedupKey, id)
	if existing != uuid.Nil {
		s.metrics.RecordView(entity.ViewKindInit, metrics.ResultDeduped)
		return existing, nil
	}

	visit := &entity.Visit{
		ID:          id,
		ContentRef:  input.ContentRef,
		Path:        input.Path,
		Fingerprint: input.Fingerprint,
		Referrer:    truncateReferrer(input.Referrer),
		Device:      ClassifyDevice(input.UserAgent),
		Browser:     ClassifyBrowser(input.UserAgent),
		CreatedAt:   s.clock.Now().UTC(),
	}

	if err := s.visits.Create(ctx, visit); err != nil {
		if held {
			s.release(ctx, dedupKey)
		}
		return uuid.Nil, apperror.Storage("create visit", err)
	}

	if input.ContentRef != nil {
		if err := s.content.IncrementViews(ctx, *input.ContentRef); err != nil {
			s.logger.Error("failed to increment content views",
				slog.String("content_ref", *input.ContentRef),
				slog.String("visit_id", id.String()),
				slog.Any("error", err))
		}
	}

	s.metrics.RecordView(entity.ViewKindInit, metrics.ResultOK)

	return id, nil
}

func (s *visitService) Heartbeat(ctx context.Context, visitID string, seconds int) error {
	id, err := uuid.FromString(visitID)
	if err != nil {
		s.metrics.RecordView(entity.ViewKindHeartbeat, metrics.ResultInvalid)
		return apperror.Validation("visitId must be a uuid")
	}
	if seconds < 0 {
		s.metrics.RecordView(entity.ViewKindHeartbeat, metrics.ResultInvalid)
		return apperror.Validation("seconds must not be negative")
	}
	if seconds == 0 {
		return nil
	}
	if seconds > entity.MaxVisitDurationSeconds {
		seconds = entity.MaxVisitDurationSeconds
	}

	found, err := s.visits.AddDuration(ctx, id, seconds, entity.MaxVisitDurationSeconds)
	if err != nil {
		s.logger.Error("failed to record heartbeat",
			slog.String("visit_id", visitID), slog.Any("error", err))
		s.metrics.RecordView(entity.ViewKindHeartbeat, metrics.ResultDropped)
		return nil
	}
	if !found {
		s.logger.Debug("heartbeat for unknown visit", slog.String("visit_id", visitID))
		s.metrics.RecordView(entity.ViewKindHeartbeat, metrics.ResultNotFound)
		return nil
	}

	s.metrics.RecordView(entity.ViewKindHeartbeat, metrics.ResultOK)
	return nil
}

// reserve claims key for id. It returns the id already stored under key when
// another init got there first, and held=true when this call owns the key.
// Store failures degrade to no dedup.
func (s *visitService) reserve(ctx context.Context, key string, id uuid.UUID) (held bool, existing uuid.UUID) {
	if s.dedup == nil || s.window <= 0 {
		return false, uuid.Nil
	}

	ok, err := s.dedup.SetIfAbsent(ctx, key, id.String(), s.window)
	if err != nil {
		s.logger.Warn("visit dedup store failed", slog.Any("error", err))
		return false, uuid.Nil
	}
	if ok {
		return true, uuid.Nil
	}

	raw, found, err := s.dedup.GetString(ctx, key)
	if err != nil {
		s.logger.Warn("visit dedup lookup failed", slog.Any("error", err))
		return false, uuid.Nil
	}
	if !found {
		return false, uuid.Nil
	}

	prior, err := uuid.FromString(raw)
	if err != nil {
		return false, uuid.Nil
	}
	return false, prior
}

func (s *visitService) release(ctx context.Context, key string) {
	if err := s.dedup.Delete(ctx, key); err != nil {
		s.logger.Warn("visit dedup release failed", slog.Any("error", err))
	}
}

func validateInit(input entity.InitVisitInput) error {
	if input.Path == "" {
		return apperror.Validation("path is required")
	}
	if utf8.RuneCountInString(input.Path) > maxPathLen {
		return apperror.Validation("path exceeds %d characters", maxPathLen)
	}
	if utf8.RuneCountInString(input.UserAgent) > maxUserAgentLen {
		return apperror.Validation("userAgent exceeds %d characters", maxUserAgentLen)
	}
	if input.ContentRef != nil && utf8.RuneCountInString(*input.ContentRef) > maxContentRefLen {
		return apperror.Validation("targetRef exceeds %d characters", maxContentRefLen)
	}
	return nil
}

// truncateReferrer keeps the first maxReferrerLen characters.
func truncateReferrer(referrer *string) *string {
	if referrer == nil || *referrer == "" {
		return nil
	}
	r := *referrer
	if utf8.RuneCountInString(r) <= maxReferrerLen {
		return &r
	}
	n := 0
	for i := range r {
		if n == maxReferrerLen {
			r = r[:i]
			break
		}
		n++
	}
	return &r
}
