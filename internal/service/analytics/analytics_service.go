package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/quartz"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/repository"
	"github.com/dinerozz/tracking-backend/pkg/apperror"
	"github.com/dinerozz/tracking-backend/pkg/utils"
)

const (
	PeriodToday = "today"
	Period7d    = "7d"
	Period30d   = "30d"
	PeriodYear  = "year"

	DefaultMaxRows = 10000
)

var periodDays = map[string]int{
	Period7d:   7,
	Period30d:  30,
	PeriodYear: 365,
}

type AnalyticsService interface {
	// Aggregate scans at most maxRows visits created at or after since. At
	// high volume the cap makes every figure an undercount; the snapshot's
	// Truncated flag reports when that happened.
	Aggregate(ctx context.Context, since time.Time, maxRows int) (*entity.AggregateSnapshot, error)
	AdminReport(ctx context.Context, period string) (*entity.AdminAnalyticsResponse, error)
}

type analyticsService struct {
	visits  repository.VisitRepository
	content repository.ContentRepository
	maxRows int
	clock   quartz.Clock
	logger  *slog.Logger
}

func NewAnalyticsService(visits repository.VisitRepository, content repository.ContentRepository, maxRows int, clock quartz.Clock, logger *slog.Logger) AnalyticsService {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &analyticsService{
		visits:  visits,
		content: content,
		maxRows: maxRows,
		clock:   clock,
		logger:  logger,
	}
}

func (s *analyticsService) Aggregate(ctx context.Context, since time.Time, maxRows int) (*entity.AggregateSnapshot, error) {
	if maxRows <= 0 {
		maxRows = s.maxRows
	}

	visits, err := s.visits.ListSince(ctx, since.UTC(), maxRows)
	if err != nil {
		return nil, apperror.Storage("list visits", err)
	}

	snapshot := Summarize(visits, maxRows)
	if snapshot.Truncated {
		s.logger.Warn("analytics scan hit row cap, figures undercount",
			slog.Time("since", since), slog.Int("max_rows", maxRows))
	}
	return snapshot, nil
}

func (s *analyticsService) AdminReport(ctx context.Context, period string) (*entity.AdminAnalyticsResponse, error) {
	now := s.clock.Now().UTC()
	since, period, err := PeriodStart(period, now)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.Aggregate(ctx, since, s.maxRows)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(snapshot.TopContent))
	for _, c := range snapshot.TopContent {
		refs = append(refs, c.ContentRef)
	}

	titles, err := s.content.Titles(ctx, refs)
	if err != nil {
		s.logger.Warn("failed to load content titles", slog.Any("error", err))
		titles = map[string]string{}
	}

	topPosts := make([]entity.TopPost, 0, len(snapshot.TopContent))
	for _, c := range snapshot.TopContent {
		title, ok := titles[c.ContentRef]
		if !ok || title == "" {
			title = c.ContentRef
		}
		topPosts = append(topPosts, entity.TopPost{
			ID:          c.ContentRef,
			Title:       title,
			Views:       c.Views,
			AvgDuration: c.AvgDuration,
		})
	}

	return &entity.AdminAnalyticsResponse{
		Period:     period,
		Range:      utils.FormatPeriod(since, now),
		Traffic:    snapshot.Traffic,
		Devices:    snapshot.Devices,
		TopPosts:   topPosts,
		TotalViews: snapshot.TotalViews,
		Truncated:  snapshot.Truncated,
	}, nil
}

// PeriodStart resolves a period name to the start of its window. An empty
// period means 7d.
func PeriodStart(period string, now time.Time) (time.Time, string, error) {
	if period == "" {
		period = Period7d
	}
	if period == PeriodToday {
		return utils.StartOfDayUTC(now), period, nil
	}
	days, ok := periodDays[period]
	if !ok {
		return time.Time{}, "", apperror.Validation("period must be one of today, 7d, 30d, year")
	}
	return utils.StartOfDayUTC(now.AddDate(0, 0, -days)), period, nil
}
