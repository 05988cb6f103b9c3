package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/coder/quartz"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerozz/tracking-backend/internal/entity"
	"github.com/dinerozz/tracking-backend/internal/repository/memory"
	"github.com/dinerozz/tracking-backend/internal/service/memstore"
	service "github.com/dinerozz/tracking-backend/internal/service/visit"
	"github.com/dinerozz/tracking-backend/pkg/apperror"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	svc     service.VisitService
	visits  *memory.VisitRepository
	content *memory.ContentRepository
	clock   *quartz.Mock
}

func newFixture(t *testing.T, window time.Duration) *fixture {
	t.Helper()

	clock := quartz.NewMock(t)
	clock.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	f := &fixture{
		visits:  memory.NewVisitRepository(),
		content: memory.NewContentRepository(),
		clock:   clock,
	}
	f.svc = service.NewVisitService(f.visits, f.content, memstore.New(clock), service.Options{
		DedupWindow: window,
		Clock:       clock,
		Logger:      discard,
	})
	return f
}

func ptr(s string) *string { return &s }

func TestInitVisit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	ctx := context.Background()

	id, err := f.svc.InitVisit(ctx, entity.InitVisitInput{
		ContentRef:  ptr("42"),
		Path:        "/posts/hello",
		Fingerprint: "fp",
		Referrer:    ptr("https://example.com/"),
		UserAgent:   "Mozilla/5.0 (iPhone) Mobile Safari/604.1",
	})
	require.NoError(t, err)

	visit, ok := f.visits.Get(id)
	require.True(t, ok)
	assert.Equal(t, "/posts/hello", visit.Path)
	assert.Equal(t, entity.DeviceMobile, visit.Device)
	assert.Equal(t, entity.BrowserSafari, visit.Browser)
	assert.Zero(t, visit.DurationSeconds)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), visit.CreatedAt)
	assert.Equal(t, 1, f.content.Views("42"))
}

func TestInitVisitWithoutContentRef(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)

	id, err := f.svc.InitVisit(context.Background(), entity.InitVisitInput{Path: "/about", Fingerprint: "fp"})
	require.NoError(t, err)

	visit, ok := f.visits.Get(id)
	require.True(t, ok)
	assert.Nil(t, visit.ContentRef)
	assert.Nil(t, visit.Referrer)
}

func TestInitVisitValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input entity.InitVisitInput
	}{
		{name: "missing path", input: entity.InitVisitInput{}},
		{name: "long path", input: entity.InitVisitInput{Path: "/" + strings.Repeat("a", 2048)}},
		{name: "long user agent", input: entity.InitVisitInput{Path: "/", UserAgent: strings.Repeat("u", 513)}},
		{name: "long content ref", input: entity.InitVisitInput{Path: "/", ContentRef: ptr(strings.Repeat("1", 101))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, 0)
			_, err := f.svc.InitVisit(context.Background(), tt.input)
			require.ErrorIs(t, err, apperror.ErrValidation)
			assert.Zero(t, f.visits.Count())
		})
	}
}

func TestInitVisitTruncatesReferrer(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	long := "https://example.com/" + strings.Repeat("é", 600)

	id, err := f.svc.InitVisit(context.Background(), entity.InitVisitInput{Path: "/", Referrer: &long})
	require.NoError(t, err)

	visit, _ := f.visits.Get(id)
	require.NotNil(t, visit.Referrer)
	assert.Equal(t, 512, utf8.RuneCountInString(*visit.Referrer))
	assert.True(t, strings.HasPrefix(long, *visit.Referrer))
	assert.True(t, utf8Valid(*visit.Referrer))

	short := "https://example.com/" + strings.Repeat("é", 400)
	id, err = f.svc.InitVisit(context.Background(), entity.InitVisitInput{Path: "/x", Referrer: &short})
	require.NoError(t, err)
	visit, _ = f.visits.Get(id)
	require.NotNil(t, visit.Referrer)
	assert.Equal(t, short, *visit.Referrer)
}

func TestInitVisitLimitsCountCharacters(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)

	_, err := f.svc.InitVisit(context.Background(), entity.InitVisitInput{
		Path:       "/" + strings.Repeat("ả", 2047),
		UserAgent:  strings.Repeat("ü", 512),
		ContentRef: ptr(strings.Repeat("ệ", 100)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.visits.Count())

	_, err = f.svc.InitVisit(context.Background(), entity.InitVisitInput{
		Path:       "/",
		ContentRef: ptr(strings.Repeat("ệ", 101)),
	})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestInitVisitCounterFailureKeepsVisit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	f.content.FailIncrements(errors.New("posts table locked"))

	id, err := f.svc.InitVisit(context.Background(), entity.InitVisitInput{Path: "/p", ContentRef: ptr("7")})
	require.NoError(t, err)

	_, ok := f.visits.Get(id)
	assert.True(t, ok)
	assert.Zero(t, f.content.Views("7"))
}

type brokenVisits struct {
	memory.VisitRepository
}

func (brokenVisits) Create(context.Context, *entity.Visit) error {
	return errors.New("connection reset")
}

func (brokenVisits) AddDuration(context.Context, uuid.UUID, int, int) (bool, error) {
	return false, errors.New("connection reset")
}

func TestInitVisitInsertFailureSkipsCounter(t *testing.T) {
	t.Parallel()

	content := memory.NewContentRepository()
	svc := service.NewVisitService(&brokenVisits{}, content, nil, service.Options{Logger: discard})

	_, err := svc.InitVisit(context.Background(), entity.InitVisitInput{Path: "/p", ContentRef: ptr("7")})
	require.ErrorIs(t, err, apperror.ErrStorage)
	assert.Zero(t, content.Views("7"))
}

func TestInitVisitDedup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 30*time.Minute)
	ctx := context.Background()
	input := entity.InitVisitInput{Path: "/posts/a", Fingerprint: "fp-1", ContentRef: ptr("1")}

	first, err := f.svc.InitVisit(ctx, input)
	require.NoError(t, err)

	f.clock.Advance(10 * time.Minute)
	second, err := f.svc.InitVisit(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.visits.Count())
	assert.Equal(t, 1, f.content.Views("1"))

	other := input
	other.Fingerprint = "fp-2"
	third, err := f.svc.InitVisit(ctx, other)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)

	f.clock.Advance(21 * time.Minute)
	fourth, err := f.svc.InitVisit(ctx, input)
	require.NoError(t, err)
	assert.NotEqual(t, first, fourth)
	assert.Equal(t, 3, f.visits.Count())
}

func TestInitVisitConcurrentDedup(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 30*time.Minute)
	ctx := context.Background()
	input := entity.InitVisitInput{Path: "/posts/a", Fingerprint: "fp", ContentRef: ptr("1")}

	ids := make([]uuid.UUID, 20)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := f.svc.InitVisit(ctx, input)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, f.visits.Count())
	assert.Equal(t, 1, f.content.Views("1"))
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

type flakyVisits struct {
	*memory.VisitRepository
	mu   sync.Mutex
	fail bool
}

func (v *flakyVisits) Create(ctx context.Context, visit *entity.Visit) error {
	v.mu.Lock()
	fail := v.fail
	v.fail = false
	v.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return v.VisitRepository.Create(ctx, visit)
}

func TestInitVisitInsertFailureReleasesDedupKey(t *testing.T) {
	t.Parallel()

	clock := quartz.NewMock(t)
	visits := &flakyVisits{VisitRepository: memory.NewVisitRepository(), fail: true}
	svc := service.NewVisitService(visits, memory.NewContentRepository(), memstore.New(clock), service.Options{
		DedupWindow: 30 * time.Minute,
		Clock:       clock,
		Logger:      discard,
	})
	input := entity.InitVisitInput{Path: "/p", Fingerprint: "fp"}

	_, err := svc.InitVisit(context.Background(), input)
	require.ErrorIs(t, err, apperror.ErrStorage)

	id, err := svc.InitVisit(context.Background(), input)
	require.NoError(t, err)
	_, ok := visits.Get(id)
	assert.True(t, ok)
}

func TestHeartbeatAccumulates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	ctx := context.Background()

	id, err := f.svc.InitVisit(ctx, entity.InitVisitInput{Path: "/"})
	require.NoError(t, err)

	last := 0
	for _, d := range []int{15, 15, 0, 30} {
		require.NoError(t, f.svc.Heartbeat(ctx, id.String(), d))
		visit, _ := f.visits.Get(id)
		assert.GreaterOrEqual(t, visit.DurationSeconds, last)
		last = visit.DurationSeconds
	}
	assert.Equal(t, 60, last)
}

func TestHeartbeatCeiling(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	ctx := context.Background()

	id, err := f.svc.InitVisit(ctx, entity.InitVisitInput{Path: "/"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Heartbeat(ctx, id.String(), 80000))
	require.NoError(t, f.svc.Heartbeat(ctx, id.String(), 80000))
	require.NoError(t, f.svc.Heartbeat(ctx, id.String(), 1<<40))

	visit, _ := f.visits.Get(id)
	assert.Equal(t, entity.MaxVisitDurationSeconds, visit.DurationSeconds)
}

func TestHeartbeatConcurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	ctx := context.Background()

	id, err := f.svc.InitVisit(ctx, entity.InitVisitInput{Path: "/"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.svc.Heartbeat(ctx, id.String(), 5)
		}()
	}
	wg.Wait()

	visit, _ := f.visits.Get(id)
	assert.Equal(t, 500, visit.DurationSeconds)
}

func TestHeartbeatEdgeCases(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 0)
	ctx := context.Background()

	unknown := uuid.Must(uuid.NewV4()).String()
	assert.NoError(t, f.svc.Heartbeat(ctx, unknown, 10))

	assert.ErrorIs(t, f.svc.Heartbeat(ctx, "not-a-uuid", 10), apperror.ErrValidation)

	id, err := f.svc.InitVisit(ctx, entity.InitVisitInput{Path: "/"})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.Heartbeat(ctx, id.String(), -5), apperror.ErrValidation)
}

func TestHeartbeatSwallowsStorageErrors(t *testing.T) {
	t.Parallel()

	svc := service.NewVisitService(&brokenVisits{}, memory.NewContentRepository(), nil, service.Options{Logger: discard})
	assert.NoError(t, svc.Heartbeat(context.Background(), uuid.Must(uuid.NewV4()).String(), 10))
}

func utf8Valid(s string) bool {
	return utf8.ValidString(s)
}
