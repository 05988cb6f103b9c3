// Package memstore is the in-process stand-in for Redis when REDIS_HOST is
// unset. State lives for the life of the process and is not shared between
// replicas.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/dinerozz/tracking-backend/internal/service/redis"
)

// sweepEvery is how many writes pass between full expiry sweeps.
const sweepEvery = 1024

type entry struct {
	value   string
	expires time.Time
}

type sortedSet struct {
	scores  map[string]float64
	expires time.Time
}

type Store struct {
	clock quartz.Clock

	mu     sync.Mutex
	hits   map[string][]time.Time
	values map[string]entry
	sets   map[string]*sortedSet
	writes int
	// longest window seen by CheckRateLimit, bounds how long hits are kept
	maxWindow time.Duration
}

var _ redis.ServiceInterface = (*Store)(nil)

func New(clock quartz.Clock) *Store {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Store{
		clock:  clock,
		hits:   make(map[string][]time.Time),
		values: make(map[string]entry),
		sets:   make(map[string]*sortedSet),
	}
}

// CheckRateLimit keeps a sliding log of hits per key. Rejected hits are not
// recorded, so a client that backs off regains capacity after one window.
func (s *Store) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := s.clock.Now()
	cutoff := now.Add(-window)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick(now)
	if window > s.maxWindow {
		s.maxWindow = window
	}

	hits := s.hits[key]
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		s.hits[key] = kept
		return false, nil
	}
	s.hits[key] = append(kept, now)
	return true, nil
}

func (s *Store) GetString(_ context.Context, key string) (string, bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.values[key]
	if !ok {
		return "", false, nil
	}
	if !now.Before(e.expires) {
		delete(s.values, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *Store) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick(now)

	if e, ok := s.values[key]; ok && now.Before(e.expires) {
		return false, nil
	}
	s.values[key] = entry{value: value, expires: now.Add(ttl)}
	return true, nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	return nil
}

func (s *Store) IncrementScore(_ context.Context, key, member string, by float64, ttl time.Duration) error {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick(now)

	set, ok := s.sets[key]
	if !ok || !now.Before(set.expires) {
		set = &sortedSet{scores: make(map[string]float64)}
		s.sets[key] = set
	}
	set.scores[member] += by
	set.expires = now.Add(ttl)
	return nil
}

// TopScores orders like ZREVRANGE: score descending, then member descending.
func (s *Store) TopScores(_ context.Context, key string, count int64) ([]redis.ScoredMember, error) {
	now := s.clock.Now()

	s.mu.Lock()
	set, ok := s.sets[key]
	if !ok || !now.Before(set.expires) {
		s.mu.Unlock()
		return []redis.ScoredMember{}, nil
	}
	out := make([]redis.ScoredMember, 0, len(set.scores))
	for member, score := range set.scores {
		out = append(out, redis.ScoredMember{Member: member, Score: score})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Member > out[j].Member
	})
	if count >= 0 && int64(len(out)) > count {
		out = out[:count]
	}
	return out, nil
}

func (s *Store) Health(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// tick runs a full sweep every sweepEvery writes. Callers hold s.mu.
func (s *Store) tick(now time.Time) {
	s.writes++
	if s.writes%sweepEvery != 0 {
		return
	}
	for key, e := range s.values {
		if !now.Before(e.expires) {
			delete(s.values, key)
		}
	}
	for key, set := range s.sets {
		if !now.Before(set.expires) {
			delete(s.sets, key)
		}
	}
	for key, hits := range s.hits {
		if len(hits) == 0 || now.Sub(hits[len(hits)-1]) > s.maxWindow {
			delete(s.hits, key)
		}
	}
}
