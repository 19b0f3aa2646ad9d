package streak_test

import (
	"context"
	"errors"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/meditationmind/bloombot/internal/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory streak.Store over fixed days-ago values.
type memStore struct {
	mu       sync.Mutex
	days     []int
	records  map[[2]uint64]streak.Record
	consumed int
	upserts  int

	getErr    error
	daysErrAt int // index at which the day sequence fails, -1 for never
	upsertErr error
}

func newMemStore(days ...int) *memStore {
	return &memStore{
		days:      days,
		records:   make(map[[2]uint64]streak.Record),
		daysErrAt: -1,
	}
}

func (s *memStore) GetStreakRecord(_ context.Context, guildID, userID uint64) (streak.CacheState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}

	rec, ok := s.records[[2]uint64{guildID, userID}]
	if !ok {
		return streak.StateOf(nil), nil
	}

	return streak.StateOf(&rec), nil
}

func (s *memStore) ListDistinctActiveDays(
	_ context.Context, _, _ uint64, _ time.Time,
) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for i, d := range s.days {
			if i == s.daysErrAt {
				yield(0, errors.New("connection reset by peer"))
				return
			}

			s.mu.Lock()
			s.consumed++
			s.mu.Unlock()

			if !yield(d, nil) {
				return
			}
		}
	}
}

func (s *memStore) UpsertStreakRecord(_ context.Context, guildID, userID uint64, rec streak.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.upsertErr != nil {
		return s.upsertErr
	}

	s.records[[2]uint64{guildID, userID}] = rec
	s.upserts++

	return nil
}

func (s *memStore) seed(rec streak.Record) {
	s.records[[2]uint64{1, 2}] = rec
}

func compute(t *testing.T, store *memStore) streak.Result {
	t.Helper()

	result, err := streak.NewCalculator(store).Compute(t.Context(), 1, 2)
	require.NoError(t, err)

	return result
}

func TestGraceRule(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		days        []int
		wantCurrent int
	}{
		{name: "today and two days ago", days: []int{0, 2}, wantCurrent: 0},
		{name: "run ending two days ago", days: []int{2, 3, 4}, wantCurrent: 3},
		{name: "run ending three days ago", days: []int{3, 4, 5}, wantCurrent: 0},
		{name: "run ending yesterday", days: []int{1, 2}, wantCurrent: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := compute(t, newMemStore(tt.days...))
			assert.Equal(t, tt.wantCurrent, result.Current)
		})
	}
}

func TestSingleDayNormalizesToZero(t *testing.T) {
	t.Parallel()

	result := compute(t, newMemStore(0))
	assert.Equal(t, streak.Record{Current: 0, Longest: 0}, result.Record)
}

func TestConsecutiveRun(t *testing.T) {
	t.Parallel()

	result := compute(t, newMemStore(0, 1, 2, 3))
	assert.Equal(t, 4, result.Current)
	assert.Equal(t, 4, result.Longest)
}

func TestLongestNeverRegresses(t *testing.T) {
	t.Parallel()

	store := newMemStore(0, 1, 2)
	store.seed(streak.Record{Current: 0, Longest: 9})

	result := compute(t, store)
	assert.Equal(t, streak.PathIncremental, result.Path)
	assert.Equal(t, streak.Record{Current: 3, Longest: 9}, result.Record)
}

func TestIncrementalGrowsLongest(t *testing.T) {
	t.Parallel()

	store := newMemStore(0, 1, 2, 3, 4, 5, 9, 10, 11, 12, 13, 14, 15)
	store.seed(streak.Record{Current: 5, Longest: 5})

	result := compute(t, store)
	assert.Equal(t, streak.Record{Current: 6, Longest: 6}, result.Record)
	// Only the current run plus the first day after the gap is read
	assert.Equal(t, 7, result.DaysRead)
	assert.Equal(t, 7, store.consumed)
}

func TestBootstrapFindsLongestRun(t *testing.T) {
	t.Parallel()

	store := newMemStore(0, 1, 5, 6, 7, 10)

	result := compute(t, store)
	assert.Equal(t, streak.PathBootstrap, result.Path)
	assert.Equal(t, streak.Record{Current: 2, Longest: 3}, result.Record)
	assert.Equal(t, 6, store.consumed)
	assert.Equal(t, streak.Record{Current: 2, Longest: 3}, store.records[[2]uint64{1, 2}])
}

func TestBootstrapCountsBrokenFirstRun(t *testing.T) {
	t.Parallel()

	result := compute(t, newMemStore(4, 5, 6, 7, 20, 21))
	assert.Equal(t, streak.Record{Current: 0, Longest: 4}, result.Record)
}

func TestZeroCachedLongestBootstraps(t *testing.T) {
	t.Parallel()

	store := newMemStore(0, 1, 5, 6, 7)
	store.seed(streak.Record{Current: 0, Longest: 0})

	result := compute(t, store)
	assert.Equal(t, streak.PathBootstrap, result.Path)
	assert.Equal(t, 3, result.Longest)
}

func TestEmptyHistory(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed(streak.Record{Current: 4, Longest: 7})

	result := compute(t, store)
	assert.Equal(t, streak.PathEmpty, result.Path)
	assert.Equal(t, streak.Record{Current: 0, Longest: 7}, result.Record)
}

func TestDuplicateDaysCountOnce(t *testing.T) {
	t.Parallel()

	result := compute(t, newMemStore(0, 0, 1, 1, 2))
	assert.Equal(t, 3, result.Current)
}

func TestIdempotentWithoutNewSessions(t *testing.T) {
	t.Parallel()

	store := newMemStore(0, 1, 5, 6, 7, 10)

	first := compute(t, store)
	second := compute(t, store)

	assert.Equal(t, first.Record, second.Record)
	assert.Equal(t, streak.PathBootstrap, first.Path)
	assert.Equal(t, streak.PathIncremental, second.Path)
}

func TestFailuresDoNotWrite(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	tests := []struct {
		name  string
		setup func(*memStore)
	}{
		{name: "read cache", setup: func(s *memStore) { s.getErr = boom }},
		{name: "read days", setup: func(s *memStore) { s.daysErrAt = 2 }},
		{name: "write cache", setup: func(s *memStore) { s.upsertErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemStore(0, 1, 2, 3)
			tt.setup(store)

			_, err := streak.NewCalculator(store).Compute(t.Context(), 1, 2)
			require.ErrorIs(t, err, streak.ErrAggregationUnavailable)
			assert.Equal(t, 0, store.upserts)
			assert.Empty(t, store.records)
		})
	}
}

func TestEvaluateMatchesFullScan(t *testing.T) {
	t.Parallel()

	histories := [][]int{
		{0, 1, 2, 5, 6, 7, 8, 30},
		{1, 2, 5, 7, 8, 9},
		{2, 3, 10, 11, 12, 13, 14, 15},
		{0, 1},
		{4, 5, 6, 20, 21},
	}

	for _, days := range histories {
		bootstrap, err := streak.Evaluate(streak.Uncomputed{}, seq(days))
		require.NoError(t, err)
		require.Positive(t, bootstrap.Longest, "days %v", days)

		incremental, err := streak.Evaluate(streak.Bootstrapped{Record: bootstrap.Record}, seq(days))
		require.NoError(t, err)
		assert.Equal(t, streak.PathIncremental, incremental.Path, "days %v", days)
		assert.Equal(t, bootstrap.Record, incremental.Record, "days %v", days)
	}
}

func TestEvaluateWithoutRunsAlwaysScans(t *testing.T) {
	t.Parallel()

	for _, days := range [][]int{{1, 3, 5, 7}, {0}} {
		bootstrap, err := streak.Evaluate(streak.Uncomputed{}, seq(days))
		require.NoError(t, err)
		assert.Equal(t, streak.Record{}, bootstrap.Record, "days %v", days)

		again, err := streak.Evaluate(streak.Bootstrapped{Record: bootstrap.Record}, seq(days))
		require.NoError(t, err)
		assert.Equal(t, streak.PathBootstrap, again.Path, "days %v", days)
		assert.Equal(t, len(days), again.DaysRead, "days %v", days)
		assert.Equal(t, bootstrap.Record, again.Record, "days %v", days)
	}
}

func seq(days []int) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		for _, d := range days {
			if !yield(d, nil) {
				return
			}
		}
	}
}
