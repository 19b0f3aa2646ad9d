package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/meditationmind/bloombot/internal/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// blockingCompute blocks until released or until its context ends.
type blockingCompute struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingCompute() *blockingCompute {
	return &blockingCompute{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingCompute) compute(ctx context.Context, _, _ uint64) (streak.Result, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })

	select {
	case <-b.release:
	case <-ctx.Done():
		return streak.Result{}, ctx.Err()
	}

	return streak.Result{Record: streak.Record{Current: 4, Longest: 7}, Path: streak.PathIncremental}, nil
}

func newTestStreakService(fn func(ctx context.Context, guildID, userID uint64) (streak.Result, error)) *StreakService {
	return &StreakService{computeFn: fn, logger: zap.NewNop()}
}

func TestComputeSharedWorkOutlivesFirstCaller(t *testing.T) {
	t.Parallel()

	blocking := newBlockingCompute()
	s := newTestStreakService(blocking.compute)

	firstCtx, cancelFirst := context.WithCancel(t.Context())
	defer cancelFirst()

	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Compute(firstCtx, 1, 2)
		firstErr <- err
	}()

	<-blocking.started

	type outcome struct {
		result streak.Result
		err    error
	}

	second := make(chan outcome, 1)
	go func() {
		result, err := s.Compute(t.Context(), 1, 2)
		second <- outcome{result, err}
	}()

	// Let the second caller join the in-flight computation
	time.Sleep(100 * time.Millisecond)

	cancelFirst()

	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, streak.ErrAggregationUnavailable)
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("first caller did not return after cancellation")
	}

	close(blocking.release)

	select {
	case got := <-second:
		require.NoError(t, got.err)
		assert.Equal(t, streak.Record{Current: 4, Longest: 7}, got.result.Record)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not receive the shared result")
	}

	assert.Equal(t, int32(1), blocking.calls.Load())
}

func TestComputeReturnsSharedError(t *testing.T) {
	t.Parallel()

	s := newTestStreakService(func(context.Context, uint64, uint64) (streak.Result, error) {
		return streak.Result{}, streak.ErrAggregationUnavailable
	})

	_, err := s.Compute(t.Context(), 1, 2)
	require.ErrorIs(t, err, streak.ErrAggregationUnavailable)
}
