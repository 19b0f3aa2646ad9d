// Package streak derives consecutive-day meditation streaks from the session log.
//
// A streak counts consecutive calendar days with at least one session. The most
// recent active day may be up to two days ago before the streak is considered
// broken, and a run shorter than two days counts as zero.
package streak

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"
)

const (
	// graceDays is the largest days-ago value of the latest session that keeps a streak alive.
	graceDays = 2
	// minStreakLength is the shortest run that counts as a streak.
	minStreakLength = 2
)

// ErrAggregationUnavailable is returned when the streak could not be computed
// because the underlying store failed.
var ErrAggregationUnavailable = errors.New("streak aggregation unavailable")

// Path tells which way a streak was computed.
type Path string

const (
	// PathEmpty means the member has no sessions.
	PathEmpty Path = "empty"
	// PathIncremental means only the current run was read and merged with the cached longest.
	PathIncremental Path = "incremental"
	// PathBootstrap means the full history was scanned for the longest run.
	PathBootstrap Path = "bootstrap"
)

// Result is a computed streak together with how it was obtained.
type Result struct {
	Record

	Path Path
	// DaysRead is the number of active days consumed from the log.
	DaysRead int
}

// Store is the data access needed to compute a streak.
type Store interface {
	// GetStreakRecord returns the cached streak state of the member.
	GetStreakRecord(ctx context.Context, guildID, userID uint64) (CacheState, error)
	// ListDistinctActiveDays yields distinct days-ago values in ascending order (most recent first).
	ListDistinctActiveDays(ctx context.Context, guildID, userID uint64, now time.Time) iter.Seq2[int, error]
	// UpsertStreakRecord replaces the cached streak of the member.
	UpsertStreakRecord(ctx context.Context, guildID, userID uint64, rec Record) error
}

// Calculator computes streaks against a Store.
type Calculator struct {
	store Store
	now   func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// NewCalculator creates a Calculator reading from and writing to store.
func NewCalculator(store Store, opts ...Option) *Calculator {
	c := &Calculator{
		store: store,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compute returns the member's current and longest streak and stores the result.
// Nothing is written unless every read succeeded.
func (c *Calculator) Compute(ctx context.Context, guildID, userID uint64) (Result, error) {
	state, err := c.store.GetStreakRecord(ctx, guildID, userID)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrAggregationUnavailable, err)
	}

	days := c.store.ListDistinctActiveDays(ctx, guildID, userID, c.now())

	result, err := Evaluate(state, days)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrAggregationUnavailable, err)
	}

	if err := c.store.UpsertStreakRecord(ctx, guildID, userID, result.Record); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrAggregationUnavailable, err)
	}

	return result, nil
}

// Evaluate computes a streak from the cache state and the ascending days-ago sequence.
//
// With a trusted cached longest only the most recent run is consumed. Otherwise the
// whole sequence is scanned once to find the longest run.
func Evaluate(state CacheState, days iter.Seq2[int, error]) (Result, error) {
	cachedLongest, fast := trustedLongest(state)

	var (
		seen     bool
		first    int // most recent days-ago
		last     int
		run      int
		firstRun int
		inFirst  = true
		longest  int
		read     int
	)

	for daysAgo, err := range days {
		if err != nil {
			return Result{}, err
		}

		read++

		switch {
		case !seen:
			seen = true
			first, last, run = daysAgo, daysAgo, 1
			continue
		case daysAgo == last:
			continue
		case daysAgo == last+1:
			run++
			last = daysAgo

			continue
		}

		// Gap ends the current run
		if inFirst {
			firstRun = run
			inFirst = false

			if fast {
				break
			}
		}

		longest = max(longest, normalize(run))
		run, last = 1, daysAgo
	}

	if !seen {
		return Result{
			Record:   Record{Current: 0, Longest: cachedLongest},
			Path:     PathEmpty,
			DaysRead: read,
		}, nil
	}

	if inFirst {
		firstRun = run
	}

	current := 0
	if first <= graceDays {
		current = normalize(firstRun)
	}

	if fast {
		return Result{
			Record:   Record{Current: current, Longest: max(cachedLongest, current)},
			Path:     PathIncremental,
			DaysRead: read,
		}, nil
	}

	return Result{
		Record:   Record{Current: current, Longest: max(longest, normalize(run))},
		Path:     PathBootstrap,
		DaysRead: read,
	}, nil
}

// normalize turns runs shorter than minStreakLength into zero.
func normalize(run int) int {
	if run < minStreakLength {
		return 0
	}

	return run
}
