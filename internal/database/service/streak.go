package service

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/meditationmind/bloombot/internal/database/dbretry"
	"github.com/meditationmind/bloombot/internal/database/models"
	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/meditationmind/bloombot/internal/metrics"
	"github.com/meditationmind/bloombot/internal/streak"
	"github.com/sourcegraph/conc/pool"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// computeTimeout bounds one shared streak computation.
const computeTimeout = 30 * time.Second

// RebuildStats summarizes a streak rebuild.
type RebuildStats struct {
	Members int
	Rebuilt int64
	Failed  int64
}

// StreakService computes and maintains cached streaks.
type StreakService struct {
	db          *bun.DB
	streaks     *models.StreakModel
	meditations *models.MeditationModel
	tracking    *models.TrackingModel
	tracer      trace.Tracer
	group       singleflight.Group
	computeFn   func(ctx context.Context, guildID, userID uint64) (streak.Result, error)
	now         func() time.Time
	logger      *zap.Logger
}

// NewStreak creates a new streak service.
func NewStreak(
	db *bun.DB,
	streaks *models.StreakModel,
	meditations *models.MeditationModel,
	tracking *models.TrackingModel,
	logger *zap.Logger,
) *StreakService {
	s := &StreakService{
		db:          db,
		streaks:     streaks,
		meditations: meditations,
		tracking:    tracking,
		tracer:      otel.Tracer("github.com/meditationmind/bloombot/internal/database/service"),
		now:         time.Now,
		logger:      logger.Named("streak_service"),
	}
	s.computeFn = s.compute

	return s
}

// Compute returns the member's current and longest streak, refreshing the cache.
// Concurrent calls for the same member share one computation.
// Any storage failure is reported as streak.ErrAggregationUnavailable.
func (s *StreakService) Compute(ctx context.Context, guildID, userID uint64) (streak.Result, error) {
	key := strconv.FormatUint(guildID, 10) + ":" + strconv.FormatUint(userID, 10)

	ch := s.group.DoChan(key, func() (any, error) {
		// Shared by every waiter, so it does not end with the first caller's context
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), computeTimeout)
		defer cancel()

		return s.computeFn(shared, guildID, userID)
	})

	select {
	case <-ctx.Done():
		return streak.Result{}, fmt.Errorf("%w: %w", streak.ErrAggregationUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return streak.Result{}, res.Err
		}

		return res.Val.(streak.Result), nil
	}
}

func (s *StreakService) compute(ctx context.Context, guildID, userID uint64) (streak.Result, error) {
	ctx, span := s.tracer.Start(ctx, "streak.compute", trace.WithAttributes(
		attribute.String("guild_id", strconv.FormatUint(guildID, 10)),
		attribute.String("user_id", strconv.FormatUint(userID, 10)),
	))
	defer span.End()

	var result streak.Result

	err := dbretry.Transaction(ctx, s.db, func(ctx context.Context, tx bun.Tx) error {
		calc := streak.NewCalculator(&streakStore{idb: tx, service: s}, streak.WithClock(s.now))

		var err error

		result, err = calc.Compute(ctx, guildID, userID)

		return err
	})
	if err != nil {
		if !errors.Is(err, streak.ErrAggregationUnavailable) {
			err = fmt.Errorf("%w: %w", streak.ErrAggregationUnavailable, err)
		}

		metrics.StreakErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "streak computation failed")

		s.logger.Error("Failed to compute streak",
			zap.Uint64("guildID", guildID),
			zap.Uint64("userID", userID),
			zap.Error(err))

		return streak.Result{}, err
	}

	metrics.StreakComputations.WithLabelValues(string(result.Path)).Inc()
	span.SetAttributes(
		attribute.String("path", string(result.Path)),
		attribute.Int("days_read", result.DaysRead),
	)

	s.logger.Debug("Computed streak",
		zap.Uint64("guildID", guildID),
		zap.Uint64("userID", userID),
		zap.Int("current", result.Current),
		zap.Int("longest", result.Longest),
		zap.String("path", string(result.Path)),
		zap.Int("daysRead", result.DaysRead))

	return result, nil
}

// Reset removes the member's cached streak so the next computation scans the full history.
func (s *StreakService) Reset(ctx context.Context, guildID, userID uint64) (bool, error) {
	removed, err := s.streaks.Delete(ctx, guildID, userID)
	if err != nil {
		return false, err
	}

	s.logger.Info("Reset streak",
		zap.Uint64("guildID", guildID),
		zap.Uint64("userID", userID),
		zap.Bool("removed", removed))

	return removed, nil
}

// Rebuild drops the cached streaks of a guild, or of every guild when guildID is zero,
// and recomputes them with at most concurrency computations in flight.
// onProgress, if set, is called after each member with the number finished so far.
func (s *StreakService) Rebuild(
	ctx context.Context, guildID uint64, concurrency int, onProgress func(done, total int),
) (RebuildStats, error) {
	members, err := s.meditations.ListMembers(ctx, guildID)
	if err != nil {
		return RebuildStats{}, err
	}

	if _, err := s.streaks.DeleteByGuild(ctx, guildID); err != nil {
		return RebuildStats{}, err
	}

	stats := RebuildStats{Members: len(members)}

	var rebuilt, failed atomic.Int64

	p := pool.New().WithContext(ctx).WithMaxGoroutines(max(concurrency, 1))
	for _, member := range members {
		p.Go(func(ctx context.Context) error {
			if _, err := s.Compute(ctx, member.GuildID, member.UserID); err != nil {
				failed.Add(1)
			} else {
				rebuilt.Add(1)
			}

			if onProgress != nil {
				onProgress(int(rebuilt.Load()+failed.Load()), len(members))
			}

			return ctx.Err()
		})
	}

	err = p.Wait()
	stats.Rebuilt = rebuilt.Load()
	stats.Failed = failed.Load()

	s.logger.Info("Rebuilt streaks",
		zap.Uint64("guildID", guildID),
		zap.Int("members", stats.Members),
		zap.Int64("rebuilt", stats.Rebuilt),
		zap.Int64("failed", stats.Failed))

	return stats, err
}

// streakStore binds the streak models to a single transaction.
type streakStore struct {
	idb     bun.IDB
	service *StreakService
}

func (st *streakStore) GetStreakRecord(ctx context.Context, guildID, userID uint64) (streak.CacheState, error) {
	rec, err := st.service.streaks.Get(ctx, st.idb, guildID, userID)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return streak.StateOf(nil), nil
	}

	return streak.StateOf(&streak.Record{Current: rec.Current, Longest: rec.Longest}), nil
}

func (st *streakStore) ListDistinctActiveDays(
	ctx context.Context, guildID, userID uint64, now time.Time,
) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		offset, err := st.service.tracking.GetUTCOffset(ctx, st.idb, guildID, userID)
		if err != nil {
			yield(0, err)
			return
		}

		for daysAgo, err := range st.service.meditations.ActiveDays(ctx, st.idb, guildID, userID, offset, now) {
			if !yield(daysAgo, err) {
				return
			}
		}
	}
}

func (st *streakStore) UpsertStreakRecord(ctx context.Context, guildID, userID uint64, rec streak.Record) error {
	return st.service.streaks.Upsert(ctx, st.idb, &types.Streak{
		GuildID: guildID,
		UserID:  userID,
		Current: rec.Current,
		Longest: rec.Longest,
	})
}
