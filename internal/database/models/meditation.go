package models

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/meditationmind/bloombot/internal/database/dbretry"
	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// MeditationModel reads the session log.
type MeditationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewMeditation creates a new MeditationModel.
func NewMeditation(db *bun.DB, logger *zap.Logger) *MeditationModel {
	return &MeditationModel{
		db:     db,
		logger: logger.Named("db_meditation"),
	}
}

// ActiveDays streams the distinct calendar days on which the member logged a session,
// as days before now, most recent first. Days are bucketed in the member's UTC offset
// (minutes). Sessions after now are ignored.
//
// Rows are read lazily: breaking out of the loop stops the scan and releases the cursor.
func (m *MeditationModel) ActiveDays(
	ctx context.Context, idb bun.IDB, guildID, userID uint64, utcOffset int, now time.Time,
) iter.Seq2[int, error] {
	return func(yield func(int, error) bool) {
		rows, err := idb.NewSelect().
			TableExpr("meditations").
			Distinct().
			ColumnExpr(
				"((?::timestamptz AT TIME ZONE 'UTC') + make_interval(mins => ?))::date"+
					" - ((occurred_at AT TIME ZONE 'UTC') + make_interval(mins => ?))::date AS days_ago",
				now.UTC(), utcOffset, utcOffset,
			).
			Where("guild_id = ?", guildID).
			Where("user_id = ?", userID).
			Where("occurred_at <= ?", now.UTC()).
			OrderExpr("days_ago ASC").
			Rows(ctx)
		if err != nil {
			yield(0, fmt.Errorf("failed to query active days: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var daysAgo int
			if err := rows.Scan(&daysAgo); err != nil {
				yield(0, fmt.Errorf("failed to scan active day: %w", err))
				return
			}

			if !yield(daysAgo, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(0, fmt.Errorf("failed to read active days: %w", err))
		}
	}
}

// ListMembers returns every member with at least one session.
// A zero guildID lists members across all guilds.
func (m *MeditationModel) ListMembers(ctx context.Context, guildID uint64) ([]types.MemberKey, error) {
	return dbretry.Operation(ctx, func(ctx context.Context) ([]types.MemberKey, error) {
		var members []types.MemberKey

		query := m.db.NewSelect().
			TableExpr("meditations").
			Distinct().
			Column("guild_id", "user_id").
			OrderExpr("guild_id, user_id")

		if guildID != 0 {
			query = query.Where("guild_id = ?", guildID)
		}

		if err := query.Scan(ctx, &members); err != nil {
			return nil, fmt.Errorf("failed to list members: %w", err)
		}

		return members, nil
	})
}

// Add inserts a session into the log.
func (m *MeditationModel) Add(ctx context.Context, meditation *types.Meditation) error {
	return dbretry.NoResult(ctx, func(ctx context.Context) error {
		if _, err := m.db.NewInsert().Model(meditation).Exec(ctx); err != nil {
			return fmt.Errorf("failed to add meditation: %w", err)
		}

		m.logger.Debug("Added meditation",
			zap.String("id", meditation.ID),
			zap.Uint64("guildID", meditation.GuildID),
			zap.Uint64("userID", meditation.UserID))

		return nil
	})
}
