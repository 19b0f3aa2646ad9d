package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/meditationmind/bloombot/internal/database/types/enum"
	"github.com/uptrace/bun"
)

// chartBuckets is how many timeframe buckets of history a chart series keeps.
const chartBuckets = 12

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		for _, view := range types.DefaultAggregateViews() {
			var query string

			switch view.Kind {
			case enum.ViewKindLeaderboard:
				query = leaderboardViewSQL(view)
			case enum.ViewKindChart:
				query = chartViewSQL(view)
			}

			if _, err := db.NewRaw(query).Exec(ctx); err != nil {
				return fmt.Errorf("failed to create materialized view %s: %w", view.Name(), err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		var dropViews strings.Builder

		for _, view := range types.DefaultAggregateViews() {
			dropViews.WriteString(fmt.Sprintf("DROP MATERIALIZED VIEW IF EXISTS %s;\n", view.Name()))
		}

		if _, err := db.NewRaw(dropViews.String()).Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop materialized views: %w", err)
		}

		return nil
	})
}

// leaderboardViewSQL ranks members over the trailing timeframe.
// The unique index allows REFRESH MATERIALIZED VIEW CONCURRENTLY.
func leaderboardViewSQL(view types.AggregateView) string {
	name := view.Name()

	return fmt.Sprintf(`
		CREATE MATERIALIZED VIEW IF NOT EXISTS %[1]s AS
		SELECT
			m.guild_id,
			m.user_id,
			SUM(m.minutes)::bigint AS minutes,
			COUNT(*)::bigint AS sessions,
			COALESCE(s.current, 0) AS streak,
			COALESCE(tp.anonymous_tracking, false) AS anonymous_tracking,
			COALESCE(tp.streaks_active, true) AS streaks_active,
			COALESCE(tp.streaks_private, false) AS streaks_private
		FROM meditations m
		LEFT JOIN streaks s ON s.guild_id = m.guild_id AND s.user_id = m.user_id
		LEFT JOIN tracking_profiles tp ON tp.guild_id = m.guild_id AND tp.user_id = m.user_id
		WHERE m.occurred_at > NOW() - %[2]s
		GROUP BY m.guild_id, m.user_id, s.current,
			tp.anonymous_tracking, tp.streaks_active, tp.streaks_private;

		CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_member
		ON %[1]s (guild_id, user_id);

		CREATE INDEX IF NOT EXISTS idx_%[1]s_minutes
		ON %[1]s (guild_id, minutes DESC);
	`, name, view.Timeframe.Interval())
}

// chartViewSQL buckets each member's sessions by timeframe for the last chartBuckets buckets.
func chartViewSQL(view types.AggregateView) string {
	name := view.Name()
	unit := view.Timeframe.TruncUnit()

	return fmt.Sprintf(`
		CREATE MATERIALIZED VIEW IF NOT EXISTS %[1]s AS
		SELECT
			guild_id,
			user_id,
			date_trunc('%[2]s', occurred_at) AS bucket,
			SUM(minutes)::bigint AS minutes,
			COUNT(*)::bigint AS sessions
		FROM meditations
		WHERE occurred_at >= date_trunc('%[2]s', NOW()) - %[3]d * %[4]s
		GROUP BY guild_id, user_id, bucket;

		CREATE INDEX IF NOT EXISTS idx_%[1]s_member
		ON %[1]s (guild_id, user_id, bucket);
	`, name, unit, chartBuckets-1, view.Timeframe.Interval())
}
