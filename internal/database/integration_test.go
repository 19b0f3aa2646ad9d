//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meditationmind/bloombot/internal/database"
	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/meditationmind/bloombot/internal/database/types/enum"
	"github.com/meditationmind/bloombot/internal/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
)

const (
	testGuild uint64 = 244917432383176705
	testUser  uint64 = 208951731458277376
)

// startPostgres runs a throwaway Postgres and returns a migrated client.
func startPostgres(t *testing.T) database.Client {
	t.Helper()

	ctx := t.Context()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "bloombot",
				"POSTGRES_PASSWORD": "bloombot",
				"POSTGRES_DB":       "bloombot",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("Skipping test: cannot start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithAddr(fmt.Sprintf("%s:%s", host, port.Port())),
		pgdriver.WithUser("bloombot"),
		pgdriver.WithPassword("bloombot"),
		pgdriver.WithDatabase("bloombot"),
		pgdriver.WithInsecure(true),
	))

	client, err := database.Open(ctx, sqldb, zap.NewNop(), true)
	require.NoError(t, err)

	t.Cleanup(func() { _ = client.Close() })

	return client
}

func addSession(t *testing.T, client database.Client, guildID, userID uint64, at time.Time) {
	t.Helper()

	require.NoError(t, client.Model().Meditation().Add(t.Context(), &types.Meditation{
		ID:         uuid.NewString(),
		GuildID:    guildID,
		UserID:     userID,
		Minutes:    15,
		OccurredAt: at,
	}))
}

func TestIntegration(t *testing.T) {
	client := startPostgres(t)

	t.Run("active days follow the tracking offset", func(t *testing.T) {
		const userID = testUser + 1

		now := time.Date(2025, time.March, 11, 12, 0, 0, 0, time.UTC)
		addSession(t, client, testGuild, userID, time.Date(2025, time.March, 10, 23, 30, 0, 0, time.UTC))
		addSession(t, client, testGuild, userID, time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC))
		addSession(t, client, testGuild, userID, time.Date(2025, time.March, 8, 9, 0, 0, 0, time.UTC))
		// In the future relative to now
		addSession(t, client, testGuild, userID, time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC))

		collect := func(offset int) []int {
			var days []int
			for day, err := range client.Model().Meditation().ActiveDays(
				t.Context(), client.DB(), testGuild, userID, offset, now,
			) {
				require.NoError(t, err)
				days = append(days, day)
			}

			return days
		}

		assert.Equal(t, []int{1, 3}, collect(0))
		// 23:30 UTC is already the next day at UTC+1
		assert.Equal(t, []int{0, 1, 3}, collect(60))
	})

	t.Run("compute bootstraps then uses the cache", func(t *testing.T) {
		now := time.Now()
		for _, daysAgo := range []int{0, 1, 2, 5} {
			addSession(t, client, testGuild, testUser, now.Add(-time.Duration(daysAgo)*24*time.Hour))
		}

		streaks := client.Service().Streak()

		first, err := streaks.Compute(t.Context(), testGuild, testUser)
		require.NoError(t, err)
		assert.Equal(t, streak.Record{Current: 3, Longest: 3}, first.Record)
		assert.Equal(t, streak.PathBootstrap, first.Path)

		cached, err := client.Model().Streak().Get(t.Context(), client.DB(), testGuild, testUser)
		require.NoError(t, err)
		require.NotNil(t, cached)
		assert.Equal(t, 3, cached.Current)
		assert.Equal(t, 3, cached.Longest)

		second, err := streaks.Compute(t.Context(), testGuild, testUser)
		require.NoError(t, err)
		assert.Equal(t, first.Record, second.Record)
		assert.Equal(t, streak.PathIncremental, second.Path)

		removed, err := streaks.Reset(t.Context(), testGuild, testUser)
		require.NoError(t, err)
		assert.True(t, removed)

		third, err := streaks.Compute(t.Context(), testGuild, testUser)
		require.NoError(t, err)
		assert.Equal(t, streak.PathBootstrap, third.Path)
	})

	t.Run("tracking profile defaults and upsert", func(t *testing.T) {
		const userID = testUser + 2

		tracking := client.Model().Tracking()

		profile, err := tracking.GetProfile(t.Context(), testGuild, userID)
		require.NoError(t, err)
		assert.True(t, profile.StreaksActive)
		assert.False(t, profile.StreaksPrivate)

		require.NoError(t, tracking.SaveProfile(t.Context(), &types.TrackingProfile{
			GuildID:        testGuild,
			UserID:         userID,
			UTCOffset:      -300,
			StreaksActive:  true,
			StreaksPrivate: true,
		}))

		offset, err := tracking.GetUTCOffset(t.Context(), client.DB(), testGuild, userID)
		require.NoError(t, err)
		assert.Equal(t, -300, offset)

		profile, err = tracking.GetProfile(t.Context(), testGuild, userID)
		require.NoError(t, err)
		assert.True(t, profile.StreaksPrivate)
	})

	t.Run("member without sessions", func(t *testing.T) {
		result, err := client.Service().Streak().Compute(t.Context(), testGuild, 42)
		require.NoError(t, err)
		assert.Equal(t, streak.Record{}, result.Record)
		assert.Equal(t, streak.PathEmpty, result.Path)
	})

	t.Run("rebuild recomputes every member", func(t *testing.T) {
		stats, err := client.Service().Streak().Rebuild(t.Context(), testGuild, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Members)
		assert.Equal(t, int64(2), stats.Rebuilt)
		assert.Zero(t, stats.Failed)
	})

	t.Run("refresh every view and record it", func(t *testing.T) {
		views := client.Service().View()

		for _, view := range types.DefaultAggregateViews() {
			_, err := views.RefreshAggregateView(t.Context(), view)
			require.NoError(t, err, view.Name())
		}

		infos, err := views.ListRefreshInfo(t.Context())
		require.NoError(t, err)
		assert.Len(t, infos, len(types.DefaultAggregateViews()))

		refreshedAt, err := views.GetRefreshInfo(t.Context(), types.LeaderboardView(enum.TimeframeWeekly))
		require.NoError(t, err)
		assert.False(t, refreshedAt.IsZero())

		var streakValue int

		err = client.DB().NewSelect().
			TableExpr("weekly_leaderboard").
			Column("streak").
			Where("guild_id = ?", testGuild).
			Where("user_id = ?", testUser).
			Scan(t.Context(), &streakValue)
		require.NoError(t, err)
		assert.Equal(t, 3, streakValue)

		_, err = views.RefreshByName(t.Context(), "daily_data")
		require.ErrorIs(t, err, types.ErrUnknownView)
	})
}
