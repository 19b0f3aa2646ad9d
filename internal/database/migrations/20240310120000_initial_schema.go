package migrations

import (
	"context"
	"fmt"

	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.Meditation)(nil),
			(*types.TrackingProfile)(nil),
			(*types.Streak)(nil),
			(*types.MaterializedViewRefresh)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		_, err := db.NewRaw(`
			ALTER TABLE meditations DROP CONSTRAINT IF EXISTS meditations_minutes_check;
			ALTER TABLE meditations ADD CONSTRAINT meditations_minutes_check CHECK (minutes >= 0);

			CREATE INDEX IF NOT EXISTS idx_meditations_member_occurred
			ON meditations (guild_id, user_id, occurred_at DESC);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create meditation constraints: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.MaterializedViewRefresh)(nil),
			(*types.Streak)(nil),
			(*types.TrackingProfile)(nil),
			(*types.Meditation)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Cascade().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
