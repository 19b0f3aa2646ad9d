package commands

import (
	"context"
	"fmt"

	"github.com/meditationmind/bloombot/internal/progress"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// StreakCommands returns the streak cache maintenance commands.
func StreakCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:   "show",
			Usage:  "Compute and print a member's streak",
			Flags:  memberFlags(),
			Action: handleStreakShow(deps),
		},
		{
			Name:   "reset",
			Usage:  "Remove a member's cached streak",
			Flags:  memberFlags(),
			Action: handleStreakReset(deps),
		},
		{
			Name:  "rebuild",
			Usage: "Drop and recompute cached streaks for a guild, or all guilds",
			Flags: []cli.Flag{
				&cli.UintFlag{Name: "guild", Usage: "Guild ID, omit for every guild"},
				&cli.IntFlag{Name: "concurrency", Usage: "Concurrent computations, defaults to the config value"},
			},
			Action: handleStreakRebuild(deps),
		},
	}
}

func memberFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{Name: "guild", Usage: "Guild ID", Required: true},
		&cli.UintFlag{Name: "user", Usage: "User ID", Required: true},
	}
}

func memberFromFlags(c *cli.Command) (uint64, uint64, error) {
	guildID, userID := c.Uint("guild"), c.Uint("user")
	if guildID == 0 || userID == 0 {
		return 0, 0, ErrMemberRequired
	}

	return guildID, userID, nil
}

func handleStreakShow(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		guildID, userID, err := memberFromFlags(c)
		if err != nil {
			return err
		}

		result, err := deps.DB.Service().Streak().Compute(ctx, guildID, userID)
		if err != nil {
			return err
		}

		deps.Logger.Info("Streak",
			zap.Uint64("guildID", guildID),
			zap.Uint64("userID", userID),
			zap.Int("current", result.Current),
			zap.Int("longest", result.Longest),
			zap.String("path", string(result.Path)),
			zap.Int("daysRead", result.DaysRead))

		return nil
	}
}

func handleStreakReset(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		guildID, userID, err := memberFromFlags(c)
		if err != nil {
			return err
		}

		removed, err := deps.DB.Service().Streak().Reset(ctx, guildID, userID)
		if err != nil {
			return err
		}

		if !removed {
			deps.Logger.Info("No cached streak to reset")
		}

		return nil
	}
}

func handleStreakRebuild(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		concurrency := int(c.Int("concurrency"))
		if concurrency <= 0 {
			concurrency = deps.RebuildConcurrency
		}

		renderCtx, stopRender := context.WithCancel(ctx)
		defer stopRender()

		bar := progress.NewBar(100, 25, "Rebuild")
		go progress.NewRenderer(bar).Render(renderCtx)

		stats, err := deps.DB.Service().Streak().Rebuild(ctx, c.Uint("guild"), concurrency,
			func(done, total int) {
				bar.SetStepMessage(fmt.Sprintf("%d/%d members", done, total))
				bar.SetCurrent(int64(done * 100 / max(total, 1)))
			})

		stopRender()

		if err != nil {
			return err
		}

		deps.Logger.Info("Rebuild finished",
			zap.Int("members", stats.Members),
			zap.Int64("rebuilt", stats.Rebuilt),
			zap.Int64("failed", stats.Failed))

		if stats.Failed > 0 {
			return fmt.Errorf("%d of %d streaks could not be rebuilt", stats.Failed, stats.Members)
		}

		return nil
	}
}
