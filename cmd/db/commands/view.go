package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// ViewCommands returns the materialized view commands.
func ViewCommands(deps *CLIDependencies) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "refresh",
			Usage: "Refresh one view by name, or every view in cycle order",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Usage: "View name, e.g. weekly_leaderboard"},
			},
			Action: handleViewRefresh(deps),
		},
		{
			Name:   "status",
			Usage:  "Show when each view was last refreshed",
			Action: handleViewStatus(deps),
		},
	}
}

func handleViewRefresh(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		views := types.DefaultAggregateViews()

		if name := c.String("name"); name != "" {
			view, err := types.ParseAggregateView(name)
			if err != nil {
				return err
			}

			views = []types.AggregateView{view}
		}

		var errs []error

		for _, view := range views {
			took, err := deps.DB.Service().View().RefreshAggregateView(ctx, view)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", view, err))
				continue
			}

			deps.Logger.Info("Refreshed view",
				zap.String("view", view.Name()),
				zap.Duration("duration", took))
		}

		return errors.Join(errs...)
	}
}

func handleViewStatus(deps *CLIDependencies) cli.ActionFunc {
	return func(ctx context.Context, _ *cli.Command) error {
		infos, err := deps.DB.Service().View().ListRefreshInfo(ctx)
		if err != nil {
			return err
		}

		refreshed := make(map[string]types.MaterializedViewRefresh, len(infos))
		for _, info := range infos {
			refreshed[info.ViewName] = info
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "VIEW\tLAST REFRESH\tDURATION")

		for _, view := range types.DefaultAggregateViews() {
			info, ok := refreshed[view.Name()]
			if !ok {
				_, _ = fmt.Fprintf(w, "%s\tnever\t-\n", view.Name())
				continue
			}

			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", view.Name(),
				info.LastRefresh.Local().Format(time.RFC3339),
				(time.Duration(info.LastDurationMS) * time.Millisecond).String())
		}

		return w.Flush()
	}
}
