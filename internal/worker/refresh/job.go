package refresh

import (
	"context"
	"time"

	"github.com/meditationmind/bloombot/internal/database/types"
)

// Refresher rebuilds an aggregate view.
type Refresher interface {
	RefreshAggregateView(ctx context.Context, view types.AggregateView) (time.Duration, error)
}

// Job refreshes one aggregate view as a step of every cycle.
type Job struct {
	Name string
	View types.AggregateView
	// Rank is the job's position within a cycle.
	Rank int

	LastRunAt    time.Time
	LastDuration time.Duration
	LastError    string
}

// JobsFor builds one job per view, in the given order.
func JobsFor(views []types.AggregateView) []Job {
	jobs := make([]Job, 0, len(views))
	for i, view := range views {
		jobs = append(jobs, Job{
			Name: "refresh_" + view.Name(),
			View: view,
			Rank: i,
		})
	}

	return jobs
}

// DefaultJobs refreshes every leaderboard, then every chart series.
func DefaultJobs() []Job {
	return JobsFor(types.DefaultAggregateViews())
}
