package types

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/meditationmind/bloombot/internal/database/types/enum"
)

// ErrUnknownView indicates a view name that does not map to an aggregate view.
var ErrUnknownView = errors.New("unknown aggregate view")

// MaterializedViewRefresh tracks when materialized views were last refreshed.
type MaterializedViewRefresh struct {
	ViewName       string    `bun:",pk"      json:"viewName"`
	LastRefresh    time.Time `bun:",notnull" json:"lastRefresh"`
	LastDurationMS int64     `bun:",notnull" json:"lastDurationMs"`
}

// AggregateView identifies one materialized view by family and timeframe.
type AggregateView struct {
	Kind      enum.ViewKind
	Timeframe enum.Timeframe
}

// LeaderboardView returns the leaderboard view for a timeframe.
func LeaderboardView(tf enum.Timeframe) AggregateView {
	return AggregateView{Kind: enum.ViewKindLeaderboard, Timeframe: tf}
}

// ChartView returns the chart series view for a timeframe.
func ChartView(tf enum.Timeframe) AggregateView {
	return AggregateView{Kind: enum.ViewKindChart, Timeframe: tf}
}

// DefaultAggregateViews lists every materialized view in refresh order.
// Leaderboards come first, then chart series.
func DefaultAggregateViews() []AggregateView {
	views := make([]AggregateView, 0, 7)
	for _, tf := range enum.TimeframeValues() {
		views = append(views, LeaderboardView(tf))
	}

	for _, tf := range enum.TimeframeValues() {
		if v := ChartView(tf); v.Exists() {
			views = append(views, v)
		}
	}

	return views
}

// Exists reports whether a materialized view backs this aggregate.
// Daily charts are computed live and have no view.
func (v AggregateView) Exists() bool {
	switch v.Kind {
	case enum.ViewKindLeaderboard:
		return v.Timeframe.IsATimeframe()
	case enum.ViewKindChart:
		return v.Timeframe.IsATimeframe() && v.Timeframe != enum.TimeframeDaily
	}

	return false
}

// Name returns the database name of the view.
func (v AggregateView) Name() string {
	switch v.Kind {
	case enum.ViewKindLeaderboard:
		return v.Timeframe.String() + "_leaderboard"
	case enum.ViewKindChart:
		return v.Timeframe.String() + "_data"
	}

	return fmt.Sprintf("%s_%s", v.Timeframe, v.Kind)
}

// Concurrent reports whether the view has a unique index and can be refreshed
// without blocking readers.
func (v AggregateView) Concurrent() bool {
	switch v.Kind {
	case enum.ViewKindLeaderboard:
		return true
	case enum.ViewKindChart:
		return false
	}

	return false
}

// String implements fmt.Stringer.
func (v AggregateView) String() string {
	return v.Name()
}

// ParseAggregateView maps a view name such as "weekly_leaderboard" back to its aggregate.
func ParseAggregateView(name string) (AggregateView, error) {
	prefix, suffix, ok := strings.Cut(strings.ToLower(strings.TrimSpace(name)), "_")
	if !ok {
		return AggregateView{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}

	tf, err := enum.TimeframeString(prefix)
	if err != nil {
		return AggregateView{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}

	var view AggregateView

	switch suffix {
	case "leaderboard":
		view = LeaderboardView(tf)
	case "data":
		view = ChartView(tf)
	default:
		return AggregateView{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}

	if !view.Exists() {
		return AggregateView{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}

	return view, nil
}
