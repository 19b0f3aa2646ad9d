package enum

// Timeframe is the aggregation window of a leaderboard or chart series.
//
//go:generate go tool enumer -type=Timeframe -trimprefix=Timeframe -transform=snake
type Timeframe int

const (
	TimeframeDaily Timeframe = iota
	TimeframeWeekly
	TimeframeMonthly
	TimeframeYearly
)

// Interval returns the Postgres interval literal covering one timeframe.
func (t Timeframe) Interval() string {
	switch t {
	case TimeframeDaily:
		return "INTERVAL '1 day'"
	case TimeframeWeekly:
		return "INTERVAL '1 week'"
	case TimeframeMonthly:
		return "INTERVAL '1 month'"
	case TimeframeYearly:
		return "INTERVAL '1 year'"
	}

	panic("unknown timeframe: " + t.String())
}

// TruncUnit returns the date_trunc field used to bucket sessions into this timeframe.
func (t Timeframe) TruncUnit() string {
	switch t {
	case TimeframeDaily:
		return "day"
	case TimeframeWeekly:
		return "week"
	case TimeframeMonthly:
		return "month"
	case TimeframeYearly:
		return "year"
	}

	panic("unknown timeframe: " + t.String())
}

// ViewKind distinguishes the two families of aggregate views.
//
//go:generate go tool enumer -type=ViewKind -trimprefix=ViewKind -transform=snake
type ViewKind int

const (
	// ViewKindLeaderboard ranks members of a guild by minutes, sessions or streak.
	ViewKindLeaderboard ViewKind = iota
	// ViewKindChart holds time-bucketed series for the stats charts.
	ViewKindChart
)
