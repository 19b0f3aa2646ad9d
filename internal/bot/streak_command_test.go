package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/meditationmind/bloombot/internal/database/types"
	"github.com/meditationmind/bloombot/internal/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatStreak(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		view streakView
		want string
	}{
		{
			name: "own streak is longest",
			view: streakView{Record: streak.Record{Current: 5, Longest: 5}},
			want: "Your current meditation streak is 5 days. This is your longest streak.",
		},
		{
			name: "own streak below longest",
			view: streakView{Record: streak.Record{Current: 0, Longest: 12}},
			want: "Your current meditation streak is 0 days. Your longest streak is 12 days.",
		},
		{
			name: "other member",
			view: streakView{Subject: "Ana", Record: streak.Record{Current: 3, Longest: 9}},
			want: "Ana's current meditation streak is 3 days. Ana's longest streak is 9 days.",
		},
		{
			name: "other member longest",
			view: streakView{Subject: "Ana", Record: streak.Record{Current: 9, Longest: 9}},
			want: "Ana's current meditation streak is 9 days. This is Ana's longest streak.",
		},
		{
			name: "private streak shown to staff",
			view: streakView{Subject: "Ana", Private: true, Record: streak.Record{Current: 2, Longest: 4}},
			want: "Ana's current **private** meditation streak is 2 days. Ana's longest streak is 4 days.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, formatStreak(tt.view))
		})
	}
}

func TestStreakCommandOptions(t *testing.T) {
	t.Parallel()

	cmd := streakCommand()
	assert.Equal(t, StreakCommandName, cmd.Name)
	assert.Len(t, cmd.Options, 2)
}

type fakeProfiles struct {
	profile *types.TrackingProfile
	err     error
}

func (f fakeProfiles) GetProfile(context.Context, uint64, uint64) (*types.TrackingProfile, error) {
	return f.profile, f.err
}

type fakeStreaks struct {
	result streak.Result
	err    error
	calls  int
}

func (f *fakeStreaks) Compute(context.Context, uint64, uint64) (streak.Result, error) {
	f.calls++
	return f.result, f.err
}

func newTestBot(profiles ProfileSource, streaks StreakComputer) *Bot {
	return &Bot{profiles: profiles, streaks: streaks, logger: zap.NewNop()}
}

func TestStreakVisibility(t *testing.T) {
	t.Parallel()

	private := &types.TrackingProfile{StreaksActive: true, StreaksPrivate: true}
	public := &types.TrackingProfile{StreaksActive: true}

	tests := []struct {
		name    string
		profile *types.TrackingProfile
		req     streakRequest
		want    streakVisibility
	}{
		{
			name:    "own public streak",
			profile: public,
			req:     streakRequest{},
			want:    streakVisibility{},
		},
		{
			name:    "own private streak is ephemeral",
			profile: private,
			req:     streakRequest{},
			want:    streakVisibility{Ephemeral: true},
		},
		{
			name:    "privacy option overrides own setting",
			profile: private,
			req:     streakRequest{Privacy: privacyPublic},
			want:    streakVisibility{},
		},
		{
			name:    "other private streak denied to members",
			profile: private,
			req:     streakRequest{Subject: "Ana"},
			want:    streakVisibility{Denied: "Sorry, Ana's meditation streak is set to private."},
		},
		{
			name:    "other private streak shown to staff",
			profile: private,
			req:     streakRequest{Subject: "Ana", Staff: true, Privacy: privacyPublic},
			want:    streakVisibility{Ephemeral: true, ShowPrivate: true},
		},
		{
			name:    "missing profile is public",
			profile: nil,
			req:     streakRequest{Subject: "Ana"},
			want:    streakVisibility{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b := newTestBot(fakeProfiles{profile: tt.profile}, &fakeStreaks{})

			got, err := b.streakVisibility(t.Context(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreakVisibilityProfileError(t *testing.T) {
	t.Parallel()

	dbErr := errors.New("connection reset by peer")
	b := newTestBot(fakeProfiles{err: dbErr}, &fakeStreaks{})

	got, err := b.streakVisibility(t.Context(), streakRequest{Subject: "Ana"})
	require.ErrorIs(t, err, dbErr)
	assert.Equal(t, streakVisibility{}, got)
	assert.Equal(t, "Ana's streak could not be calculated right now. Please try again later.",
		unavailableMessage("Ana"))
}

func TestStreakContent(t *testing.T) {
	t.Parallel()

	t.Run("formats the computed record", func(t *testing.T) {
		t.Parallel()

		streaks := &fakeStreaks{result: streak.Result{Record: streak.Record{Current: 3, Longest: 9}}}
		b := newTestBot(fakeProfiles{}, streaks)

		got := b.streakContent(t.Context(), streakRequest{Subject: "Ana"}, true)
		assert.Equal(t, "Ana's current **private** meditation streak is 3 days. Ana's longest streak is 9 days.", got)
		assert.Equal(t, 1, streaks.calls)
	})

	t.Run("failure names the target", func(t *testing.T) {
		t.Parallel()

		streaks := &fakeStreaks{err: fmt.Errorf("%w: timeout", streak.ErrAggregationUnavailable)}
		b := newTestBot(fakeProfiles{}, streaks)

		assert.Equal(t, "Ana's streak could not be calculated right now. Please try again later.",
			b.streakContent(t.Context(), streakRequest{Subject: "Ana"}, false))
		assert.Equal(t, "Your streak could not be calculated right now. Please try again later.",
			b.streakContent(t.Context(), streakRequest{}, false))
	})
}
