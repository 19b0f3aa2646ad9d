package enum_test

import (
	"testing"

	"github.com/meditationmind/bloombot/internal/database/types/enum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeframeString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"daily", "weekly", "monthly", "yearly"}, enum.TimeframeStrings())

	tf, err := enum.TimeframeString("Monthly")
	require.NoError(t, err)
	assert.Equal(t, enum.TimeframeMonthly, tf)

	_, err = enum.TimeframeString("fortnightly")
	require.Error(t, err)
}

func TestTimeframeBuckets(t *testing.T) {
	t.Parallel()

	for _, tf := range enum.TimeframeValues() {
		assert.NotPanics(t, func() {
			assert.NotEmpty(t, tf.Interval())
			assert.NotEmpty(t, tf.TruncUnit())
		})
	}

	assert.Equal(t, "week", enum.TimeframeWeekly.TruncUnit())
	assert.Equal(t, "INTERVAL '1 year'", enum.TimeframeYearly.Interval())
	assert.Panics(t, func() { _ = enum.Timeframe(42).TruncUnit() })
}
