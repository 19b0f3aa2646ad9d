package telemetry_test

import (
	"testing"

	"github.com/meditationmind/bloombot/internal/setup/telemetry"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestCoreOnlyForwardsEnabledLevels(t *testing.T) {
	t.Parallel()

	core := telemetry.NewCore(zapcore.ErrorLevel)

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.False(t, core.Enabled(zapcore.WarnLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	checked := core.Check(zapcore.Entry{Level: zapcore.InfoLevel}, nil)
	assert.Nil(t, checked)

	checked = core.Check(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "refresh failed"}, nil)
	assert.NotNil(t, checked)
	checked.Write()
}
