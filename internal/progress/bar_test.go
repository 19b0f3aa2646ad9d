package progress_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/meditationmind/bloombot/internal/progress"
	"github.com/stretchr/testify/assert"
)

func TestBarUpdateStatus(t *testing.T) {
	t.Parallel()

	bar := progress.NewBar(100, 10, "Refresh")
	bar.UpdateStatus("Refreshing weekly_leaderboard", 50)

	out := bar.String()
	assert.Contains(t, out, "[=====-----]")
	assert.Contains(t, out, "50.0%")
	assert.Contains(t, out, "Refreshing weekly_leaderboard")

	bar.SetHealthy(false)
	assert.Contains(t, bar.String(), "Refresh (errors)")

	// Progress going backwards starts a new cycle
	bar.UpdateStatus("Waiting", 0)
	assert.Contains(t, bar.String(), "0.0%")
	assert.NotContains(t, bar.String(), "(errors)")
}

func TestBarSetCurrentCapsAtTotal(t *testing.T) {
	t.Parallel()

	bar := progress.NewBar(4, 4, "Rebuild")
	bar.SetStepMessage("1/4 members")
	bar.SetCurrent(1)
	assert.Contains(t, bar.String(), "[=---] 25.0% | 1/4 members")

	bar.SetCurrent(9)
	assert.Contains(t, bar.String(), "[====] 100.0%")
}

func TestRendererStopsWithContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	renderer := progress.NewRenderer(progress.NewBar(10, 10, "Refresh"))
	renderer.SetOutput(&buf)

	ctx, cancel := context.WithTimeout(t.Context(), 250*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		renderer.Render(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("renderer did not stop")
	}

	assert.Contains(t, buf.String(), "Refresh [")
}
