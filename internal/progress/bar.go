package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Bar is a terminal progress indicator with a step message and ETA.
// It implements the refresh scheduler's observer interface.
type Bar struct {
	total            int64
	current          int64
	width            int
	mu               sync.Mutex
	message          string
	stepMessage      string
	stepStart        time.Time
	overallStart     time.Time
	overallDurations []time.Duration
	healthy          bool
}

// NewBar creates a progress bar with a total value to track progress against,
// a width in characters, and a message describing the overall operation.
func NewBar(total int64, width int, message string) *Bar {
	now := time.Now()

	return &Bar{
		total:        total,
		width:        width,
		message:      message,
		stepStart:    now,
		overallStart: now,
		healthy:      true,
	}
}

// SetCurrent directly sets the current progress value, capping at total.
func (b *Bar) SetCurrent(current int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = min(current, b.total)
}

// SetStepMessage updates the current step description and resets the step timer.
func (b *Bar) SetStepMessage(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if message != b.stepMessage {
		b.stepMessage = message
		b.stepStart = time.Now()
	}
}

// UpdateStatus sets the step message and the progress in percent.
func (b *Bar) UpdateStatus(task string, progress int) {
	b.SetStepMessage(task)

	b.mu.Lock()
	defer b.mu.Unlock()

	current := b.total * int64(progress) / 100
	if current < b.current {
		// A new cycle started
		b.finishLocked()
	}

	b.current = min(current, b.total)
}

// SetHealthy marks the bar when a step failed.
func (b *Bar) SetHealthy(healthy bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.healthy = healthy
}

// String renders the bar with percentage complete, the current step and its
// duration, the overall duration and the ETA.
func (b *Bar) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	percent := 0.0
	if b.total > 0 {
		percent = float64(b.current) / float64(b.total)
	}

	filled := int(percent * float64(b.width))
	bar := strings.Repeat("=", filled) + strings.Repeat("-", b.width-filled)

	message := b.message
	if !b.healthy {
		message += " (errors)"
	}

	return fmt.Sprintf("\r%s [%s] %.1f%% | %s (%s) | Overall: %s (ETA: %s)",
		message, bar, percent*100, b.stepMessage, time.Since(b.stepStart).Round(time.Second),
		time.Since(b.overallStart).Round(time.Second), b.calculateETA())
}

// calculateETA averages previous cycle durations. Returns "0s" without history.
func (b *Bar) calculateETA() string {
	if len(b.overallDurations) == 0 {
		return "0s"
	}

	var total time.Duration
	for _, d := range b.overallDurations {
		total += d
	}

	return (total / time.Duration(len(b.overallDurations))).Round(time.Second).String()
}

// finishLocked stores the duration of the finished cycle, keeping the last 10, and resets the bar.
func (b *Bar) finishLocked() {
	if len(b.overallDurations) >= 10 {
		b.overallDurations = b.overallDurations[1:]
	}

	b.overallDurations = append(b.overallDurations, time.Since(b.overallStart))
	b.current = 0
	b.healthy = true
	b.overallStart = time.Now()
}
