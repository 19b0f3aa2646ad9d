package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// renderInterval is how often bars are redrawn.
const renderInterval = 100 * time.Millisecond

// Renderer redraws a set of progress bars in place.
type Renderer struct {
	bars   []*Bar
	output io.Writer
	mu     sync.Mutex
}

// NewRenderer creates a Renderer for bars writing to stdout.
func NewRenderer(bars ...*Bar) *Renderer {
	return &Renderer{
		bars:   bars,
		output: os.Stdout,
	}
}

// SetOutput changes the destination of the rendered bars.
func (r *Renderer) SetOutput(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.output = w
}

// Render redraws the bars until ctx is done, then clears them.
func (r *Renderer) Render(ctx context.Context) {
	ticker := time.NewTicker(renderInterval)
	defer ticker.Stop()

	r.draw(false)

	for {
		select {
		case <-ctx.Done():
			r.clear()
			return
		case <-ticker.C:
			r.draw(true)
		}
	}
}

func (r *Renderer) draw(clearPrevious bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if clearPrevious {
		for range r.bars {
			_, _ = fmt.Fprint(r.output, "\033[1A\033[K")
		}
	}

	for _, bar := range r.bars {
		_, _ = fmt.Fprintln(r.output, bar.String())
	}
}

func (r *Renderer) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for range r.bars {
		_, _ = fmt.Fprint(r.output, "\033[1A\033[K")
	}
}
