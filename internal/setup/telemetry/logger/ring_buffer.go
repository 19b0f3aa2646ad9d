package logger

// RingBuffer keeps the most recent lines written to a log file.
type RingBuffer struct {
	lines    []string
	next     int // Next write position
	size     int // Lines currently held
	sinceCut int // Lines added since the file was last truncated
}

// NewRingBuffer creates a ring buffer holding up to capacity lines.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{lines: make([]string, max(capacity, 1))}
}

// Capacity returns the maximum number of lines held.
func (rb *RingBuffer) Capacity() int {
	return len(rb.lines)
}

// Add appends a line, overwriting the oldest one when full.
func (rb *RingBuffer) Add(line string) {
	rb.lines[rb.next] = line
	rb.next = (rb.next + 1) % len(rb.lines)

	if rb.size < len(rb.lines) {
		rb.size++
	}

	rb.sinceCut++
}

// Lines returns the held lines, oldest first.
func (rb *RingBuffer) Lines() []string {
	if rb.size == 0 {
		return nil
	}

	result := make([]string, rb.size)
	start := (rb.next - rb.size + len(rb.lines)) % len(rb.lines)

	for i := range rb.size {
		result[i] = rb.lines[(start+i)%len(rb.lines)]
	}

	return result
}
