package gesture

// DefaultMaxRepetitions is the progress target for one repetition.
const DefaultMaxRepetitions = 50

// CounterState is the lifecycle state of a RepetitionCounter.
type CounterState int

const (
	// CounterIdle has no progress.
	CounterIdle CounterState = iota
	// CounterAccumulating has progress below the maximum.
	CounterAccumulating
	// CounterCompleted reached the maximum and ignores further passes
	// until Reset.
	CounterCompleted
)

func (s CounterState) String() string {
	switch s {
	case CounterIdle:
		return "idle"
	case CounterAccumulating:
		return "accumulating"
	case CounterCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// RepetitionCounter turns a stream of match outcomes into bounded progress.
// Every passing match adds one; reaching the maximum completes the
// repetition exactly once.
//
// A RepetitionCounter is not safe for concurrent use. The pipeline's
// classifier goroutine owns it.
type RepetitionCounter struct {
	count     float64
	max       float64
	completed bool
}

// NewRepetitionCounter creates a counter with the given maximum. Non-positive
// values use DefaultMaxRepetitions.
func NewRepetitionCounter(max int) *RepetitionCounter {
	if max <= 0 {
		max = DefaultMaxRepetitions
	}
	return &RepetitionCounter{max: float64(max)}
}

// Observe records one match outcome and reports whether this call completed
// the repetition.
func (c *RepetitionCounter) Observe(passed bool) bool {
	if !passed || c.completed {
		return false
	}

	c.count++
	if c.count < c.max {
		return false
	}

	c.count = c.max
	c.completed = true
	return true
}

// Reset returns the counter to Idle.
func (c *RepetitionCounter) Reset() {
	c.count = 0
	c.completed = false
}

// Count returns the current progress.
func (c *RepetitionCounter) Count() float64 { return c.count }

// Max returns the progress target.
func (c *RepetitionCounter) Max() float64 { return c.max }

// Completed reports whether the current repetition has completed.
func (c *RepetitionCounter) Completed() bool { return c.completed }

// Progress returns count/max in [0, 1].
func (c *RepetitionCounter) Progress() float64 {
	return c.count / c.max
}

// State returns the lifecycle state.
func (c *RepetitionCounter) State() CounterState {
	switch {
	case c.completed:
		return CounterCompleted
	case c.count > 0:
		return CounterAccumulating
	default:
		return CounterIdle
	}
}
