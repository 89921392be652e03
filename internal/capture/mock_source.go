package capture

import (
	"context"
	"io"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// MockSource plays back a scripted number of frames for testing.
// Frames carry no image unless SetImages is used.
type MockSource struct {
	mu       sync.Mutex
	limit    int
	served   int
	seq      uint64
	hold     bool
	err      error
	interval time.Duration
	images   []*gocv.Mat
	facing   Facing
	opened   []Facing
	open     bool
}

// NewMockSource creates a source that yields frames before reporting io.EOF.
// A negative count yields frames forever.
func NewMockSource(frames int) *MockSource {
	return &MockSource{limit: frames}
}

// SetHold makes Next block until its context is cancelled once the scripted
// frames are exhausted, like a camera waiting for the next frame.
func (s *MockSource) SetHold(hold bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hold = hold
}

// SetError makes Next fail with err once the scripted frames are exhausted.
func (s *MockSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetInterval delays every frame by d.
func (s *MockSource) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// SetImages sets images that are cloned into frames in round-robin order.
func (s *MockSource) SetImages(images []*gocv.Mat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = images
}

// Open starts a new stream; the frame budget is not refilled.
func (s *MockSource) Open(facing Facing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = true
	s.facing = facing
	s.seq = 0
	s.opened = append(s.opened, facing)
	return nil
}

// Close ends the current stream.
func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = false
	return nil
}

// Next returns the next scripted frame.
func (s *MockSource) Next(ctx context.Context) (*Frame, error) {
	s.mu.Lock()
	interval := s.interval
	exhausted := s.limit >= 0 && s.served >= s.limit
	hold, err, open := s.hold, s.err, s.open
	s.mu.Unlock()

	if !open {
		return nil, ErrCameraNotOpen
	}

	if exhausted {
		switch {
		case err != nil:
			return nil, err
		case hold:
			<-ctx.Done()
			return nil, ctx.Err()
		default:
			return nil, io.EOF
		}
	}

	if interval > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	} else if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	frame := &Frame{
		Facing:    s.facing,
		Timestamp: time.Now(),
	}
	if len(s.images) > 0 {
		img := s.images[s.served%len(s.images)].Clone()
		frame.Image = &img
	}
	s.served++
	s.seq++
	frame.ID = s.seq

	return frame, nil
}

// Served returns how many frames have been handed out.
func (s *MockSource) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.served
}

// Opened returns the facings passed to Open, in call order.
func (s *MockSource) Opened() []Facing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Facing, len(s.opened))
	copy(out, s.opened)
	return out
}
