package app

import (
	"context"
	"sync"
	"time"

	"github.com/ayusman/handson/internal/detector"
)

// DefaultReportBuffer is the per-subscriber report queue length.
const DefaultReportBuffer = 64

// PoseReport is the per-frame pose batch sent to reporters.
type PoseReport struct {
	SessionID string          `json:"sessionId"`
	FrameID   uint64          `json:"frameId"`
	Poses     []detector.Pose `json:"poses"`
	At        time.Time       `json:"at"`
}

// Broadcaster delivers pose reports from one publisher to any number of
// subscribers. Each subscriber has a bounded FIFO queue; when a subscriber
// falls behind, its oldest queued report is discarded so Publish never
// blocks the classifier.
type Broadcaster struct {
	size int

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewBroadcaster(size int) *Broadcaster {
	if size <= 0 {
		size = DefaultReportBuffer
	}
	return &Broadcaster{
		size: size,
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber. Reports published before the call
// are not delivered to it.
func (b *Broadcaster) Subscribe() *Subscription {
	s := &Subscription{
		b:      b,
		queue:  make([]PoseReport, 0, b.size),
		size:   b.size,
		notify: make(chan struct{}, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		s.closed = true
		return s
	}
	b.subs[s] = struct{}{}
	return s
}

// Publish enqueues r for every subscriber.
func (b *Broadcaster) Publish(r PoseReport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for s := range b.subs {
		s.push(r)
	}
}

// Close ends every subscription once its queue is drained.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for s := range b.subs {
		s.close()
	}
	b.subs = nil
}

func (b *Broadcaster) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

// Subscription is one subscriber's queue.
type Subscription struct {
	b      *Broadcaster
	size   int
	notify chan struct{}

	mu      sync.Mutex
	queue   []PoseReport
	dropped uint64
	closed  bool
}

func (s *Subscription) push(r PoseReport) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if len(s.queue) == s.size {
		copy(s.queue, s.queue[1:])
		s.queue = s.queue[:len(s.queue)-1]
		s.dropped++
	}
	s.queue = append(s.queue, r)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until a report is available. It returns false once the
// broadcaster is closed and the queue is empty, or when ctx is done.
func (s *Subscription) Next(ctx context.Context) (PoseReport, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			r := s.queue[0]
			s.queue[0] = PoseReport{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return r, true
		}
		closed := s.closed
		s.mu.Unlock()

		if closed {
			return PoseReport{}, false
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return PoseReport{}, false
		}
	}
}

// Dropped returns how many reports were discarded because the subscriber
// fell behind.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Len returns the number of queued reports.
func (s *Subscription) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Unsubscribe stops delivery to s. Queued reports remain readable.
func (s *Subscription) Unsubscribe() {
	s.b.remove(s)
	s.close()
}
