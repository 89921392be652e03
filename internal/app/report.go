package app

import (
	"context"
	"log"
	"sync"
	"time"
)

// detectionWindow is the number of recent frames used for the detection rate.
const detectionWindow = 30

// Reporter consumes pose reports on the reporting goroutine.
type Reporter interface {
	Report(r PoseReport)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(r PoseReport)

func (f ReporterFunc) Report(r PoseReport) { f(r) }

// PoseStatsSnapshot is a point-in-time view of PoseStats.
type PoseStatsSnapshot struct {
	Frames         int64   `json:"frames"`
	FramesWithHand int64   `json:"framesWithHand"`
	DetectionRate  float64 `json:"detectionRate"`
	FPS            float64 `json:"fps"`
	Dropped        uint64  `json:"dropped"`
	SessionID      string  `json:"sessionId,omitempty"`
}

// PoseStats tracks how often hands are detected and how fast reports
// arrive.
type PoseStats struct {
	mu        sync.Mutex
	frames    int64
	withHand  int64
	window    [detectionWindow]bool
	filled    int
	next      int
	times     [detectionWindow]time.Time
	sessionID string
}

// NewPoseStats creates an empty PoseStats reporter.
func NewPoseStats() *PoseStats {
	return &PoseStats{}
}

// Report records one pose batch.
func (s *PoseStats) Report(r PoseReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Rates restart with each session; totals do not.
	if r.SessionID != s.sessionID {
		s.sessionID = r.SessionID
		s.filled, s.next = 0, 0
	}

	hasHand := len(r.Poses) > 0
	s.frames++
	if hasHand {
		s.withHand++
	}

	s.window[s.next] = hasHand
	s.times[s.next] = r.At
	s.next = (s.next + 1) % detectionWindow
	if s.filled < detectionWindow {
		s.filled++
	}
}

// Snapshot returns the current statistics.
func (s *PoseStats) Snapshot() PoseStatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := PoseStatsSnapshot{
		Frames:         s.frames,
		FramesWithHand: s.withHand,
		SessionID:      s.sessionID,
	}
	if s.filled == 0 {
		return snap
	}

	var hits int
	for i := 0; i < s.filled; i++ {
		if s.window[i] {
			hits++
		}
	}
	snap.DetectionRate = float64(hits) / float64(s.filled)

	if s.filled > 1 {
		oldest := s.times[(s.next-s.filled+detectionWindow)%detectionWindow]
		newest := s.times[(s.next-1+detectionWindow)%detectionWindow]
		if span := newest.Sub(oldest); span > 0 {
			snap.FPS = float64(s.filled-1) / span.Seconds()
		}
	}
	return snap
}

// runReporting dispatches reports to every reporter until the subscription
// ends. Reporters run in order on this goroutine.
func runReporting(ctx context.Context, sub *Subscription, reporters func() []Reporter) {
	defer log.Println("Reporting stopped")

	for {
		r, ok := sub.Next(ctx)
		if !ok {
			return
		}
		for _, rep := range reporters() {
			rep.Report(r)
		}
	}
}
