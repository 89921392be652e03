package app

import (
	"sync"
	"time"

	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/gesture"
)

// SessionSnapshot is a point-in-time view of a session.
type SessionSnapshot struct {
	ID        string         `json:"id"`
	Gesture   string         `json:"gesture"`
	Facing    capture.Facing `json:"facing"`
	Running   bool           `json:"running"`
	StartedAt time.Time      `json:"startedAt"`
	Frames    int64          `json:"frames"`
	Dropped   int64          `json:"dropped"`
	Attempts  int64          `json:"attempts"`
	Passes    int64          `json:"passes"`
	Count     float64        `json:"count"`
	Max       float64        `json:"max"`
	Completed bool           `json:"completed"`
	Error     string         `json:"error,omitempty"`
}

// control is a command applied by the classifier goroutine between frames.
type control struct {
	template *gesture.Template
	gesture  string
	reset    bool
	applied  chan struct{}
}

// Session is one run of the acquire and classify tasks for a camera facing.
// Its counter and active template belong to the classifier goroutine;
// other goroutines observe it through Snapshot.
type Session struct {
	ID     string
	Facing capture.Facing

	cancel  func()
	done    chan struct{}
	control chan control

	mu   sync.Mutex
	snap SessionSnapshot
	err  error
}

func newSession(id string, facing capture.Facing, gestureName string, max float64, cancel func()) *Session {
	return &Session{
		ID:      id,
		Facing:  facing,
		cancel:  cancel,
		done:    make(chan struct{}),
		control: make(chan control),
		snap: SessionSnapshot{
			ID:        id,
			Gesture:   gestureName,
			Facing:    facing,
			Running:   true,
			StartedAt: time.Now(),
			Max:       max,
		},
	}
}

// Done is closed once both tasks have exited and the source is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the upstream failure that ended the session, or nil if it was
// cancelled or its source ended. It is only meaningful after Done is closed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Gesture returns the active gesture name.
func (s *Session) Gesture() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Gesture
}

// Snapshot returns a copy of the session's counters.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Cancel stops the session without waiting.
func (s *Session) Cancel() {
	s.cancel()
}

// send delivers a command to the classifier and waits until it is applied.
// It returns false if the session ended first.
func (s *Session) send(c control) bool {
	c.applied = make(chan struct{})
	select {
	case s.control <- c:
	case <-s.done:
		return false
	}
	select {
	case <-c.applied:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) update(fn func(*SessionSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
}

func (s *Session) finish(err error) {
	s.mu.Lock()
	s.err = err
	s.snap.Running = false
	if err != nil {
		s.snap.Error = err.Error()
	}
	s.mu.Unlock()
	close(s.done)
}
