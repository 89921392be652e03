package app

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/gesture"
)

// FrameEnvelope carries one frame and its detected poses from the reader to
// the classifier. The pipeline closes Image after Sink.Display returns;
// sinks that keep the image must clone it.
type FrameEnvelope struct {
	ID        uint64          `json:"id"`
	SessionID string          `json:"sessionId"`
	Image     *gocv.Mat       `json:"-"`
	Poses     []detector.Pose `json:"poses"`
	Facing    capture.Facing  `json:"facing"`
	At        time.Time       `json:"at"`
}

// Close releases the frame image.
func (e *FrameEnvelope) Close() {
	if e != nil && e.Image != nil {
		e.Image.Close()
		e.Image = nil
	}
}

// Progress is published after every classified frame and after control
// commands. Attempted is false when the frame had no usable hand.
type Progress struct {
	SessionID string  `json:"sessionId"`
	Gesture   string  `json:"gesture"`
	Count     float64 `json:"count"`
	Max       float64 `json:"max"`
	Completed bool    `json:"completed"`
	Attempted bool    `json:"attempted"`
	Passed    bool    `json:"passed"`
	Deviation float64 `json:"deviation"`
}

// Completion is published once per completed repetition.
type Completion struct {
	SessionID string       `json:"sessionId"`
	Gesture   string       `json:"gesture"`
	Kind      gesture.Kind `json:"kind"`
	StatKey   string       `json:"statKey"`
	Total     int64        `json:"total"`
	At        time.Time    `json:"at"`
}

// Sink receives presentation updates. All methods are called from a
// session's classifier goroutine, in frame order, and must not block for
// long.
type Sink interface {
	Display(env *FrameEnvelope)
	Progress(p Progress)
	Completed(c Completion)
	Failed(sessionID string, err error)
}

// MultiSink fans every update out to each sink in order.
type MultiSink []Sink

func (m MultiSink) Display(env *FrameEnvelope) {
	for _, s := range m {
		s.Display(env)
	}
}

func (m MultiSink) Progress(p Progress) {
	for _, s := range m {
		s.Progress(p)
	}
}

func (m MultiSink) Completed(c Completion) {
	for _, s := range m {
		s.Completed(c)
	}
}

func (m MultiSink) Failed(sessionID string, err error) {
	for _, s := range m {
		s.Failed(sessionID, err)
	}
}

// NopSink discards every update.
type NopSink struct{}

func (NopSink) Display(*FrameEnvelope) {}
func (NopSink) Progress(Progress)      {}
func (NopSink) Completed(Completion)   {}
func (NopSink) Failed(string, error)   {}
