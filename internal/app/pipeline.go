package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/gesture"
)

// Pipeline errors.
var (
	// ErrUpstream wraps failures of the frame source or pose detector.
	ErrUpstream = errors.New("upstream stream failure")
	// ErrUnknownGesture is returned when a gesture is not in the catalog.
	ErrUnknownGesture = errors.New("unknown gesture")
	// ErrNoSession is returned by commands that need a running session.
	ErrNoSession = errors.New("no running session")
	// ErrStopped is returned by Start after Stop.
	ErrStopped = errors.New("pipeline stopped")
)

// statsTimeout bounds the statistics write made on completion.
const statsTimeout = 5 * time.Second

// StatsRecorder persists completed repetitions.
type StatsRecorder interface {
	Increment(ctx context.Context, key string) (int64, error)
}

// PipelineConfig holds the tunables of the recognition pipeline.
type PipelineConfig struct {
	MinKeypointConfidence float64 `json:"minKeypointConfidence"`
	MaxRepetitions        int     `json:"maxRepetitions"`
	ReportBuffer          int     `json:"reportBuffer"`
}

// DefaultPipelineConfig returns the default pipeline settings.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MinKeypointConfidence: 0.2,
		MaxRepetitions:        gesture.DefaultMaxRepetitions,
		ReportBuffer:          DefaultReportBuffer,
	}
}

// Options select what a session recognizes and which camera it reads.
type Options struct {
	Gesture string
	Facing  capture.Facing
}

// Pipeline runs recognition sessions over a frame source. At most one
// session runs at a time; starting a new one cancels and waits for the
// previous one. Pose reports flow to reporters on a separate goroutine
// that lives as long as the pipeline.
type Pipeline struct {
	cfg      PipelineConfig
	source   capture.Source
	detector detector.Detector
	catalog  *gesture.Catalog
	stats    StatsRecorder
	sink     Sink

	reports   *Broadcaster
	poseStats *PoseStats

	// lifecycle serializes Start, Flip and Stop.
	lifecycle sync.Mutex

	mu          sync.Mutex
	session     *Session
	opts        Options
	parent      context.Context
	reporters   []Reporter
	reportSub   *Subscription
	reportDone  chan struct{}
	stopReports context.CancelFunc
	stopped     bool
}

// NewPipeline creates a pipeline. A nil sink discards presentation updates.
func NewPipeline(cfg PipelineConfig, source capture.Source, det detector.Detector, catalog *gesture.Catalog, stats StatsRecorder, sink Sink) *Pipeline {
	defaults := DefaultPipelineConfig()
	if cfg.MinKeypointConfidence <= 0 {
		cfg.MinKeypointConfidence = defaults.MinKeypointConfidence
	}
	if cfg.MaxRepetitions <= 0 {
		cfg.MaxRepetitions = defaults.MaxRepetitions
	}
	if cfg.ReportBuffer <= 0 {
		cfg.ReportBuffer = defaults.ReportBuffer
	}
	if sink == nil {
		sink = NopSink{}
	}

	poseStats := NewPoseStats()
	return &Pipeline{
		cfg:       cfg,
		source:    source,
		detector:  det,
		catalog:   catalog,
		stats:     stats,
		sink:      sink,
		reports:   NewBroadcaster(cfg.ReportBuffer),
		poseStats: poseStats,
		reporters: []Reporter{poseStats},
		opts:      Options{Facing: capture.FacingFront},
	}
}

// AddReporter registers r with the reporting goroutine.
func (p *Pipeline) AddReporter(r Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reporters = append(p.reporters, r)
}

// Reports returns the pose report broadcaster.
func (p *Pipeline) Reports() *Broadcaster {
	return p.reports
}

// ReportStats returns pose statistics gathered by the reporting goroutine.
func (p *Pipeline) ReportStats() PoseStatsSnapshot {
	snap := p.poseStats.Snapshot()

	p.mu.Lock()
	sub := p.reportSub
	p.mu.Unlock()
	if sub != nil {
		snap.Dropped = sub.Dropped()
	}
	return snap
}

// Start cancels any running session, waits for it to finish, then opens the
// source for opts.Facing and starts a new session. The session runs until
// ctx is cancelled, Stop is called, the source ends or an upstream error
// occurs.
//
// An empty facing keeps the current one. A gesture missing from the catalog
// is logged; frames are still displayed but never matched.
func (p *Pipeline) Start(ctx context.Context, opts Options) (*Session, error) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()
	return p.start(ctx, opts)
}

func (p *Pipeline) start(ctx context.Context, opts Options) (*Session, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, ErrStopped
	}
	prev := p.session
	if opts.Facing == "" {
		opts.Facing = p.opts.Facing
	}
	p.opts = opts
	p.parent = ctx
	p.mu.Unlock()

	if prev != nil {
		prev.Cancel()
		<-prev.Done()
	}

	p.startReporting()

	tmpl, ok := p.catalog.Lookup(opts.Gesture)
	if !ok && opts.Gesture != "" {
		log.Printf("Gesture %q not in catalog; frames will not be matched", opts.Gesture)
	}
	name := opts.Gesture
	if ok {
		name = tmpl.Name
	}

	if err := p.source.Open(opts.Facing); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	sctx, cancel := context.WithCancel(ctx)
	s := newSession(uuid.NewString(), opts.Facing, name, float64(p.cfg.MaxRepetitions), cancel)

	p.mu.Lock()
	p.session = s
	p.mu.Unlock()

	go p.run(sctx, s, tmpl)

	log.Printf("Session %s started (gesture %q, %s camera)", s.ID, name, opts.Facing)
	return s, nil
}

// startReporting launches the reporting goroutine on first use.
func (p *Pipeline) startReporting() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reportSub != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.reportSub = p.reports.Subscribe()
	p.reportDone = make(chan struct{})
	p.stopReports = cancel

	sub, done := p.reportSub, p.reportDone
	go func() {
		defer close(done)
		runReporting(ctx, sub, p.currentReporters)
	}()
}

func (p *Pipeline) currentReporters() []Reporter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reporters
}

// SelectGesture changes the active gesture and resets progress. Without a
// running session the choice applies to the next Start.
func (p *Pipeline) SelectGesture(name string) error {
	tmpl, ok := p.catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGesture, name)
	}

	p.mu.Lock()
	p.opts.Gesture = tmpl.Name
	s := p.session
	p.mu.Unlock()

	if s != nil {
		s.send(control{template: tmpl, gesture: tmpl.Name, reset: true})
	}
	return nil
}

// Retry resets the running session's progress.
func (p *Pipeline) Retry() error {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s == nil || !s.send(control{reset: true}) {
		return ErrNoSession
	}
	return nil
}

// Flip switches between the front and back camera by restarting the
// session with the opposite facing and the same gesture.
func (p *Pipeline) Flip() (*Session, error) {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	opts := p.opts
	parent := p.parent
	p.mu.Unlock()

	if parent == nil {
		parent = context.Background()
	}
	opts.Facing = opts.Facing.Toggle()
	return p.start(parent, opts)
}

// Stop cancels the running session, waits for it, and ends reporting after
// already published reports are delivered. The pipeline cannot be started
// again.
func (p *Pipeline) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	s := p.session
	done, stopReports := p.reportDone, p.stopReports
	p.mu.Unlock()

	if s != nil {
		s.Cancel()
		<-s.Done()
	}

	p.reports.Close()
	if done != nil {
		select {
		case <-done:
		case <-time.After(statsTimeout):
			stopReports()
			<-done
		}
		stopReports()
	}
	log.Println("Pipeline stopped")
}

// Session returns the current or most recent session, or nil.
func (p *Pipeline) Session() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Options returns the options the next Flip or restart would use.
func (p *Pipeline) Options() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts
}

// Snapshot describes the current session, or the pending options when no
// session has started.
func (p *Pipeline) Snapshot() SessionSnapshot {
	p.mu.Lock()
	s, opts := p.session, p.opts
	p.mu.Unlock()

	if s == nil {
		return SessionSnapshot{
			Gesture: opts.Gesture,
			Facing:  opts.Facing,
			Max:     float64(p.cfg.MaxRepetitions),
		}
	}
	return s.Snapshot()
}

// run executes the reader and classifier for s and records the outcome.
func (p *Pipeline) run(ctx context.Context, s *Session, tmpl *gesture.Template) {
	frames := make(chan *FrameEnvelope)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.acquire(gctx, s, frames)
	})
	g.Go(func() error {
		return p.classify(gctx, s, tmpl, frames)
	})

	err := g.Wait()
	if cerr := p.source.Close(); cerr != nil {
		log.Printf("Error closing frame source: %v", cerr)
	}
	s.cancel()
	s.finish(err)

	if err != nil {
		log.Printf("Session %s failed: %v", s.ID, err)
		p.sink.Failed(s.ID, err)
		return
	}
	log.Printf("Session %s ended", s.ID)
}

// acquire reads frames, runs pose detection and hands envelopes to the
// classifier. It owns each envelope until the send succeeds.
func (p *Pipeline) acquire(ctx context.Context, s *Session, out chan<- *FrameEnvelope) error {
	defer close(out)

	for {
		frame, err := p.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: read frame: %w", ErrUpstream, err)
		}

		poses, err := p.detector.Detect(frame.Image)
		if err != nil {
			frame.Close()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%w: detect poses in frame %d: %w", ErrUpstream, frame.ID, err)
		}

		env := &FrameEnvelope{
			ID:        frame.ID,
			SessionID: s.ID,
			Image:     frame.Image,
			Poses:     poses,
			Facing:    frame.Facing,
			At:        frame.Timestamp,
		}

		select {
		case out <- env:
		case <-ctx.Done():
			env.Close()
			return nil
		}
	}
}

// classify is the only goroutine that touches the session's counter and
// active template.
func (p *Pipeline) classify(ctx context.Context, s *Session, tmpl *gesture.Template, in <-chan *FrameEnvelope) error {
	counter := gesture.NewRepetitionCounter(p.cfg.MaxRepetitions)
	name := s.Gesture()

	for {
		select {
		case <-ctx.Done():
			return nil

		case c := <-s.control:
			if c.template != nil {
				tmpl = c.template
				name = c.gesture
			}
			if c.reset {
				counter.Reset()
			}
			s.update(func(snap *SessionSnapshot) {
				snap.Gesture = name
				snap.Count = counter.Count()
				snap.Completed = counter.Completed()
			})
			close(c.applied)
			p.sink.Progress(Progress{
				SessionID: s.ID,
				Gesture:   name,
				Count:     counter.Count(),
				Max:       counter.Max(),
				Completed: counter.Completed(),
			})

		case env, ok := <-in:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				env.Close()
				return nil
			}
			p.classifyFrame(ctx, s, tmpl, name, counter, env)
		}
	}
}

func (p *Pipeline) classifyFrame(ctx context.Context, s *Session, tmpl *gesture.Template, name string, counter *gesture.RepetitionCounter, env *FrameEnvelope) {
	p.reports.Publish(PoseReport{
		SessionID: s.ID,
		FrameID:   env.ID,
		Poses:     env.Poses,
		At:        env.At,
	})

	progress := Progress{SessionID: s.ID, Gesture: name}
	completed := false

	if tmpl != nil && len(env.Poses) > 0 {
		res, err := gesture.MatchPose(&env.Poses[0], tmpl, p.cfg.MinKeypointConfidence)
		if err == nil {
			progress.Attempted = true
			progress.Passed = res.Passed
			progress.Deviation = res.MeanAbsoluteDeviation
			completed = counter.Observe(res.Passed)
		}
	}

	progress.Count = counter.Count()
	progress.Max = counter.Max()
	progress.Completed = counter.Completed()

	s.update(func(snap *SessionSnapshot) {
		snap.Frames++
		if progress.Attempted {
			snap.Attempts++
			if progress.Passed {
				snap.Passes++
			}
		} else {
			snap.Dropped++
		}
		snap.Count = progress.Count
		snap.Completed = progress.Completed
	})

	p.sink.Display(env)
	env.Close()
	p.sink.Progress(progress)

	if completed {
		p.complete(ctx, s, tmpl)
	}
}

// complete records one finished repetition and notifies sinks.
func (p *Pipeline) complete(ctx context.Context, s *Session, tmpl *gesture.Template) {
	ev := Completion{
		SessionID: s.ID,
		Gesture:   tmpl.Name,
		Kind:      tmpl.Kind(),
		StatKey:   tmpl.StatKey(),
		At:        time.Now(),
	}

	if p.stats != nil {
		// The write must land even if the session is being cancelled.
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statsTimeout)
		total, err := p.stats.Increment(wctx, ev.StatKey)
		cancel()
		if err != nil {
			log.Printf("Failed to record %s completion: %v", ev.StatKey, err)
		}
		ev.Total = total
	}

	log.Printf("Completed %q (%s total %d)", ev.Gesture, ev.StatKey, ev.Total)
	p.sink.Completed(ev)
}
