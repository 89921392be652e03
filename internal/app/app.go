// Package app runs the gesture practice pipeline: frames in, repetition
// progress and completion events out.
package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/ayusman/handson/internal/capture"
	"github.com/ayusman/handson/internal/detector"
	"github.com/ayusman/handson/internal/gesture"
	"github.com/ayusman/handson/internal/plugin"
	"github.com/ayusman/handson/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	Store     *store.Store
	Catalog   *gesture.Catalog
	Source    capture.Source
	Detector  detector.Detector
	Pipeline  PipelineConfig
	PluginDir string
	// PluginTimeoutMs bounds each effect plugin run.
	PluginTimeoutMs int
	// Gesture and Facing are used when no setting was saved.
	Gesture string
	Facing  capture.Facing
	Sinks   []Sink
}

// App owns the pipeline and the collaborators that outlive sessions.
type App struct {
	config    Config
	store     *store.Store
	catalog   *gesture.Catalog
	detector  detector.Detector
	pipeline  *Pipeline
	pluginMgr *plugin.Manager
	effects   *plugin.Effects

	mu  sync.RWMutex
	ctx context.Context
}

// New creates a new App. Without a catalog the built-in templates are used;
// without a detector MediaPipe is tried, then the mock detector.
func New(config Config) (*App, error) {
	catalog := config.Catalog
	if catalog == nil {
		c, err := gesture.DefaultCatalog()
		if err != nil {
			return nil, err
		}
		catalog = c
	}

	det := config.Detector
	if det == nil {
		if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig()); err == nil {
			det = mp
			log.Println("Using MediaPipe hand detection")
		} else {
			log.Printf("MediaPipe not available (%v), using mock detector", err)
			det = detector.NewMockDetector()
		}
	}

	if config.Source == nil {
		return nil, errors.New("app: frame source is required")
	}

	a := &App{
		config:    config,
		store:     config.Store,
		catalog:   catalog,
		detector:  det,
		pluginMgr: plugin.NewManager(config.PluginDir),
	}
	a.effects = plugin.NewEffects(a.pluginMgr, plugin.NewExecutor(config.PluginTimeoutMs))

	sinks := append(MultiSink{}, config.Sinks...)
	sinks = append(sinks, effectSink{app: a})

	var stats StatsRecorder
	if config.Store != nil {
		stats = config.Store.Stats()
	}
	a.pipeline = NewPipeline(config.Pipeline, config.Source, det, catalog, stats, sinks)

	return a, nil
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	if err := a.pluginMgr.Discover(); err != nil {
		return err
	}
	log.Printf("Discovered %d plugins (%d completion effects)",
		len(a.pluginMgr.List()), len(a.pluginMgr.ForEvent(plugin.EventCompleted)))
	return nil
}

// Start begins a session with the saved gesture and facing. Sessions started
// later by Flip inherit ctx.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	opts := Options{
		Gesture: a.config.Gesture,
		Facing:  a.config.Facing,
	}
	if a.store != nil {
		if v, err := a.store.Settings().Get(ctx, store.SettingGesture); err == nil {
			opts.Gesture = v
		}
		if v, err := a.store.Settings().Get(ctx, store.SettingFacing); err == nil {
			if f, err := capture.ParseFacing(v); err == nil {
				opts.Facing = f
			}
		}
	}
	if opts.Gesture == "" {
		if names := a.catalog.Names(); len(names) > 0 {
			opts.Gesture = names[0]
		}
	}

	_, err := a.pipeline.Start(ctx, opts)
	return err
}

// Stop halts the pipeline, waits for effect plugins and closes the detector.
func (a *App) Stop() {
	a.pipeline.Stop()
	a.effects.Wait()

	if err := a.detector.Close(); err != nil {
		log.Printf("Error closing detector: %v", err)
	}
}

// SelectGesture makes name the active gesture and remembers it.
func (a *App) SelectGesture(name string) error {
	if err := a.pipeline.SelectGesture(name); err != nil {
		return err
	}
	a.saveSetting(store.SettingGesture, a.pipeline.Options().Gesture)
	return nil
}

// Retry resets progress on the current gesture.
func (a *App) Retry() error {
	return a.pipeline.Retry()
}

// Flip switches cameras and remembers the new facing.
func (a *App) Flip() error {
	s, err := a.pipeline.Flip()
	if err != nil {
		return err
	}
	a.saveSetting(store.SettingFacing, string(s.Facing))
	return nil
}

// Snapshot describes the current session.
func (a *App) Snapshot() SessionSnapshot {
	return a.pipeline.Snapshot()
}

// Report returns pose statistics from the reporting goroutine.
func (a *App) Report() PoseStatsSnapshot {
	return a.pipeline.ReportStats()
}

// AddReporter registers an additional pose reporter.
func (a *App) AddReporter(r Reporter) {
	a.pipeline.AddReporter(r)
}

// Catalog returns the gesture templates.
func (a *App) Catalog() *gesture.Catalog {
	return a.catalog
}

// Store returns the persistence store, or nil.
func (a *App) Store() *store.Store {
	return a.store
}

// Pipeline returns the recognition pipeline.
func (a *App) Pipeline() *Pipeline {
	return a.pipeline
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

func (a *App) context() context.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.ctx == nil {
		return context.Background()
	}
	return a.ctx
}

func (a *App) saveSetting(key, value string) {
	if a.store == nil {
		return
	}
	if err := a.store.Settings().Set(a.context(), key, value); err != nil {
		log.Printf("Failed to save %s setting: %v", key, err)
	}
}

// effectSink runs completion-effect plugins.
type effectSink struct {
	NopSink
	app *App
}

func (s effectSink) Completed(c Completion) {
	s.app.effects.Dispatch(s.app.context(), plugin.Request{
		Event:    plugin.EventCompleted,
		Gesture:  c.Gesture,
		Category: c.StatKey,
		Total:    c.Total,
		Session:  c.SessionID,
	})
}
