package plugin

import (
	"context"
	"log"
	"sync"
)

// Effects runs every plugin subscribed to an event. Runs are asynchronous so
// the recognition pipeline never waits on an external program.
type Effects struct {
	manager  *Manager
	executor *Executor

	wg sync.WaitGroup
}

// NewEffects creates an effect dispatcher over the manager's plugins.
func NewEffects(manager *Manager, executor *Executor) *Effects {
	return &Effects{manager: manager, executor: executor}
}

// Dispatch starts every plugin that handles req.Event and returns how many
// were started. Failures are logged.
func (e *Effects) Dispatch(ctx context.Context, req Request) int {
	plugins := e.manager.ForEvent(req.Event)
	for _, p := range plugins {
		e.wg.Add(1)
		go func(p *Plugin) {
			defer e.wg.Done()
			e.run(ctx, p, req)
		}(p)
	}
	return len(plugins)
}

func (e *Effects) run(ctx context.Context, p *Plugin, req Request) {
	resp, err := e.executor.Execute(ctx, p, &req)
	if err != nil {
		log.Printf("Plugin %s failed on %s: %v", p.Manifest.Name, req.Event, err)
		return
	}
	if !resp.Success {
		log.Printf("Plugin %s reported failure on %s: %s", p.Manifest.Name, req.Event, resp.Error)
	}
}

// Wait blocks until every dispatched run has finished.
func (e *Effects) Wait() {
	e.wg.Wait()
}
