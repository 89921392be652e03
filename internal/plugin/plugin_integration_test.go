package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPlugin_Celebrate_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	pluginDir := findPluginDir("celebrate")
	if pluginDir == "" {
		t.Skip("celebrate plugin not found")
	}
	if _, err := os.Stat(filepath.Join(pluginDir, "celebrate")); err != nil {
		t.Skip("celebrate plugin not built")
	}

	mgr := NewManager(filepath.Dir(pluginDir))
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	plug, err := mgr.Get("celebrate")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !plug.Manifest.Handles(EventCompleted) {
		t.Fatal("celebrate should handle completed events")
	}

	executor := NewExecutor(5000)

	t.Run("completed event", func(t *testing.T) {
		resp, err := executor.Execute(context.Background(), plug, &Request{
			Event:    EventCompleted,
			Gesture:  "B",
			Category: "Letters",
			Total:    1,
		})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if !resp.Success {
			t.Errorf("expected success, got error %q", resp.Error)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		resp, err := executor.Execute(context.Background(), plug, &Request{Event: "invalid-event"})
		if err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if resp.Success {
			t.Error("expected failure for unknown event")
		}
	})
}

func findPluginDir(name string) string {
	candidates := []string{
		filepath.Join("../../plugins", name),
		filepath.Join("../../../plugins", name),
	}

	for _, dir := range candidates {
		manifest := filepath.Join(dir, "plugin.json")
		if _, err := os.Stat(manifest); err == nil {
			return dir
		}
	}
	return ""
}
