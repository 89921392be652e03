package tray

import (
	"errors"
	"testing"

	"github.com/ayusman/handson/internal/app"
)

var _ app.Sink = (*Tray)(nil)

func TestProgressTitle(t *testing.T) {
	tests := []struct {
		name string
		p    app.Progress
		want string
	}{
		{"no gesture", app.Progress{}, "Hands-On"},
		{"idle", app.Progress{Gesture: "B", Max: 50}, "B 0/50"},
		{"accumulating", app.Progress{Gesture: "I Love You", Count: 12, Max: 50}, "I Love You 12/50"},
		{"completed", app.Progress{Gesture: "B", Count: 50, Max: 50, Completed: true}, "B 50/50 ✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressTitle(tt.p); got != tt.want {
				t.Errorf("ProgressTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCompletionText(t *testing.T) {
	got := CompletionText(app.Completion{Gesture: "B", StatKey: "Letters", Total: 4})
	if got != "Last: B (Letters 4)" {
		t.Errorf("CompletionText() = %q", got)
	}
}

func TestTray_SinkBeforeRun(t *testing.T) {
	tr := New()

	// Updates before the tray is ready are remembered, not drawn.
	tr.Display(nil)
	tr.Progress(app.Progress{Gesture: "B", Count: 3, Max: 50})
	tr.Completed(app.Completion{Gesture: "B", StatKey: "Letters", Total: 1})

	if got := tr.Title(); got != "B 3/50" {
		t.Errorf("Title() = %q, want B 3/50", got)
	}

	tr.Failed("s-1", errors.New("camera unplugged"))
	if got := tr.Title(); got != "Hands-On (camera stopped)" {
		t.Errorf("Title() after failure = %q", got)
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New()

	var flips, retries int
	tr.OnFlip(func() { flips++ })
	tr.OnRetry(func() { retries++ })

	tr.call(func() func() { return tr.onFlip })
	tr.call(func() func() { return tr.onRetry })
	tr.call(func() func() { return tr.onOpen })

	if flips != 1 || retries != 1 {
		t.Errorf("flips=%d retries=%d, want 1 and 1", flips, retries)
	}
}
