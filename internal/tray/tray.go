// Package tray provides a system tray interface for the Hands-On gesture trainer.
package tray

import (
	"fmt"
	"math"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handson/internal/app"
)

const appTitle = "Hands-On"

// Tray shows practice progress in the system tray and offers camera and
// session commands. It implements app.Sink.
type Tray struct {
	onFlip  func()
	onRetry func()
	onOpen  func()
	onQuit  func()
	mu      sync.RWMutex

	ready bool
	title string

	// Menu items stored for later updates
	menuStatus *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a new Tray instance.
func New() *Tray {
	return &Tray{title: appTitle}
}

// OnFlip sets the callback for the Flip camera menu item.
func (t *Tray) OnFlip(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFlip = fn
}

// OnRetry sets the callback for the Retry menu item.
func (t *Tray) OnRetry(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onRetry = fn
}

// OnOpen sets the callback for the Open trainer menu item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTooltip("Hands-On gesture trainer")

	menuStatus := systray.AddMenuItem("Waiting for camera", "Current gesture")
	menuStatus.Disable()
	menuLast := systray.AddMenuItem("Last: none", "Last completed repetition")
	menuLast.Disable()
	systray.AddSeparator()

	menuFlip := systray.AddMenuItem("Flip camera", "Switch between front and back camera")
	menuRetry := systray.AddMenuItem("Retry", "Restart progress on this gesture")
	menuOpen := systray.AddMenuItem("Open trainer...", "Open the trainer in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Hands-On")

	t.mu.Lock()
	t.menuStatus = menuStatus
	t.menuLast = menuLast
	t.ready = true
	systray.SetTitle(t.title)
	t.mu.Unlock()

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-menuFlip.ClickedCh:
				t.call(func() func() { return t.onFlip })
			case <-menuRetry.ClickedCh:
				t.call(func() func() { return t.onRetry })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	t.mu.Lock()
	t.ready = false
	t.mu.Unlock()
}

// call runs the callback chosen by get outside the lock.
func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.call(func() func() { return t.onQuit })
	systray.Quit()
}

// Display does nothing; the tray has no preview.
func (t *Tray) Display(*app.FrameEnvelope) {}

// Progress updates the tray title. The title only changes when the rounded
// count does, so frames that make no progress cost nothing.
func (t *Tray) Progress(p app.Progress) {
	t.setTitle(ProgressTitle(p))
}

// Completed records the repetition in the menu.
func (t *Tray) Completed(c app.Completion) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ready && t.menuLast != nil {
		t.menuLast.SetTitle(CompletionText(c))
	}
}

// Failed shows that the camera stopped.
func (t *Tray) Failed(_ string, err error) {
	t.setTitle(appTitle + " (camera stopped)")

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ready && t.menuStatus != nil {
		t.menuStatus.SetTitle("Error: " + err.Error())
	}
}

// Title returns the current tray title.
func (t *Tray) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

func (t *Tray) setTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if title == t.title {
		return
	}
	t.title = title
	if t.ready {
		systray.SetTitle(title)
		if t.menuStatus != nil {
			t.menuStatus.SetTitle(title)
		}
	}
}

// ProgressTitle formats progress as "gesture count/max".
func ProgressTitle(p app.Progress) string {
	if p.Gesture == "" {
		return appTitle
	}
	title := fmt.Sprintf("%s %d/%d", p.Gesture, int(math.Floor(p.Count)), int(p.Max))
	if p.Completed {
		title += " ✓"
	}
	return title
}

// CompletionText describes a completed repetition for the menu.
func CompletionText(c app.Completion) string {
	return fmt.Sprintf("Last: %s (%s %d)", c.Gesture, c.StatKey, c.Total)
}
