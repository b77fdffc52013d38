// Package tray provides a system tray interface for the ProctorVision monitor.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
)

// maxLabel bounds the length of the "Last:" menu entry.
const maxLabel = 48

// Tray represents the system tray application.
type Tray struct {
	onToggle    func(enabled bool)
	onDashboard func()
	onQuit      func()
	enabled     bool
	violations  int
	mu          sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuLast       *systray.MenuItem
	menuViolations *systray.MenuItem
}

// New creates a new Tray instance with monitoring enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when monitoring is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnDashboard sets the callback called when the dashboard item is clicked.
func (t *Tray) OnDashboard(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onDashboard = fn
}

// OnQuit sets the callback called when the quit item is clicked.
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

// Quit stops the tray loop.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("ProctorVision")
	systray.SetTooltip("ProctorVision exam monitoring")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleLabel(t.enabled), "Toggle monitoring")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem(lastLabel(""), "Last warning")
	t.menuLast.Disable()
	t.menuViolations = systray.AddMenuItem(violationsLabel(t.violations), "Flagged frames")
	t.menuViolations.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuDashboard := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit ProctorVision")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuDashboard.ClickedCh:
				t.handleDashboard()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

// handleToggle flips the monitoring state and notifies the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleLabel(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleDashboard() {
	t.mu.RLock()
	callback := t.onDashboard
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastWarning updates the last warning shown in the menu and, when the
// warning is non-empty, counts one more flagged frame.
func (t *Tray) SetLastWarning(warning string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if warning != "" {
		t.violations++
	}
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastLabel(warning))
	}
	if t.menuViolations != nil {
		t.menuViolations.SetTitle(violationsLabel(t.violations))
	}
}

// Violations returns the number of flagged frames seen.
func (t *Tray) Violations() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.violations
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleLabel(enabled bool) string {
	if enabled {
		return "● Monitoring enabled"
	}
	return "○ Monitoring paused"
}

func lastLabel(warning string) string {
	if warning == "" {
		return "Last: none"
	}
	r := []rune(warning)
	if len(r) > maxLabel {
		warning = string(r[:maxLabel-3]) + "..."
	}
	return "Last: " + warning
}

func violationsLabel(n int) string {
	return fmt.Sprintf("Flagged frames: %d", n)
}
