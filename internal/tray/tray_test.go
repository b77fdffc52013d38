package tray

import (
	"strings"
	"testing"
)

func TestLastLabel(t *testing.T) {
	tests := []struct {
		name    string
		warning string
		want    string
	}{
		{"empty", "", "Last: none"},
		{"short", "NO HANDS VISIBLE - Keep both hands on the desk", "Last: NO HANDS VISIBLE - Keep both hands on the desk"},
		{"truncated", "PROHIBITED DEVICE: Headphones/Earphones - Remove immediately", "Last: PROHIBITED DEVICE: Headphones/Earphones - Rem..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lastLabel(tt.warning)
			if got != tt.want {
				t.Errorf("lastLabel() = %q, want %q", got, tt.want)
			}
			if n := len([]rune(strings.TrimPrefix(got, "Last: "))); n > maxLabel {
				t.Errorf("label too long: %d runes", n)
			}
		})
	}
}

func TestTray_ToggleWithoutMenu(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("tray should start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] != false || got[1] != true {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if toggleLabel(false) == toggleLabel(true) {
		t.Error("toggle labels should differ")
	}
}

func TestTray_SetLastWarningCounts(t *testing.T) {
	tr := New()

	tr.SetLastWarning("HEAD TURNED LEFT - Look straight at the camera")
	tr.SetLastWarning("")
	tr.SetLastWarning("NO HANDS VISIBLE - Keep both hands on the desk")

	if tr.Violations() != 2 {
		t.Errorf("Violations() = %d, want 2", tr.Violations())
	}
	if violationsLabel(2) != "Flagged frames: 2" {
		t.Errorf("violationsLabel(2) = %q", violationsLabel(2))
	}
}

func TestTray_DashboardCallback(t *testing.T) {
	tr := New()
	called := false
	tr.OnDashboard(func() { called = true })

	tr.handleDashboard()

	if !called {
		t.Error("dashboard callback should be called")
	}
}
