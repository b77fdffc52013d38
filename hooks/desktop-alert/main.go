// Package main provides a violation hook that raises a desktop notification.
// It uses AppleScript on macOS and notify-send elsewhere.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Event is the violation payload written to stdin by the monitor.
type Event struct {
	SessionID  string   `json:"session_id"`
	Warnings   []string `json:"warnings"`
	Gadgets    []string `json:"gadgets"`
	HeadStatus string   `json:"head_status"`
	HandCount  int      `json:"hand_count"`
}

// Response is written to stdout.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func main() {
	var ev Event
	if err := json.NewDecoder(os.Stdin).Decode(&ev); err != nil {
		writeResponse(fmt.Errorf("failed to decode event: %w", err))
		return
	}

	if len(ev.Warnings) == 0 {
		writeResponse(nil)
		return
	}

	title := "ProctorVision"
	if ev.SessionID != "" {
		title += " - " + ev.SessionID
	}
	writeResponse(notifyDesktop(title, strings.Join(ev.Warnings, "\n")))
}

func notifyDesktop(title, body string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		cmd = exec.Command("osascript", "-e", script)
	default:
		cmd = exec.Command("notify-send", title, body)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", cmd.Path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
