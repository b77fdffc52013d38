package logger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  logrus.Level
	}{
		{level: "", want: logrus.InfoLevel},
		{level: "debug", want: logrus.DebugLevel},
		{level: "warn", want: logrus.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := New(Config{Level: tt.level, Output: &bytes.Buffer{}})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if log.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.want)
			}
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNew_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Output: &buf, NoColors: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	Component(log, "monitor").WithField("session_id", "s-1").Info("frame processed")

	out := buf.String()
	for _, want := range []string{"frame processed", "monitor", "s-1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q should contain %q", out, want)
		}
	}
}

func TestNew_SkipsFileInTestEnv(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	file := filepath.Join(t.TempDir(), "logs", "app.log")

	log, err := New(Config{File: file, Output: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	log.Info("hello")
}

func TestComponent_NilLogger(t *testing.T) {
	entry := Component(nil, "store")
	if entry.Data["component"] != "store" {
		t.Errorf("expected component field, got %v", entry.Data)
	}
}

func TestComponent_Hook(t *testing.T) {
	log, hook := test.NewNullLogger()

	Component(log, "evidence").Warn("disk full")

	if len(hook.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(hook.Entries))
	}
	if hook.LastEntry().Data["component"] != "evidence" {
		t.Errorf("unexpected fields %v", hook.LastEntry().Data)
	}
}
