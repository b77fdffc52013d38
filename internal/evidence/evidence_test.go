package evidence

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestFilePersister_Persist(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "screenshots")

	p, err := NewFilePersister(dir)
	if err != nil {
		t.Fatalf("NewFilePersister() error = %v", err)
	}
	p.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }

	frame := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	path, err := p.Persist(&frame)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	if filepath.Dir(path) != dir {
		t.Errorf("evidence written to %q, want directory %q", path, dir)
	}
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "violation_20260314_092653_") || !strings.HasSuffix(base, ".jpg") {
		t.Errorf("unexpected file name %q", base)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Errorf("expected non-empty file at %q: %v", path, err)
	}
}

func TestFilePersister_SameSecondDoesNotCollide(t *testing.T) {
	p, err := NewFilePersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilePersister() error = %v", err)
	}
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	a, err := p.Persist(&frame)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	b, err := p.Persist(&frame)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if a == b {
		t.Errorf("expected distinct paths, both %q", a)
	}
}

func TestFilePersister_EmptyFrame(t *testing.T) {
	p, err := NewFilePersister(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilePersister() error = %v", err)
	}

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := p.Persist(&empty); err == nil {
		t.Error("expected error for empty frame")
	}
	if _, err := p.Persist(nil); err == nil {
		t.Error("expected error for nil frame")
	}
}

func TestMemoryPersister(t *testing.T) {
	m := NewMemoryPersister()
	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	ref, err := m.Persist(&frame)
	if err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if data, ok := m.Get(ref); !ok || len(data) == 0 {
		t.Errorf("expected stored bytes for %q", ref)
	}
	if refs := m.Refs(); len(refs) != 1 || refs[0] != ref {
		t.Errorf("Refs() = %v", refs)
	}

	want := errors.New("disk full")
	m.SetError(want)
	if _, err := m.Persist(&frame); !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}
