// Package evidence stores frames that were flagged by the proctoring pipeline.
package evidence

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// Persister stores a frame and returns a reference to it.
type Persister interface {
	Persist(frame *gocv.Mat) (string, error)
}

// FilePersister writes frames as JPEG files into a directory.
type FilePersister struct {
	dir string
	now func() time.Time
}

// NewFilePersister creates the directory if needed and returns a persister for it.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create evidence directory: %w", err)
	}
	return &FilePersister{dir: dir, now: time.Now}, nil
}

// Dir returns the directory evidence is written to.
func (p *FilePersister) Dir() string {
	return p.dir
}

// Persist writes the frame to violation_<timestamp>_<id>.jpg and returns its path.
// The random suffix keeps frames flagged within the same second apart.
func (p *FilePersister) Persist(frame *gocv.Mat) (string, error) {
	if frame == nil || frame.Empty() {
		return "", fmt.Errorf("persist evidence: empty frame")
	}

	name := fmt.Sprintf("violation_%s_%s.jpg",
		p.now().Format("20060102_150405"),
		uuid.NewString()[:8],
	)
	path := filepath.Join(p.dir, name)

	if ok := gocv.IMWrite(path, *frame); !ok {
		return "", fmt.Errorf("persist evidence: write %s failed", path)
	}
	return path, nil
}

// MemoryPersister keeps JPEG-encoded frames in memory. Used by tests.
type MemoryPersister struct {
	mu     sync.Mutex
	frames map[string][]byte
	order  []string
	err    error
}

// NewMemoryPersister creates an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{frames: make(map[string][]byte)}
}

// SetError makes subsequent Persist calls fail with err.
func (m *MemoryPersister) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Persist encodes and stores the frame under a generated reference.
func (m *MemoryPersister) Persist(frame *gocv.Mat) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}
	if frame == nil || frame.Empty() {
		return "", fmt.Errorf("persist evidence: empty frame")
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return "", fmt.Errorf("persist evidence: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())

	ref := "mem://" + uuid.NewString()
	m.frames[ref] = data
	m.order = append(m.order, ref)
	return ref, nil
}

// Refs returns the stored references in insertion order.
func (m *MemoryPersister) Refs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Get returns the JPEG bytes stored under ref.
func (m *MemoryPersister) Get(ref string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.frames[ref]
	return data, ok
}
