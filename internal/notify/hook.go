package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// ErrHookNotFound is returned when a requested hook does not exist.
var ErrHookNotFound = errors.New("hook not found")

// HookManifest describes a hook's metadata.
type HookManifest struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Executable  string `json:"executable"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   HookManifest
	Path       string
	Executable string
}

// HookResponse is what a hook prints on stdout.
type HookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// HookRegistry discovers hooks in a directory.
// Each subdirectory holding a hook.json manifest is one hook.
type HookRegistry struct {
	dir   string
	hooks map[string]*Hook
	mu    sync.RWMutex
}

// NewHookRegistry creates a registry over dir.
func NewHookRegistry(dir string) *HookRegistry {
	return &HookRegistry{
		dir:   dir,
		hooks: make(map[string]*Hook),
	}
}

// Discover rescans the hook directory. A missing directory yields no hooks.
func (r *HookRegistry) Discover() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = make(map[string]*Hook)

	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		hookPath := filepath.Join(r.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(hookPath, "hook.json"))
		if err != nil {
			continue
		}

		var manifest HookManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			continue // invalid manifest
		}
		if manifest.Name == "" || manifest.Executable == "" {
			continue
		}

		r.hooks[manifest.Name] = &Hook{
			Manifest:   manifest,
			Path:       hookPath,
			Executable: filepath.Join(hookPath, manifest.Executable),
		}
	}

	return nil
}

// Get returns a hook by name.
func (r *HookRegistry) Get(name string) (*Hook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.hooks[name]
	if !ok {
		return nil, ErrHookNotFound
	}
	return h, nil
}

// List returns all discovered hooks sorted by name.
func (r *HookRegistry) List() []*Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hooks := make([]*Hook, 0, len(r.hooks))
	for _, h := range r.hooks {
		hooks = append(hooks, h)
	}
	sort.Slice(hooks, func(i, j int) bool {
		return hooks[i].Manifest.Name < hooks[j].Manifest.Name
	})
	return hooks
}

// Dir returns the hook directory path.
func (r *HookRegistry) Dir() string {
	return r.dir
}

// RunHook executes a hook with ev on stdin and parses its stdout.
func RunHook(ctx context.Context, h *Hook, ev Event, timeout time.Duration) (*HookResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, h.Executable)
	cmd.Dir = h.Path

	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("hook %s timeout after %s", h.Manifest.Name, timeout)
	}

	if err != nil {
		if s := stderr.String(); s != "" {
			return nil, fmt.Errorf("hook %s failed: %w, stderr: %s", h.Manifest.Name, err, s)
		}
		return nil, fmt.Errorf("hook %s failed: %w", h.Manifest.Name, err)
	}

	var resp HookResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hook %s response: %w, stdout: %s", h.Manifest.Name, err, stdout.String())
	}
	return &resp, nil
}

// HookNotifier runs every discovered hook for each event.
type HookNotifier struct {
	registry *HookRegistry
	timeout  time.Duration
}

// NewHookNotifier discovers hooks in dir.
func NewHookNotifier(dir string, timeout time.Duration) (*HookNotifier, error) {
	reg := NewHookRegistry(dir)
	if err := reg.Discover(); err != nil {
		return nil, fmt.Errorf("discover hooks in %s: %w", dir, err)
	}
	return &HookNotifier{registry: reg, timeout: timeout}, nil
}

// Registry returns the underlying hook registry.
func (n *HookNotifier) Registry() *HookRegistry {
	return n.registry
}

// Notify runs the hooks in name order. A hook answering success=false
// counts as a failure.
func (n *HookNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, h := range n.registry.List() {
		resp, err := RunHook(ctx, h, ev, n.timeout)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !resp.Success {
			errs = append(errs, fmt.Errorf("hook %s: %s", h.Manifest.Name, resp.Error))
		}
	}
	return errors.Join(errs...)
}
