package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/proctorvision/internal/config"
	"github.com/ayusman/proctorvision/internal/detector"
	"github.com/ayusman/proctorvision/internal/logger"
)

// useMockDetectors makes buildRuntime construct mocks instead of the real
// collaborators.
func useMockDetectors(t *testing.T) (*detector.MockLandmarkProvider, *detector.MockObjectDetector) {
	t.Helper()

	lp := detector.NewMockLandmarkProvider()
	od := detector.NewMockObjectDetector()

	prevLP, prevOD := newLandmarkProvider, newObjectDetector
	newLandmarkProvider = func(detector.Config) (detector.LandmarkProvider, error) { return lp, nil }
	newObjectDetector = func(detector.Config) (detector.ObjectDetector, error) { return od, nil }
	t.Cleanup(func() {
		newLandmarkProvider, newObjectDetector = prevLP, prevOD
	})

	return lp, od
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	c := config.DefaultConfig()
	c.DataDir = t.TempDir()
	c.Resolve()
	return c
}

func TestBuildRuntime_ClosesDetectors(t *testing.T) {
	lp, od := useMockDetectors(t)

	rt, err := buildRuntime(testConfig(t), logger.Discard(), buildOptions{evidence: true})
	if err != nil {
		t.Fatalf("buildRuntime() error = %v", err)
	}
	if rt.app == nil || rt.store == nil {
		t.Fatal("expected app and store to be built")
	}
	if lp.Closed() || od.Closed() {
		t.Fatal("detectors closed too early")
	}

	rt.Close()

	if !lp.Closed() || !od.Closed() {
		t.Errorf("detectors not closed: landmarks=%v objects=%v", lp.Closed(), od.Closed())
	}
}

func TestBuildRuntime_ClosesDetectorsOnError(t *testing.T) {
	lp, od := useMockDetectors(t)

	c := testConfig(t)
	blocker := filepath.Join(c.DataDir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	c.EvidenceDir = filepath.Join(blocker, "screenshots")

	if _, err := buildRuntime(c, logger.Discard(), buildOptions{evidence: true}); err == nil {
		t.Fatal("expected an error when the evidence directory cannot be created")
	}

	if !lp.Closed() || !od.Closed() {
		t.Errorf("detectors leaked: landmarks=%v objects=%v", lp.Closed(), od.Closed())
	}
}
