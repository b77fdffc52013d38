package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockLandmarkProvider is a test implementation of LandmarkProvider.
// It allows tests to control the landmark results.
type MockLandmarkProvider struct {
	mu     sync.Mutex
	faces  []FaceLandmarks
	hands  []HandLandmarks
	err    error
	calls  int
	closed bool
}

// NewMockLandmarkProvider creates a new MockLandmarkProvider instance.
func NewMockLandmarkProvider() *MockLandmarkProvider {
	return &MockLandmarkProvider{}
}

// SetFaces sets the faces returned by Landmarks.
func (m *MockLandmarkProvider) SetFaces(faces []FaceLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces = faces
}

// SetHands sets the hands returned by Landmarks.
func (m *MockLandmarkProvider) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error returned by Landmarks.
func (m *MockLandmarkProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many frames the mock has seen.
func (m *MockLandmarkProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Landmarks returns the pre-configured faces and hands or error.
func (m *MockLandmarkProvider) Landmarks(frame *gocv.Mat) (Landmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return Landmarks{}, m.err
	}
	return Landmarks{Faces: m.faces, Hands: m.hands}, nil
}

// Close marks the provider as closed.
func (m *MockLandmarkProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockLandmarkProvider) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MockObjectDetector is a test implementation of ObjectDetector.
type MockObjectDetector struct {
	mu         sync.Mutex
	detections []Detection
	err        error
	closed     bool
}

// NewMockObjectDetector creates a new MockObjectDetector instance.
func NewMockObjectDetector() *MockObjectDetector {
	return &MockObjectDetector{}
}

// SetDetections sets the detections returned by Detect.
func (m *MockObjectDetector) SetDetections(d []Detection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = d
}

// SetError sets the error returned by Detect.
func (m *MockObjectDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured detections or error.
func (m *MockObjectDetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.detections, nil
}

// Close marks the detector as closed.
func (m *MockObjectDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockObjectDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// FaceWithNoseAt returns a face landmark set whose nose tip sits at the given
// normalized horizontal position, vertically centered.
func FaceWithNoseAt(x float64) FaceLandmarks {
	points := make([]Point3D, NumFaceLandmarks)
	for i := range points {
		points[i] = Point3D{X: x, Y: 0.45}
	}
	points[NoseTip] = Point3D{X: x, Y: 0.5, Z: -0.05}
	return FaceLandmarks{Points: points}
}

// HandOnDesk returns a preset open hand resting in the lower part of the frame.
// Left hands sit on the left half of the image, right hands on the right.
func HandOnDesk(handedness string) HandLandmarks {
	hand := HandLandmarks{
		Handedness: handedness,
		Score:      0.95,
	}

	baseX := 0.7
	if handedness == "Left" {
		baseX = 0.3
	}

	for i := 0; i < NumHandLandmarks; i++ {
		finger := float64(i%5) * 0.02
		hand.Points[i] = Point3D{
			X: baseX + finger - 0.04,
			Y: 0.85 - float64(i/5)*0.02,
		}
	}
	hand.Points[Wrist] = Point3D{X: baseX, Y: 0.9}

	return hand
}
