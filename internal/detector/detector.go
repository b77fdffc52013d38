package detector

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrServiceNotFound is returned when the landmark service script cannot be located.
var ErrServiceNotFound = errors.New("landmark service not found")

// ErrModelNotFound is returned when the object detection model file is missing.
var ErrModelNotFound = errors.New("object detection model not found")

// LandmarkProvider locates faces and hands in a frame.
type LandmarkProvider interface {
	// Landmarks analyzes a video frame and returns every detected face and hand.
	// Empty slices mean nothing was found.
	Landmarks(frame *gocv.Mat) (Landmarks, error)

	// Close releases any resources held by the provider.
	Close() error
}

// ObjectDetector finds labelled objects in a frame.
type ObjectDetector interface {
	// Detect returns every detection the model reports for the frame.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for the perception collaborators.
type Config struct {
	// MaxFaces is the maximum number of faces the landmark service reports (default: 1).
	MaxFaces int

	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the landmark detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the landmark tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64

	// ScriptPath overrides the landmark service lookup.
	ScriptPath string

	// PythonPath overrides the interpreter lookup.
	PythonPath string

	// ModelPath is the YOLO ONNX model used for object detection.
	ModelPath string

	// InputSize is the square network input size of the object model.
	InputSize int

	// ScoreThreshold drops object candidates below this class score before NMS.
	ScoreThreshold float32

	// NMSThreshold is the IoU threshold used for non-maximum suppression.
	NMSThreshold float32
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxFaces:        1,
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
		ModelPath:       "models/yolov8n.onnx",
		InputSize:       640,
		ScoreThreshold:  0.25,
		NMSThreshold:    0.45,
	}
}
