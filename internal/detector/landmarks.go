// Package detector provides the perception collaborators of the proctoring
// pipeline: a face/hand landmark provider and an object detector.
package detector

import "image"

// Face mesh landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/face_landmarker
const (
	// NoseTip is the reference point used for head orientation.
	NoseTip          = 1
	NumFaceLandmarks = 468
)

// Hand landmark indices following MediaPipe convention.
const (
	Wrist            = 0
	IndexMCP         = 5
	MiddleMCP        = 9
	PinkyMCP         = 17
	NumHandLandmarks = 21
)

// Point3D is a landmark position. X and Y are normalized to [0,1] relative to
// the frame width and height; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FaceLandmarks is the ordered landmark set of one detected face.
type FaceLandmarks struct {
	Points []Point3D `json:"points"`
}

// Nose returns the nose tip reference point.
// The second return value is false when the set is too short to contain it.
func (f FaceLandmarks) Nose() (Point3D, bool) {
	if len(f.Points) <= NoseTip {
		return Point3D{}, false
	}
	return f.Points[NoseTip], true
}

// HandLandmarks represents the 21 hand landmarks of one detected hand.
type HandLandmarks struct {
	Points     [NumHandLandmarks]Point3D `json:"points"`
	Handedness string                    `json:"handedness"` // "Left" or "Right"
	Score      float64                   `json:"score"`
}

// Landmarks is the output of a LandmarkProvider for one frame.
// Both slices may be empty.
type Landmarks struct {
	Faces []FaceLandmarks `json:"faces"`
	Hands []HandLandmarks `json:"hands"`
}

// Detection is a single object found by an ObjectDetector.
// Label is free-form; it is not restricted to a fixed vocabulary.
type Detection struct {
	Label      string          `json:"label"`
	Confidence float64         `json:"confidence"`
	Box        image.Rectangle `json:"box"`
}
