// Package proctor turns per-frame perception output into proctoring warnings.
//
// Three independent signals are reduced first: head orientation from the face
// landmarks, a hand count, and the set of prohibited items among the object
// detections. They are then combined into an ordered warning list, a
// compliance verdict and the decision whether the frame must be kept as
// evidence. Everything in this package is a pure function of its inputs.
package proctor

import "github.com/ayusman/proctorvision/internal/detector"

// Orientation is the discrete head orientation of the subject.
type Orientation string

const (
	NoFace         Orientation = "No Face Detected"
	LookingLeft    Orientation = "Looking Left"
	LookingRight   Orientation = "Looking Right"
	LookingForward Orientation = "Looking Forward"
)

// HeadDeadband is the half-width in pixels of the band around the frame
// center in which the nose counts as facing forward.
const HeadDeadband = 60

// FaceSelection picks which face decides the orientation when several are reported.
type FaceSelection string

const (
	// SelectLast uses the last face in the provider's output.
	SelectLast FaceSelection = "last"
	// SelectFirst uses the first face in the provider's output.
	SelectFirst FaceSelection = "first"
)

// ClassifyHead reduces the face landmark sets of one frame to an Orientation.
// width is the frame width in pixels.
func ClassifyHead(faces []detector.FaceLandmarks, width int, sel FaceSelection) Orientation {
	if len(faces) == 0 {
		return NoFace
	}

	face := faces[len(faces)-1]
	if sel == SelectFirst {
		face = faces[0]
	}

	nose, ok := face.Nose()
	if !ok {
		return NoFace
	}
	return ClassifyNose(nose.X*float64(width), width)
}

// ClassifyNose classifies a nose position already scaled to pixels.
func ClassifyNose(noseX float64, width int) Orientation {
	center := width / 2
	switch {
	case noseX < float64(center-HeadDeadband):
		return LookingLeft
	case noseX > float64(center+HeadDeadband):
		return LookingRight
	default:
		return LookingForward
	}
}

// CountHands returns the number of hands detected. No upper bound is applied.
func CountHands(hands []detector.HandLandmarks) int {
	return len(hands)
}
