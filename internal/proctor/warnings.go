package proctor

import "fmt"

// Warning texts shown to the candidate.
const (
	WarnFaceNotVisible = "FACE NOT VISIBLE - Position yourself in camera view"
	WarnHeadLeft       = "HEAD TURNED LEFT - Look straight at the camera"
	WarnHeadRight      = "HEAD TURNED RIGHT - Look straight at the camera"
	WarnNoHands        = "NO HANDS VISIBLE - Keep both hands on the desk"
	WarnOneHand        = "ONLY ONE HAND VISIBLE - Show both hands on desk"
)

// RequiredHands is the only hand count considered compliant.
const RequiredHands = 2

// DeviceWarning returns the warning for a prohibited item.
func DeviceWarning(name string) string {
	return fmt.Sprintf("PROHIBITED DEVICE: %s - Remove immediately", name)
}

// Aggregate combines the three signals into ordered warnings and a compliance
// verdict. The head warning comes first, then the hand warning, then one
// warning per gadget in the order given.
//
// More than two hands produce no hand warning but are not compliant either.
func Aggregate(head Orientation, handCount int, gadgets []string) ([]string, bool) {
	warnings := make([]string, 0, 2+len(gadgets))

	switch head {
	case NoFace:
		warnings = append(warnings, WarnFaceNotVisible)
	case LookingLeft:
		warnings = append(warnings, WarnHeadLeft)
	case LookingRight:
		warnings = append(warnings, WarnHeadRight)
	}

	switch handCount {
	case 0:
		warnings = append(warnings, WarnNoHands)
	case 1:
		warnings = append(warnings, WarnOneHand)
	}

	for _, g := range gadgets {
		warnings = append(warnings, DeviceWarning(g))
	}

	compliant := head == LookingForward && handCount == RequiredHands && len(gadgets) == 0
	return warnings, compliant
}

// EvidenceRequired reports whether a frame with these warnings and gadgets
// must be persisted. Any warning is enough.
func EvidenceRequired(warnings, gadgets []string) bool {
	return len(warnings) > 0 || len(gadgets) > 0
}
