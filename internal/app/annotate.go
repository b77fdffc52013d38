package app

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/ayusman/proctorvision/internal/proctor"
)

var (
	compliantColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	violationColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
)

// Annotate draws the head status, hand count and warnings onto frame.
// The status lines are green for a compliant frame and red otherwise;
// warning lines are always red.
func Annotate(frame *gocv.Mat, r proctor.Result) {
	if frame == nil || frame.Empty() {
		return
	}

	status := violationColor
	if r.Compliant {
		status = compliantColor
	}

	gocv.PutText(frame, fmt.Sprintf("Head: %s", r.HeadStatus), image.Pt(10, 30),
		gocv.FontHersheySimplex, 0.8, status, 2)
	gocv.PutText(frame, fmt.Sprintf("Hands: %d", r.HandCount), image.Pt(10, 60),
		gocv.FontHersheySimplex, 0.8, status, 2)

	if len(r.Gadgets) > 0 {
		gocv.PutText(frame, fmt.Sprintf("Devices: %d", len(r.Gadgets)), image.Pt(10, 90),
			gocv.FontHersheySimplex, 0.8, violationColor, 2)
	}

	y := 120
	for _, w := range r.Warnings {
		if y > frame.Rows()-10 {
			break
		}
		gocv.PutText(frame, w, image.Pt(10, y), gocv.FontHersheySimplex, 0.6, violationColor, 2)
		y += 40
	}
}
