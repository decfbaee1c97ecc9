package radar

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/insectlab/bugradar/internal/rig"
)

// DrawOverlay annotates the camera frame in place: bounding box, a
// "label distance speed" caption, and a direction arrow when the species
// moved since the previous frame.
func DrawOverlay(frame *gocv.Mat, objects []rig.Annotated) {
	for _, obj := range objects {
		c := speciesColor(obj.Label)
		gocv.Rectangle(frame, obj.Box, c, 2)

		caption := fmt.Sprintf("%s %.2fm %.2fm/s", obj.Label, obj.DistanceM, obj.SpeedMPS)
		gocv.PutText(frame, caption,
			image.Pt(obj.Box.Min.X, obj.Box.Min.Y-6), gocv.FontHersheyPlain, 1.0, c, 1)

		if obj.HasArrow {
			gocv.ArrowedLine(frame, obj.Center(), obj.ArrowTip, c, 2)
		}
	}
}

// DrawStatus paints the FPS counter in the frame corner.
func DrawStatus(frame *gocv.Mat, fps float64) {
	gocv.PutText(frame, fmt.Sprintf("%.1f FPS", fps),
		image.Pt(8, 20), gocv.FontHersheyPlain, 1.2, textColor, 1)
}
