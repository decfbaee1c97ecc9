package radar

import (
	"image"

	"gocv.io/x/gocv"
)

// Compose stacks the annotated camera frame above the two radar views
// into the single mat that goes to the recording. The camera frame is
// resized to twice the radar width so the panels line up.
func Compose(frame, points, trails gocv.Mat) gocv.Mat {
	radarW := points.Cols()
	radarH := points.Rows()

	resized := gocv.NewMat()
	gocv.Resize(frame, &resized, image.Pt(radarW*2, radarH), 0, 0, gocv.InterpolationLinear)
	defer resized.Close()

	bottom := gocv.NewMat()
	gocv.Hconcat(points, trails, &bottom)
	defer bottom.Close()

	out := gocv.NewMat()
	gocv.Vconcat(resized, bottom, &out)
	return out
}
