package detect

import "image"

// Detection is one model output after postprocessing: a pixel-space box in
// the full frame, the mapped class label and the confidence score.
type Detection struct {
	Box        image.Rectangle
	Label      string
	Confidence float32
}

// Center returns the box centroid.
func (d Detection) Center() image.Point {
	return image.Pt((d.Box.Min.X+d.Box.Max.X)/2, (d.Box.Min.Y+d.Box.Max.Y)/2)
}

// WidthPx returns the box width in pixels.
func (d Detection) WidthPx() int {
	return d.Box.Dx()
}

// Params bounds the postprocessing stage.
type Params struct {
	// ConfThreshold drops candidates below this score.
	ConfThreshold float32
	// NMSThreshold is the IoU above which overlapping same-class boxes are
	// suppressed.
	NMSThreshold float32
	// MinBoxPx drops boxes with either side shorter than this, after
	// scaling back to frame coordinates.
	MinBoxPx int
	// Labels maps model class indexes to insect labels. Classes without a
	// mapping are discarded.
	Labels map[int]string
}
