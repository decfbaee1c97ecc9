package geometry

import (
	"image"
	"math"
	"time"
)

// DistanceMeters estimates range from apparent width using the pinhole model:
// distance = realWidth * focal / widthPx. Any non-positive input yields 0.
func DistanceMeters(widthPx, realWidthM, focalPx float64) float64 {
	if widthPx <= 0 || realWidthM <= 0 || focalPx <= 0 {
		return 0
	}
	return (realWidthM * focalPx) / widthPx
}

// BearingDegrees maps the horizontal center position onto a 0..180 degree
// fan (left edge 0, right edge 180).
func BearingDegrees(centerX, frameWidth int) float64 {
	if frameWidth <= 0 {
		return 0
	}
	return float64(centerX) / float64(frameWidth) * 180.0
}

// NormalizeBearing folds an arbitrary angle into the forward-facing
// -90..90 range used by the polar session view.
func NormalizeBearing(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	if a > 180 {
		a -= 360
	}
	if a > 90 {
		a -= 180
	}
	return a
}

// SpeedMPS converts a centroid displacement over dt into meters per second
// using a flat pixel-to-meter factor. Zero when dt is not positive.
func SpeedMPS(prev, cur image.Point, dt time.Duration, metersPerPixel float64) float64 {
	if dt <= 0 {
		return 0
	}
	dx := float64(cur.X - prev.X)
	dy := float64(cur.Y - prev.Y)
	distPx := math.Hypot(dx, dy)
	return distPx * metersPerPixel / dt.Seconds()
}

// RadarNormX maps a horizontal center position to [-0.5, 0.5] with 0 at
// frame center.
func RadarNormX(centerX, frameWidth int) float64 {
	if frameWidth <= 0 {
		return 0
	}
	return float64(centerX)/float64(frameWidth) - 0.5
}

// ProjectRadar places a (normX, distance) pair onto a square radar canvas.
// The distance radius is clamped to the outer ring.
func ProjectRadar(normX, distanceM float64, sizePx, marginPx int, rangeM float64) image.Point {
	c := sizePx / 2
	maxR := float64(sizePx/2 - marginPx)
	r := maxR
	if rangeM > 0 {
		r = math.Min(maxR, distanceM/rangeM*maxR)
	}
	if r < 0 {
		r = 0
	}
	x := c + int(normX*maxR)
	y := c - int(r)
	return image.Pt(x, y)
}

// ArrowEndpoint returns the tip of a fixed-length direction arrow starting
// at cur and pointing along the motion vector from prev. Ok is false when
// the points coincide.
func ArrowEndpoint(prev, cur image.Point, lengthPx int) (image.Point, bool) {
	dx := float64(cur.X - prev.X)
	dy := float64(cur.Y - prev.Y)
	norm := math.Hypot(dx, dy)
	if norm < 1 {
		return image.Point{}, false
	}
	scale := float64(lengthPx)
	return image.Pt(
		cur.X+int(dx/norm*scale),
		cur.Y+int(dy/norm*scale),
	), true
}

// Round helpers shared by the session log schema.

func Round1(v float64) float64 { return math.Round(v*10) / 10 }
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
func Round3(v float64) float64 { return math.Round(v*1000) / 1000 }
