package radar

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"github.com/insectlab/bugradar/internal/rig"
)

// Renderer draws the synthetic top-down views: a point radar showing the
// current positions and a trajectory radar showing movement arrows.
type Renderer struct {
	SizePx   int
	MarginPx int
	RangeM   float64
	RingM    float64 // distance between range rings
}

func NewRenderer(sizePx, marginPx int, rangeM, ringM float64) *Renderer {
	if ringM <= 0 {
		ringM = 0.2
	}
	return &Renderer{SizePx: sizePx, MarginPx: marginPx, RangeM: rangeM, RingM: ringM}
}

var (
	gridColor  = color.RGBA{R: 0, G: 80, B: 0, A: 255}
	textColor  = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	labelColor = map[string]color.RGBA{
		"fly":       {R: 0, G: 255, B: 0, A: 255},
		"cockroach": {R: 0, G: 255, B: 255, A: 255},
	}
	defaultColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func speciesColor(label string) color.RGBA {
	if c, ok := labelColor[label]; ok {
		return c
	}
	return defaultColor
}

// origin is the observer position, matching the geometry projection:
// canvas center, with the fan opening upward.
func (r *Renderer) origin() image.Point {
	return image.Pt(r.SizePx/2, r.SizePx/2)
}

// radiusPx converts meters to canvas pixels.
func (r *Renderer) radiusPx(meters float64) int {
	usable := float64(r.SizePx/2 - r.MarginPx)
	return int(meters / r.RangeM * usable)
}

// drawGrid paints the range rings and 45-degree spokes of the fan.
func (r *Renderer) drawGrid(canvas *gocv.Mat, title string) {
	origin := r.origin()

	for ring := r.RingM; ring <= r.RangeM+1e-9; ring += r.RingM {
		radius := r.radiusPx(ring)
		gocv.Ellipse(canvas, origin, image.Pt(radius, radius), 0, 180, 360, gridColor, 1)
		gocv.PutText(canvas, fmt.Sprintf("%.1fm", ring),
			image.Pt(origin.X+radius-18, origin.Y-4), gocv.FontHersheyPlain, 0.8, textColor, 1)
	}

	maxRadius := r.radiusPx(r.RangeM)
	for deg := 0; deg <= 180; deg += 45 {
		rad := float64(deg) * math.Pi / 180
		end := image.Pt(
			origin.X+int(float64(maxRadius)*math.Cos(rad)),
			origin.Y-int(float64(maxRadius)*math.Sin(rad)),
		)
		gocv.Line(canvas, origin, end, gridColor, 1)
	}

	gocv.PutText(canvas, title, image.Pt(8, 16), gocv.FontHersheyPlain, 1.0, textColor, 1)
}

// DrawPoints renders the point radar: one blip per current detection.
func (r *Renderer) DrawPoints(objects []rig.Annotated) gocv.Mat {
	canvas := gocv.NewMatWithSize(r.SizePx, r.SizePx, gocv.MatTypeCV8UC3)
	r.drawGrid(&canvas, "RADAR")

	for _, obj := range objects {
		c := speciesColor(obj.Label)
		gocv.Circle(&canvas, obj.RadarPoint, 4, c, -1)
		gocv.PutText(&canvas, fmt.Sprintf("%s %.2fm", obj.Label, obj.DistanceM),
			image.Pt(obj.RadarPoint.X+6, obj.RadarPoint.Y-6), gocv.FontHersheyPlain, 0.8, c, 1)
	}
	return canvas
}

// DrawTrails renders the trajectory radar: each species' recent path with
// arrows along consecutive trail points.
func (r *Renderer) DrawTrails(trails map[string][]image.Point) gocv.Mat {
	canvas := gocv.NewMatWithSize(r.SizePx, r.SizePx, gocv.MatTypeCV8UC3)
	r.drawGrid(&canvas, "TRAJECTORY")

	for label, trail := range trails {
		c := speciesColor(label)
		for i := 1; i < len(trail); i++ {
			if trail[i] == trail[i-1] {
				continue
			}
			gocv.ArrowedLine(&canvas, trail[i-1], trail[i], c, 1)
		}
		if len(trail) > 0 {
			last := trail[len(trail)-1]
			gocv.Circle(&canvas, last, 3, c, -1)
			gocv.PutText(&canvas, label, image.Pt(last.X+6, last.Y+4), gocv.FontHersheyPlain, 0.8, c, 1)
		}
	}
	return canvas
}
