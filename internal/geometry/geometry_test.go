package geometry

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name    string
		widthPx float64
		realM   float64
		focalPx float64
		want    float64
	}{
		{"nominal", 120, 0.08, 1200, 0.8},
		{"closer is wider", 480, 0.08, 1200, 0.2},
		{"zero width", 0, 0.08, 1200, 0},
		{"negative width", -5, 0.08, 1200, 0},
		{"zero focal", 120, 0.08, 0, 0},
		{"zero real width", 120, 0, 1200, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, DistanceMeters(tc.widthPx, tc.realM, tc.focalPx), 1e-9)
		})
	}
}

func TestBearingDegrees(t *testing.T) {
	assert.Equal(t, 0.0, BearingDegrees(0, 640))
	assert.Equal(t, 90.0, BearingDegrees(320, 640))
	assert.Equal(t, 180.0, BearingDegrees(640, 640))
	assert.Equal(t, 0.0, BearingDegrees(100, 0))
}

func TestNormalizeBearing(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{45, 45},
		{90, 90},
		{135, -45},
		{180, 0},
		{270, -90},
		{360, 0},
		{-90, -90},
	}
	for _, tc := range tests {
		assert.InDelta(t, tc.want, NormalizeBearing(tc.in), 1e-9, "in=%v", tc.in)
	}
}

func TestSpeedMPS(t *testing.T) {
	prev := image.Pt(0, 0)
	cur := image.Pt(30, 40) // 50 px displacement

	got := SpeedMPS(prev, cur, time.Second, 0.02)
	assert.InDelta(t, 1.0, got, 1e-9)

	// Half a second doubles the speed.
	got = SpeedMPS(prev, cur, 500*time.Millisecond, 0.02)
	assert.InDelta(t, 2.0, got, 1e-9)

	assert.Equal(t, 0.0, SpeedMPS(prev, cur, 0, 0.02))
	assert.Equal(t, 0.0, SpeedMPS(prev, cur, -time.Second, 0.02))
}

func TestRadarNormX(t *testing.T) {
	assert.InDelta(t, -0.5, RadarNormX(0, 640), 1e-9)
	assert.InDelta(t, 0.0, RadarNormX(320, 640), 1e-9)
	assert.InDelta(t, 0.5, RadarNormX(640, 640), 1e-9)
}

func TestProjectRadar(t *testing.T) {
	// 300 px canvas, 20 px margin: center (150,150), max radius 130.
	pt := ProjectRadar(0, 1.0, 300, 20, 1.0)
	assert.Equal(t, image.Pt(150, 20), pt)

	// Beyond range clamps to the outer ring.
	far := ProjectRadar(0, 5.0, 300, 20, 1.0)
	assert.Equal(t, pt, far)

	// Half range, half radius.
	mid := ProjectRadar(0, 0.5, 300, 20, 1.0)
	assert.Equal(t, image.Pt(150, 85), mid)

	// Lateral offset moves along x.
	left := ProjectRadar(-0.5, 0.5, 300, 20, 1.0)
	assert.Equal(t, 150-65, left.X)
}

func TestArrowEndpoint(t *testing.T) {
	tip, ok := ArrowEndpoint(image.Pt(0, 0), image.Pt(10, 0), 40)
	assert.True(t, ok)
	assert.Equal(t, image.Pt(50, 0), tip)

	_, ok = ArrowEndpoint(image.Pt(5, 5), image.Pt(5, 5), 40)
	assert.False(t, ok)
}

func TestRoundHelpers(t *testing.T) {
	assert.Equal(t, 1.2, Round1(1.24))
	assert.Equal(t, 1.23, Round2(1.234))
	assert.Equal(t, 1.235, Round3(1.2346))
}
