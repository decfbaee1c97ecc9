package detect

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParams() Params {
	return Params{
		ConfThreshold: 0.25,
		NMSThreshold:  0.45,
		MinBoxPx:      10,
		Labels:        map[int]string{2: "fly", 3: "cockroach"},
	}
}

// row builds [cx, cy, w, h, scores...] with nc=4 classes.
func row(cx, cy, w, h float32, classID int, score float32) []float32 {
	r := []float32{cx, cy, w, h, 0, 0, 0, 0}
	r[4+classID] = score
	return r
}

func TestDecodeRows_ThresholdAndLabelFilter(t *testing.T) {
	rows := [][]float32{
		row(100, 100, 40, 40, 2, 0.9),  // fly, kept
		row(200, 200, 40, 40, 3, 0.3),  // cockroach, kept (above 0.25)
		row(300, 300, 40, 40, 2, 0.1),  // below threshold
		row(400, 400, 40, 40, 0, 0.99), // unmapped class
	}

	cands := decodeRows(rows, 1, 1, testParams())
	require.Len(t, cands, 2)
	assert.Equal(t, 2, cands[0].classID)
	assert.Equal(t, 3, cands[1].classID)
}

func TestDecodeRows_MinBoxFilter(t *testing.T) {
	rows := [][]float32{
		row(100, 100, 8, 40, 2, 0.9), // too narrow
		row(100, 100, 40, 8, 2, 0.9), // too short
		row(100, 100, 12, 12, 2, 0.9),
	}
	cands := decodeRows(rows, 1, 1, testParams())
	assert.Len(t, cands, 1)
}

func TestDecodeRows_ScalesBackToFrame(t *testing.T) {
	// Inference at 640, frame at 1280x960 -> scale 2.0 / 1.5.
	rows := [][]float32{row(320, 320, 100, 100, 2, 0.9)}
	cands := decodeRows(rows, 2.0, 1.5, testParams())
	require.Len(t, cands, 1)

	assert.Equal(t, image.Rect(540, 405, 740, 555), cands[0].box)
}

func TestSuppress_OverlappingSameClass(t *testing.T) {
	p := testParams()
	cands := []candidate{
		{box: image.Rect(0, 0, 100, 100), score: 0.9, classID: 2},
		{box: image.Rect(5, 5, 105, 105), score: 0.7, classID: 2}, // heavy overlap, dropped
		{box: image.Rect(300, 300, 400, 400), score: 0.6, classID: 2},
	}
	dets := suppress(cands, p)
	require.Len(t, dets, 2)
	assert.Equal(t, "fly", dets[0].Label)
	assert.Equal(t, float32(0.9), dets[0].Confidence)
}

func TestSuppress_DifferentClassesNotSuppressed(t *testing.T) {
	p := testParams()
	cands := []candidate{
		{box: image.Rect(0, 0, 100, 100), score: 0.9, classID: 2},
		{box: image.Rect(5, 5, 105, 105), score: 0.7, classID: 3},
	}
	dets := suppress(cands, p)
	assert.Len(t, dets, 2)
}

func TestPostprocess_EndToEnd(t *testing.T) {
	rows := [][]float32{
		row(100, 100, 40, 40, 2, 0.9),
		row(102, 102, 40, 40, 2, 0.8), // duplicate of the first
		row(500, 200, 60, 30, 3, 0.5),
	}
	dets := Postprocess(rows, 1, 1, testParams())
	require.Len(t, dets, 2)

	labels := []string{dets[0].Label, dets[1].Label}
	assert.Contains(t, labels, "fly")
	assert.Contains(t, labels, "cockroach")
}

func TestDetectionHelpers(t *testing.T) {
	d := Detection{Box: image.Rect(10, 20, 50, 80)}
	assert.Equal(t, image.Pt(30, 50), d.Center())
	assert.Equal(t, 40, d.WidthPx())
}

func TestIOU(t *testing.T) {
	a := image.Rect(0, 0, 10, 10)
	assert.Equal(t, float32(1), iou(a, a))
	assert.Equal(t, float32(0), iou(a, image.Rect(20, 20, 30, 30)))

	// Half overlap: inter 50, union 150.
	b := image.Rect(5, 0, 15, 10)
	assert.InDelta(t, 50.0/150.0, float64(iou(a, b)), 1e-6)
}
