package detect

import (
	"image"
	"sort"
)

// candidate is a raw box before suppression, still indexed by class.
type candidate struct {
	box     image.Rectangle
	score   float32
	classID int
}

// decodeRows converts ultralytics-style output rows into frame-space
// candidates. Each row is [cx, cy, w, h, class0, class1, ...] in inference
// coordinates; scaleX/scaleY map those back onto the captured frame.
func decodeRows(rows [][]float32, scaleX, scaleY float64, p Params) []candidate {
	var out []candidate
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		scores := row[4:]
		classID, score := argmax(scores)
		if score < p.ConfThreshold {
			continue
		}
		if _, ok := p.Labels[classID]; !ok {
			continue
		}

		cx, cy := float64(row[0])*scaleX, float64(row[1])*scaleY
		halfW, halfH := float64(row[2])/2*scaleX, float64(row[3])/2*scaleY
		box := image.Rect(
			int(cx-halfW), int(cy-halfH),
			int(cx+halfW), int(cy+halfH),
		)
		if box.Dx() < p.MinBoxPx || box.Dy() < p.MinBoxPx {
			continue
		}
		out = append(out, candidate{box: box, score: score, classID: classID})
	}
	return out
}

// suppress runs per-class non-maximum suppression and maps the survivors to
// labeled detections.
func suppress(cands []candidate, p Params) []Detection {
	sorted := make([]candidate, len(cands))
	copy(sorted, cands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].score > sorted[j].score })

	suppressed := make([]bool, len(sorted))
	var kept []Detection
	for i, c := range sorted {
		if suppressed[i] {
			continue
		}
		kept = append(kept, Detection{
			Box:        c.box,
			Label:      p.Labels[c.classID],
			Confidence: c.score,
		})
		for j := i + 1; j < len(sorted); j++ {
			if suppressed[j] || sorted[j].classID != c.classID {
				continue
			}
			if iou(c.box, sorted[j].box) > p.NMSThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}

// Postprocess is the full pure pipeline: decode, filter, suppress.
func Postprocess(rows [][]float32, scaleX, scaleY float64, p Params) []Detection {
	return suppress(decodeRows(rows, scaleX, scaleY, p), p)
}

func argmax(scores []float32) (int, float32) {
	best, bestScore := 0, float32(-1)
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, bestScore
}

func iou(a, b image.Rectangle) float32 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	interArea := float32(inter.Dx() * inter.Dy())
	union := float32(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - interArea
	if union <= 0 {
		return 0
	}
	return interArea / union
}
