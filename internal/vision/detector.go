package vision

import (
	"fmt"
	"image"
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/insectlab/bugradar/internal/detect"
	"github.com/insectlab/bugradar/internal/metrics"
)

// ModelSpec names one ONNX detector and the class index it maps to an
// insect label. The rig runs two single-species models side by side.
type ModelSpec struct {
	Name      string
	Path      string
	InputSize int // square input, e.g. 640
	Labels    map[int]string
}

type model struct {
	spec ModelSpec
	net  gocv.Net
}

// Detector runs the loaded models over a frame and merges their outputs.
type Detector struct {
	models []model
	params detect.Params
}

// NewDetector loads every model; a model that fails to load is skipped
// with a warning so a missing weights file doesn't take down the rig.
func NewDetector(specs []ModelSpec, params detect.Params) (*Detector, error) {
	d := &Detector{params: params}
	for _, spec := range specs {
		net := gocv.ReadNetFromONNX(spec.Path)
		if net.Empty() {
			log.Printf("[Vision] cannot load model %s from %s, skipping", spec.Name, spec.Path)
			continue
		}
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		d.models = append(d.models, model{spec: spec, net: net})
		log.Printf("[Vision] loaded model %s (%s)", spec.Name, spec.Path)
	}
	if len(d.models) == 0 {
		return nil, fmt.Errorf("no detection models could be loaded")
	}
	return d, nil
}

func (d *Detector) Close() {
	for i := range d.models {
		d.models[i].net.Close()
	}
}

// Detect runs all models on the frame and returns the merged, suppressed
// detections in frame coordinates.
func (d *Detector) Detect(frame gocv.Mat) []detect.Detection {
	var all []detect.Detection
	for i := range d.models {
		all = append(all, d.runModel(&d.models[i], frame)...)
	}
	return all
}

func (d *Detector) runModel(m *model, frame gocv.Mat) []detect.Detection {
	start := time.Now()

	inputSize := image.Pt(m.spec.InputSize, m.spec.InputSize)
	blob := gocv.BlobFromImage(frame, 1.0/255.0, inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	rows := extractRows(output)
	scaleX := float64(frame.Cols()) / float64(m.spec.InputSize)
	scaleY := float64(frame.Rows()) / float64(m.spec.InputSize)

	params := d.params
	params.Labels = m.spec.Labels
	detections := detect.Postprocess(rows, scaleX, scaleY, params)

	metrics.RecordInferenceLatency(m.spec.Name, float64(time.Since(start).Milliseconds()))
	return detections
}

// extractRows converts the ultralytics output tensor [1, C, N] into N
// candidate rows of [cx, cy, w, h, scores...].
func extractRows(output gocv.Mat) [][]float32 {
	cols := output.Rows() // attributes per candidate
	n := output.Cols()    // candidate count

	data, err := output.DataPtrFloat32()
	if err != nil || cols == 0 || n == 0 {
		return nil
	}

	rows := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		row := make([]float32, cols)
		for c := 0; c < cols; c++ {
			row[c] = data[c*n+i]
		}
		rows = append(rows, row)
	}
	return rows
}
