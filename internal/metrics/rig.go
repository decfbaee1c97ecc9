package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rig pipeline metrics. All low-cardinality: the only label dimension is
// the two-species insect enum.

var (
	// FramesTotal counts frames pulled from the capture source
	FramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rig_frames_total",
			Help: "Total frames processed by the detection pipeline",
		},
	)

	// DetectionsTotal counts detections by species
	DetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rig_detections_total",
			Help: "Total detections by species label",
		},
		[]string{"label"},
	)

	// InferenceLatency tracks per-frame model latency
	InferenceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rig_inference_latency_ms",
			Help:    "Model inference latency in milliseconds",
			Buckets: []float64{20, 50, 100, 200, 500, 1000, 2000},
		},
		[]string{"model"},
	)

	// PipelineFPS is the measured end-to-end frame rate
	PipelineFPS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rig_pipeline_fps",
			Help: "Measured end-to-end frames per second",
		},
	)

	// NearestDistanceMeters is the running closest approach this run
	NearestDistanceMeters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rig_nearest_distance_meters",
			Help: "Closest estimated insect distance seen this run",
		},
	)

	// PublishFailuresTotal counts detection payloads that never reached the broker
	PublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rig_publish_failures_total",
			Help: "Detection payloads dropped after publish retries",
		},
	)

	// SnapshotsTotal counts session log snapshots written to disk
	SnapshotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rig_snapshots_total",
			Help: "Session log snapshots flushed to disk",
		},
	)
)

func RecordFrame() {
	FramesTotal.Inc()
}

func RecordDetection(label string) {
	DetectionsTotal.WithLabelValues(label).Inc()
}

func RecordInferenceLatency(model string, latencyMs float64) {
	InferenceLatency.WithLabelValues(model).Observe(latencyMs)
}

func SetPipelineFPS(fps float64) {
	PipelineFPS.Set(fps)
}

func SetNearestDistance(meters float64) {
	NearestDistanceMeters.Set(meters)
}

func RecordPublishFailure() {
	PublishFailuresTotal.Inc()
}

func RecordSnapshot() {
	SnapshotsTotal.Inc()
}
