package rig

import (
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/insectlab/bugradar/internal/detect"
	"github.com/insectlab/bugradar/internal/events"
	"github.com/insectlab/bugradar/internal/geometry"
	"github.com/insectlab/bugradar/internal/metrics"
	"github.com/insectlab/bugradar/internal/sessionlog"
	"github.com/insectlab/bugradar/internal/track"
)

// Params holds the calibration constants of the pipeline.
type Params struct {
	RigID          string
	FocalLengthPx  float64
	RealWidthM     map[string]float64 // physical width per species
	MetersPerPixel float64            // speed scale
	MaxTrail       int
	RadarSizePx    int
	RadarMarginPx  int
	RadarRangeM    float64
	ArrowLengthPx  int
	SnapshotEvery  int // frames between session log snapshots
}

// Annotated is one detection enriched with the derived measurements the
// overlay and radar need.
type Annotated struct {
	detect.Detection
	DistanceM  float64
	AngleDeg   float64
	SpeedMPS   float64
	RadarPoint image.Point
	ArrowTip   image.Point
	HasArrow   bool
}

// FrameOutput is everything downstream consumers render or publish for
// one processed frame.
type FrameOutput struct {
	FrameID   int
	Objects   []Annotated
	Trails    map[string][]image.Point
	LEDLabels map[string]bool
	OLEDLines []string
	FPS       float64
}

// Service ties the tracker, session log, and event publisher together.
// It is deliberately free of camera and rendering concerns so the whole
// pipeline is testable off-device.
type Service struct {
	params    Params
	tracker   *track.Tracker
	store     *sessionlog.Store
	publisher events.Publisher

	mu        sync.Mutex
	frameID   int
	lastFrame time.Time
	fps       float64
}

func NewService(params Params, store *sessionlog.Store, publisher events.Publisher) *Service {
	if params.SnapshotEvery <= 0 {
		params.SnapshotEvery = 30
	}
	if params.ArrowLengthPx <= 0 {
		params.ArrowLengthPx = 40
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		params:    params,
		tracker:   track.NewTracker(params.MaxTrail, params.MetersPerPixel),
		store:     store,
		publisher: publisher,
	}
}

// ProcessFrame derives distance, bearing and speed for each detection,
// updates per-species tracking, publishes the frame's payload, and
// periodically snapshots the session log.
func (s *Service) ProcessFrame(detections []detect.Detection, frameW, frameH int, now time.Time) (*FrameOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameID++
	metrics.RecordFrame()
	s.updateFPS(now)

	out := &FrameOutput{
		FrameID:   s.frameID,
		LEDLabels: map[string]bool{},
		FPS:       s.fps,
	}

	seen := map[string]bool{}
	for _, d := range detections {
		realWidth, ok := s.params.RealWidthM[d.Label]
		if !ok {
			continue
		}

		center := d.Center()
		dist := geometry.DistanceMeters(float64(d.WidthPx()), realWidth, s.params.FocalLengthPx)
		angle := geometry.BearingDegrees(center.X, frameW)
		radarPt := geometry.ProjectRadar(
			geometry.RadarNormX(center.X, frameW),
			dist, s.params.RadarSizePx, s.params.RadarMarginPx, s.params.RadarRangeM)

		ann := Annotated{
			Detection:  d,
			DistanceM:  dist,
			AngleDeg:   angle,
			RadarPoint: radarPt,
		}

		if prev, ok := s.tracker.PrevCenter(d.Label); ok {
			if tip, ok := geometry.ArrowEndpoint(prev, center, s.params.ArrowLengthPx); ok {
				ann.ArrowTip = tip
				ann.HasArrow = true
			}
		}

		ann.SpeedMPS = s.tracker.Observe(track.Observation{
			Label:      d.Label,
			Center:     center,
			DistanceM:  dist,
			AngleDeg:   angle,
			Confidence: float64(d.Confidence),
			RadarPoint: radarPt,
		}, now, s.frameID)

		out.Objects = append(out.Objects, ann)
		out.LEDLabels[d.Label] = true
		seen[d.Label] = true
		metrics.RecordDetection(d.Label)
	}

	s.tracker.Prune(seen)
	out.Trails = s.tracker.Trails()

	if nearest, ok := s.tracker.Nearest(); ok {
		metrics.SetNearestDistance(nearest.DistanceM)
	}

	out.OLEDLines = s.statusLines(out)

	if err := s.publish(out, frameW, frameH, now); err != nil {
		log.Printf("[Rig] publish failed: %v", err)
		metrics.RecordPublishFailure()
	}

	if s.frameID%s.params.SnapshotEvery == 0 {
		if err := s.snapshotLocked(now); err != nil {
			return out, fmt.Errorf("snapshot: %w", err)
		}
	}
	return out, nil
}

// Close writes the final session snapshot. Call on shutdown.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(time.Now())
}

// snapshotLocked records the running summary under the snapshot time, so
// every snapshot of a run becomes its own session entry in the log.
func (s *Service) snapshotLocked(now time.Time) error {
	if s.store == nil {
		return nil
	}
	summary := s.tracker.Summary()
	if len(summary) == 0 {
		return nil
	}
	if err := s.store.Snapshot(now, summary); err != nil {
		return err
	}
	if nearest, ok := s.tracker.Nearest(); ok {
		s.store.SetNearest(nearest)
		if err := s.store.Flush(); err != nil {
			return err
		}
	}
	metrics.RecordSnapshot()
	return nil
}

func (s *Service) updateFPS(now time.Time) {
	if !s.lastFrame.IsZero() {
		dt := now.Sub(s.lastFrame).Seconds()
		if dt > 0 {
			inst := 1.0 / dt
			if s.fps == 0 {
				s.fps = inst
			} else {
				// Exponential smoothing keeps the OLED readable.
				s.fps = 0.9*s.fps + 0.1*inst
			}
		}
	}
	s.lastFrame = now
	metrics.SetPipelineFPS(s.fps)
}

// statusLines formats the display for the closest detection in the
// current frame.
func (s *Service) statusLines(out *FrameOutput) []string {
	lines := []string{fmt.Sprintf("Insects: %d", len(out.Objects))}
	if len(out.Objects) == 0 {
		return append(lines, "Nearest: --", "Distance: --", "Speed: --")
	}

	nearest := out.Objects[0]
	for _, obj := range out.Objects[1:] {
		if obj.DistanceM < nearest.DistanceM {
			nearest = obj
		}
	}
	return append(lines,
		fmt.Sprintf("Nearest: %s", nearest.Label),
		fmt.Sprintf("Distance: %.2fm", nearest.DistanceM),
		fmt.Sprintf("Speed: %.2f m/s", nearest.SpeedMPS),
	)
}

func (s *Service) publish(out *FrameOutput, frameW, frameH int, now time.Time) error {
	payload := &events.Payload{
		RigID:    s.params.RigID,
		TSUnixMS: now.UnixMilli(),
		FrameID:  out.FrameID,
	}
	frameRect := image.Rect(0, 0, frameW, frameH)
	for _, obj := range out.Objects {
		// Boxes can cross the frame edge; normalize the visible part so
		// the payload keeps x+w and y+h within [0,1].
		box := obj.Box.Intersect(frameRect)
		payload.Objects = append(payload.Objects, events.Object{
			Label:      obj.Label,
			Confidence: float64(obj.Confidence),
			BBox: events.BBox{
				X: float64(box.Min.X) / float64(frameW),
				Y: float64(box.Min.Y) / float64(frameH),
				W: float64(box.Dx()) / float64(frameW),
				H: float64(box.Dy()) / float64(frameH),
			},
			DistanceM: obj.DistanceM,
			AngleDeg:  geometry.Round1(obj.AngleDeg),
			SpeedMPS:  obj.SpeedMPS,
		})
	}
	return s.publisher.Publish(payload)
}
