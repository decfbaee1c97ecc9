package events

import "fmt"

// Payload is the per-frame detection message published on NATS and cached
// for the live view.
type Payload struct {
	RigID    string   `json:"rig_id"`
	TSUnixMS int64    `json:"ts_unix_ms"`
	AgeMS    int64    `json:"age_ms,omitempty"` // computed on read
	FrameID  int      `json:"frame_id"`
	Objects  []Object `json:"objects"`
}

type Object struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
	DistanceM  float64 `json:"distance_m"`
	AngleDeg   float64 `json:"angle_deg"`
	SpeedMPS   float64 `json:"speed_mps"`
}

// BBox is normalized to the frame: x,y,w,h in [0..1].
type BBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ValidLabels is the bounded insect label enum.
var ValidLabels = map[string]bool{
	"fly":       true,
	"cockroach": true,
}

const (
	MaxObjectsPerMsg = 50
	MaxPayloadSize   = 8 * 1024 // bytes, enforced on ingest
)

// Validate checks payload constraints before publish or cache.
func Validate(p *Payload) error {
	if p.RigID == "" {
		return fmt.Errorf("missing rig_id")
	}
	if len(p.Objects) > MaxObjectsPerMsg {
		return fmt.Errorf("too many objects: %d > %d", len(p.Objects), MaxObjectsPerMsg)
	}
	for i, obj := range p.Objects {
		if !ValidLabels[obj.Label] {
			return fmt.Errorf("invalid label at index %d: %s", i, obj.Label)
		}
		if obj.Confidence < 0 || obj.Confidence > 1 {
			return fmt.Errorf("confidence out of range at index %d: %f", i, obj.Confidence)
		}
		b := obj.BBox
		if b.X < 0 || b.X > 1 || b.Y < 0 || b.Y > 1 {
			return fmt.Errorf("bbox x/y out of range at index %d", i)
		}
		if b.W <= 0 || b.H <= 0 {
			return fmt.Errorf("bbox w/h must be > 0 at index %d", i)
		}
		if b.X+b.W > 1 || b.Y+b.H > 1 {
			return fmt.Errorf("bbox exceeds bounds at index %d", i)
		}
		if obj.DistanceM < 0 {
			return fmt.Errorf("negative distance at index %d", i)
		}
	}
	return nil
}
