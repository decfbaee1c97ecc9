package track

import (
	"image"
	"math"
	"time"

	"github.com/insectlab/bugradar/internal/geometry"
)

// Observation is one detection enriched with the derived estimates.
type Observation struct {
	Label      string
	Center     image.Point
	DistanceM  float64
	AngleDeg   float64
	Confidence float64
	RadarPoint image.Point
}

// SpeciesSummary is the running per-label record for the session log:
// first and latest sighting plus a detection-frame count.
type SpeciesSummary struct {
	Count          int
	EntryAngleDeg  float64
	ExitAngleDeg   float64
	EntryDistanceM float64
	ExitDistanceM  float64
}

// NearestEncounter is the single closest detection seen so far.
type NearestEncounter struct {
	DistanceM float64
	Frame     int
	Label     string
	AngleDeg  float64
}

type speedState struct {
	center image.Point
	at     time.Time
	mps    float64
}

// Tracker keeps the per-label frame-to-frame state: previous centroids for
// direction arrows, a bounded trail of radar points, a speed estimate and
// the session summary. Tracking is per label rather than per individual,
// so two flies share one slot.
type Tracker struct {
	maxTrail       int
	metersPerPixel float64

	prevCenters map[string]image.Point
	speeds      map[string]speedState
	trails      map[string][]image.Point
	summary     map[string]*SpeciesSummary
	nearest     NearestEncounter
}

func NewTracker(maxTrail int, metersPerPixel float64) *Tracker {
	if maxTrail <= 0 {
		maxTrail = 30
	}
	return &Tracker{
		maxTrail:       maxTrail,
		metersPerPixel: metersPerPixel,
		prevCenters:    map[string]image.Point{},
		speeds:         map[string]speedState{},
		trails:         map[string][]image.Point{},
		summary:        map[string]*SpeciesSummary{},
		nearest:        NearestEncounter{DistanceM: math.Inf(1)},
	}
}

// PrevCenter returns the last-frame centroid for a label, before Observe
// overwrites it for the current frame.
func (t *Tracker) PrevCenter(label string) (image.Point, bool) {
	p, ok := t.prevCenters[label]
	return p, ok
}

// Observe folds one detection into the tracker state and returns the
// current speed estimate for its label.
func (t *Tracker) Observe(obs Observation, now time.Time, frameID int) float64 {
	// Speed: first sighting seeds the state at zero; afterwards the stored
	// sample only advances when time actually passed.
	st, ok := t.speeds[obs.Label]
	if !ok {
		t.speeds[obs.Label] = speedState{center: obs.Center, at: now}
	} else if dt := now.Sub(st.at); dt > 0 {
		mps := geometry.SpeedMPS(st.center, obs.Center, dt, t.metersPerPixel)
		t.speeds[obs.Label] = speedState{center: obs.Center, at: now, mps: mps}
	}
	speed := t.speeds[obs.Label].mps

	// Summary: entry values freeze on first sighting, exit values follow.
	s, ok := t.summary[obs.Label]
	if !ok {
		s = &SpeciesSummary{
			EntryAngleDeg:  obs.AngleDeg,
			EntryDistanceM: obs.DistanceM,
		}
		t.summary[obs.Label] = s
	}
	s.Count++
	s.ExitAngleDeg = obs.AngleDeg
	s.ExitDistanceM = obs.DistanceM

	// Nearest encounter is a strict running minimum.
	if obs.DistanceM < t.nearest.DistanceM {
		t.nearest = NearestEncounter{
			DistanceM: obs.DistanceM,
			Frame:     frameID,
			Label:     obs.Label,
			AngleDeg:  obs.AngleDeg,
		}
	}

	// Trail of projected radar points, bounded.
	trail := append(t.trails[obs.Label], obs.RadarPoint)
	if len(trail) > t.maxTrail {
		trail = trail[len(trail)-t.maxTrail:]
	}
	t.trails[obs.Label] = trail

	t.prevCenters[obs.Label] = obs.Center
	return speed
}

// Prune drops frame-to-frame state for labels not seen in the current
// frame. The summary and nearest encounter survive pruning.
func (t *Tracker) Prune(current map[string]bool) {
	for label := range t.trails {
		if !current[label] {
			delete(t.trails, label)
			delete(t.prevCenters, label)
			delete(t.speeds, label)
		}
	}
}

// Speed returns the current estimate for a label (0 if unseen).
func (t *Tracker) Speed(label string) float64 {
	return t.speeds[label].mps
}

// Trails returns a copy of the per-label radar trails.
func (t *Tracker) Trails() map[string][]image.Point {
	out := make(map[string][]image.Point, len(t.trails))
	for label, trail := range t.trails {
		cp := make([]image.Point, len(trail))
		copy(cp, trail)
		out[label] = cp
	}
	return out
}

// Summary returns a copy of the per-label running summary.
func (t *Tracker) Summary() map[string]SpeciesSummary {
	out := make(map[string]SpeciesSummary, len(t.summary))
	for label, s := range t.summary {
		out[label] = *s
	}
	return out
}

// Nearest reports the closest encounter; ok is false until the first
// detection has been observed.
func (t *Tracker) Nearest() (NearestEncounter, bool) {
	if math.IsInf(t.nearest.DistanceM, 1) {
		return NearestEncounter{}, false
	}
	return t.nearest, true
}
