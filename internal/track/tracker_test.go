package track

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_SpeedFromCentroidDelta(t *testing.T) {
	tr := NewTracker(30, 0.02)
	t0 := time.Now()

	// First sighting: speed is zero.
	speed := tr.Observe(Observation{Label: "fly", Center: image.Pt(100, 100)}, t0, 0)
	assert.Equal(t, 0.0, speed)

	// 50 px in one second at 0.02 m/px -> 1.0 m/s.
	speed = tr.Observe(Observation{Label: "fly", Center: image.Pt(130, 140)}, t0.Add(time.Second), 1)
	assert.InDelta(t, 1.0, speed, 1e-9)

	// Zero elapsed time keeps the previous estimate.
	speed = tr.Observe(Observation{Label: "fly", Center: image.Pt(200, 200)}, t0.Add(time.Second), 2)
	assert.InDelta(t, 1.0, speed, 1e-9)
}

func TestTracker_SummaryEntryExit(t *testing.T) {
	tr := NewTracker(30, 0.02)
	now := time.Now()

	tr.Observe(Observation{Label: "fly", AngleDeg: 30, DistanceM: 0.8}, now, 0)
	tr.Observe(Observation{Label: "fly", AngleDeg: 60, DistanceM: 0.5}, now.Add(time.Second), 1)
	tr.Observe(Observation{Label: "fly", AngleDeg: 90, DistanceM: 0.4}, now.Add(2*time.Second), 2)

	s := tr.Summary()["fly"]
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 30.0, s.EntryAngleDeg)
	assert.Equal(t, 0.8, s.EntryDistanceM)
	assert.Equal(t, 90.0, s.ExitAngleDeg)
	assert.Equal(t, 0.4, s.ExitDistanceM)
}

func TestTracker_NearestEncounter(t *testing.T) {
	tr := NewTracker(30, 0.02)
	now := time.Now()

	_, ok := tr.Nearest()
	assert.False(t, ok, "no encounter before first observation")

	tr.Observe(Observation{Label: "fly", DistanceM: 0.8, AngleDeg: 45}, now, 10)
	tr.Observe(Observation{Label: "cockroach", DistanceM: 0.3, AngleDeg: 120}, now, 11)
	tr.Observe(Observation{Label: "fly", DistanceM: 0.5, AngleDeg: 60}, now, 12)

	n, ok := tr.Nearest()
	require.True(t, ok)
	assert.Equal(t, 0.3, n.DistanceM)
	assert.Equal(t, "cockroach", n.Label)
	assert.Equal(t, 11, n.Frame)
	assert.Equal(t, 120.0, n.AngleDeg)
}

func TestTracker_TrailBounded(t *testing.T) {
	tr := NewTracker(5, 0.02)
	now := time.Now()

	for i := 0; i < 12; i++ {
		tr.Observe(Observation{
			Label:      "fly",
			Center:     image.Pt(i, i),
			RadarPoint: image.Pt(i, 100+i),
		}, now.Add(time.Duration(i)*time.Second), i)
	}

	trail := tr.Trails()["fly"]
	require.Len(t, trail, 5)
	// Oldest points dropped, newest kept.
	assert.Equal(t, image.Pt(7, 107), trail[0])
	assert.Equal(t, image.Pt(11, 111), trail[4])
}

func TestTracker_PruneKeepsSummary(t *testing.T) {
	tr := NewTracker(30, 0.02)
	now := time.Now()

	tr.Observe(Observation{Label: "fly", Center: image.Pt(10, 10), DistanceM: 0.6}, now, 0)
	tr.Observe(Observation{Label: "cockroach", Center: image.Pt(20, 20), DistanceM: 0.7}, now, 0)

	tr.Prune(map[string]bool{"cockroach": true})

	_, ok := tr.PrevCenter("fly")
	assert.False(t, ok)
	assert.Empty(t, tr.Trails()["fly"])
	assert.Equal(t, 0.0, tr.Speed("fly"))

	_, ok = tr.PrevCenter("cockroach")
	assert.True(t, ok)

	// The session summary is not touched by pruning.
	assert.Contains(t, tr.Summary(), "fly")
	n, ok := tr.Nearest()
	require.True(t, ok)
	assert.Equal(t, 0.6, n.DistanceM)
}

func TestTracker_TrailsReturnsCopy(t *testing.T) {
	tr := NewTracker(30, 0.02)
	tr.Observe(Observation{Label: "fly", RadarPoint: image.Pt(1, 2)}, time.Now(), 0)

	trails := tr.Trails()
	trails["fly"][0] = image.Pt(99, 99)

	assert.Equal(t, image.Pt(1, 2), tr.Trails()["fly"][0])
}
