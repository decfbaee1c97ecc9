package sessionlog

import "github.com/insectlab/bugradar/internal/geometry"

// PolarTrack is a label's entry/exit pair mapped onto the forward-facing
// 180 degree fan used by the radar chart (-90 left, +90 right).
type PolarTrack struct {
	Label          string  `json:"label"`
	EntryAngleDeg  float64 `json:"entry_angle_deg"`
	ExitAngleDeg   float64 `json:"exit_angle_deg"`
	EntryDistanceM float64 `json:"entry_distance_m"`
	ExitDistanceM  float64 `json:"exit_distance_m"`
}

// PolarTracks converts a session's records into chart-ready tracks.
func PolarTracks(sess Session) []PolarTrack {
	out := make([]PolarTrack, 0, len(sess))
	for label, rec := range sess {
		out = append(out, PolarTrack{
			Label:          label,
			EntryAngleDeg:  geometry.NormalizeBearing(rec.StartAngleDeg),
			ExitAngleDeg:   geometry.NormalizeBearing(rec.EndAngleDeg),
			EntryDistanceM: rec.StartDistanceM,
			ExitDistanceM:  rec.EndDistanceM,
		})
	}
	return out
}

// Proportions returns detection counts per label (pie chart data).
func Proportions(sess Session) map[string]int {
	out := make(map[string]int, len(sess))
	for label, rec := range sess {
		out[label] = rec.Count
	}
	return out
}

// LabelAggregate accumulates one label's totals across all sessions. The
// angle and distance samples are the raw entry/exit values, kept as-is for
// the chat context.
type LabelAggregate struct {
	Count     int       `json:"count"`
	Angles    []float64 `json:"angles"`
	Distances []float64 `json:"distances"`
}

// OverallSummary folds every session into per-label aggregates, used to
// answer "overall" questions in the chat panel.
func OverallSummary(entries []SessionEntry) map[string]*LabelAggregate {
	out := map[string]*LabelAggregate{}
	for _, entry := range entries {
		for label, rec := range entry.Session {
			agg, ok := out[label]
			if !ok {
				agg = &LabelAggregate{}
				out[label] = agg
			}
			agg.Count += rec.Count
			agg.Angles = append(agg.Angles, rec.StartAngleDeg, rec.EndAngleDeg)
			agg.Distances = append(agg.Distances, rec.StartDistanceM, rec.EndDistanceM)
		}
	}
	return out
}
