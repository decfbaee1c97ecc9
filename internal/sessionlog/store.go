package sessionlog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/insectlab/bugradar/internal/geometry"
	"github.com/insectlab/bugradar/internal/track"
)

// The log file is a single JSON object keyed by RFC3339 timestamp; each
// value maps insect label to a SpeciesRecord. One reserved top-level key,
// "nearest_encounter", holds the closest detection of the whole run.
const nearestKey = "nearest_encounter"

// SpeciesRecord is the per-label snapshot stored under a session.
type SpeciesRecord struct {
	StartDistanceM float64 `json:"start_distance_m"`
	EndDistanceM   float64 `json:"end_distance_m"`
	StartAngleDeg  float64 `json:"start_angle_deg"`
	EndAngleDeg    float64 `json:"end_angle_deg"`
	Count          int     `json:"count"`
}

// Session is one timestamped snapshot of per-label summaries.
type Session map[string]SpeciesRecord

// NearestEncounter mirrors the reserved log entry.
type NearestEncounter struct {
	DistanceM float64 `json:"distance_m"`
	Frame     int     `json:"frame"`
	Label     string  `json:"label"`
	AngleDeg  float64 `json:"angle_deg"`
}

// SessionEntry pairs a session with its timestamp key, sorted oldest first
// when listed.
type SessionEntry struct {
	ID      string
	Session Session
}

// Store owns the log file. The rig appends snapshots; the browse server
// opens the same file read-mostly and reloads on change.
type Store struct {
	mu       sync.Mutex
	path     string
	sessions map[string]Session
	nearest  *NearestEncounter
}

// Open loads the log at path. A missing, corrupt or non-object file starts
// a fresh log; existing entries that do not parse are skipped.
func Open(path string) (*Store, error) {
	s := &Store{path: path, sessions: map[string]Session{}}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the file from disk, replacing in-memory state.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := map[string]Session{}
	var nearest *NearestEncounter

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.sessions, s.nearest = sessions, nil
			return nil
		}
		return fmt.Errorf("read log %s: %w", s.path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Printf("[SessionLog] %s is not a JSON object, starting fresh: %v", s.path, err)
		s.sessions, s.nearest = sessions, nil
		return nil
	}

	for key, val := range raw {
		if key == nearestKey {
			var n NearestEncounter
			if err := json.Unmarshal(val, &n); err == nil {
				nearest = &n
			}
			continue
		}
		var sess Session
		if err := json.Unmarshal(val, &sess); err != nil {
			log.Printf("[SessionLog] skipping malformed session %q: %v", key, err)
			continue
		}
		sessions[key] = sess
	}

	s.sessions, s.nearest = sessions, nearest
	return nil
}

// Snapshot records the current tracker summary under a new timestamp key
// and persists the whole log.
func (s *Store) Snapshot(ts time.Time, summary map[string]track.SpeciesSummary) error {
	sess := Session{}
	for label, info := range summary {
		sess[label] = SpeciesRecord{
			StartDistanceM: geometry.Round2(info.EntryDistanceM),
			EndDistanceM:   geometry.Round2(info.ExitDistanceM),
			StartAngleDeg:  geometry.Round1(info.EntryAngleDeg),
			EndAngleDeg:    geometry.Round1(info.ExitAngleDeg),
			Count:          info.Count,
		}
	}

	s.mu.Lock()
	s.sessions[ts.Format(time.RFC3339Nano)] = sess
	s.mu.Unlock()

	return s.Flush()
}

// SetNearest records the run's closest encounter for the final flush.
func (s *Store) SetNearest(n track.NearestEncounter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nearest = &NearestEncounter{
		DistanceM: geometry.Round3(n.DistanceM),
		Frame:     n.Frame,
		Label:     n.Label,
		AngleDeg:  geometry.Round1(n.AngleDeg),
	}
}

// Flush writes the log atomically (temp file + rename) so a crash mid-write
// never corrupts an existing log.
func (s *Store) Flush() error {
	s.mu.Lock()
	out := make(map[string]any, len(s.sessions)+1)
	for key, sess := range s.sessions {
		out[key] = sess
	}
	if s.nearest != nil {
		out[nearestKey] = s.nearest
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal log: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".insectlog-*")
	if err != nil {
		return fmt.Errorf("temp log: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close log: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename log: %w", err)
	}
	return nil
}

// Sessions lists all sessions sorted by timestamp key.
func (s *Store) Sessions() []SessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.sessions))
	for key := range s.sessions {
		keys = append(keys, key)
	}
	// RFC3339 sorts lexicographically in time order.
	sort.Strings(keys)

	out := make([]SessionEntry, 0, len(keys))
	for _, key := range keys {
		out = append(out, SessionEntry{ID: key, Session: s.sessions[key]})
	}
	return out
}

// Get returns one session by its timestamp key.
func (s *Store) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Latest returns the most recent session, if any.
func (s *Store) Latest() (SessionEntry, bool) {
	entries := s.Sessions()
	if len(entries) == 0 {
		return SessionEntry{}, false
	}
	return entries[len(entries)-1], true
}

// Nearest returns the recorded nearest encounter, if any.
func (s *Store) Nearest() (NearestEncounter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nearest == nil {
		return NearestEncounter{}, false
	}
	return *s.nearest, true
}

// Path returns the backing file path (used by the change watcher).
func (s *Store) Path() string { return s.path }
