package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-chi/chi/v5"
)

// RecordingHandler serves the composite recordings the rig writes.
// http.ServeFile handles Range requests, so the browse page can seek.
type RecordingHandler struct {
	Dir string
}

// videoTypes maps the recording extensions the rig can produce to their
// content types.
var videoTypes = map[string]string{
	".avi": "video/x-msvideo",
	".mp4": "video/mp4",
}

type recordingInfo struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	Modified  string `json:"modified"`
}

// ListRecordings returns the available video files, newest first.
func (h *RecordingHandler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			respondJSON(w, http.StatusOK, map[string]interface{}{"recordings": []recordingInfo{}})
			return
		}
		respondError(w, http.StatusInternalServerError, "cannot read recordings directory")
		return
	}

	var recordings []recordingInfo
	for _, e := range entries {
		if _, ok := videoTypes[filepath.Ext(e.Name())]; e.IsDir() || !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		recordings = append(recordings, recordingInfo{
			Name:      e.Name(),
			SizeBytes: info.Size(),
			Modified:  info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	sort.Slice(recordings, func(i, j int) bool { return recordings[i].Modified > recordings[j].Modified })
	respondJSON(w, http.StatusOK, map[string]interface{}{"recordings": recordings})
}

// GetRecording streams one file. The name is sanitized to its base so a
// crafted path cannot escape the recordings directory.
func (h *RecordingHandler) GetRecording(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	ctype, ok := videoTypes[filepath.Ext(name)]
	if name == "." || name == ".." || !ok {
		respondError(w, http.StatusBadRequest, "invalid recording name")
		return
	}

	path := filepath.Join(h.Dir, name)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "recording not found")
		return
	}

	w.Header().Set("Content-Type", ctype)
	http.ServeFile(w, r, path)
}
