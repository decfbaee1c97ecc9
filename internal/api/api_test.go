package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insectlab/bugradar/internal/api"
	"github.com/insectlab/bugradar/internal/auth"
	"github.com/insectlab/bugradar/internal/chat"
	"github.com/insectlab/bugradar/internal/middleware"
	"github.com/insectlab/bugradar/internal/sessionlog"
	"github.com/insectlab/bugradar/internal/tokens"
	"github.com/insectlab/bugradar/internal/track"
)

type fixture struct {
	router http.Handler
	store  *sessionlog.Store
	token  string
	recDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := sessionlog.Open(filepath.Join(t.TempDir(), "insect_log.json"))
	require.NoError(t, err)

	hash, err := auth.HashPassword("hunter2")
	require.NoError(t, err)

	mgr := tokens.NewManager("test-signing-key", time.Hour)
	token, err := mgr.GenerateToken("operator")
	require.NoError(t, err)

	// Ollama stub so chat has a backend.
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "mostly flies"},
			"done":    true,
		})
	}))
	t.Cleanup(ollama.Close)

	chatSvc, err := chat.NewService(store, chat.NewOllamaClient(ollama.URL, "phi3:latest", 5*time.Second), 16)
	require.NoError(t, err)

	recDir := t.TempDir()

	deps := api.Deps{
		Sessions:   &api.SessionHandler{Store: store},
		Auth:       &api.AuthHandler{Tokens: mgr, Operator: "operator", PasswordHash: hash},
		Chat:       &api.ChatHandler{Service: chatSvc, Timeout: 5 * time.Second},
		Live:       api.NewLiveHandler(nil, mgr, "rig-01"),
		Recordings: &api.RecordingHandler{Dir: recDir},
		Health:     &api.HealthHandler{Store: store, Started: time.Now()},
		JWT:        middleware.NewJWTAuth(mgr, nil),
	}

	return &fixture{
		router: api.NewRouter(deps),
		store:  store,
		token:  token,
		recDir: recDir,
	}
}

func (f *fixture) request(t *testing.T, method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if authed {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func seedSession(t *testing.T, store *sessionlog.Store) {
	t.Helper()
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Snapshot(ts, map[string]track.SpeciesSummary{
		"fly":       {Count: 5, EntryAngleDeg: 30, ExitAngleDeg: 150, EntryDistanceM: 0.8, ExitDistanceM: 0.4},
		"cockroach": {Count: 2, EntryAngleDeg: 100, ExitAngleDeg: 95, EntryDistanceM: 0.6, ExitDistanceM: 0.5},
	}))
	store.SetNearest(track.NearestEncounter{DistanceM: 0.41, Frame: 12, Label: "fly", AngleDeg: 88.2})
	require.NoError(t, store.Flush())
}

func TestSessionsRequireAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, "GET", "/api/v1/sessions", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListAndGetSessions(t *testing.T) {
	f := newFixture(t)
	seedSession(t, f.store)

	rec := f.request(t, "GET", "/api/v1/sessions", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Sessions []struct {
			ID      string         `json:"id"`
			Species map[string]int `json:"species"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, 5, list.Sessions[0].Species["fly"])

	rec = f.request(t, "GET", "/api/v1/sessions/"+list.Sessions[0].ID, nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Species map[string]struct {
			Count          int     `json:"count"`
			StartDistanceM float64 `json:"start_distance_m"`
		} `json:"species"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 0.8, got.Species["fly"].StartDistanceM)
}

func TestGetSession_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, "GET", "/api/v1/sessions/2020-01-01T00:00:00Z", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRadarNormalizesAngles(t *testing.T) {
	f := newFixture(t)
	seedSession(t, f.store)

	id := f.store.Sessions()[0].ID
	rec := f.request(t, "GET", "/api/v1/sessions/"+id+"/radar", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Tracks []struct {
			Label         string  `json:"label"`
			EntryAngleDeg float64 `json:"entry_angle_deg"`
		} `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Tracks, 2)
	for _, tr := range got.Tracks {
		assert.LessOrEqual(t, tr.EntryAngleDeg, 90.0)
		assert.GreaterOrEqual(t, tr.EntryAngleDeg, -90.0)
	}
}

func TestNearestEncounter(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, "GET", "/api/v1/nearest-encounter", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	seedSession(t, f.store)

	rec = f.request(t, "GET", "/api/v1/nearest-encounter", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		DistanceM float64 `json:"distance_m"`
		Label     string  `json:"label"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "fly", got.Label)
	assert.Equal(t, 0.41, got.DistanceM)
}

func TestLoginFlow(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, "POST", "/api/v1/auth/login", api.LoginRequest{Username: "operator", Password: "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, "POST", "/api/v1/auth/login", api.LoginRequest{Username: "nobody", Password: "hunter2"}, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.request(t, "POST", "/api/v1/auth/login", api.LoginRequest{Username: "operator", Password: "hunter2"}, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var tok api.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
	assert.NotEmpty(t, tok.AccessToken)
	assert.Equal(t, 3600, tok.ExpiresIn)

	// The issued token must work on a protected route.
	req := httptest.NewRequest("GET", "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	rec2 := httptest.NewRecorder()
	f.router.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestChatEndpoint(t *testing.T) {
	f := newFixture(t)
	seedSession(t, f.store)

	rec := f.request(t, "POST", "/api/v1/chat", api.ChatRequest{Question: "which species dominates?"}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var got api.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "mostly flies", got.Answer)

	rec = f.request(t, "POST", "/api/v1/chat", api.ChatRequest{Question: "  "}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordings(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.recDir, "output_tracking.avi"), []byte("RIFFxxxxAVI "), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.recDir, "output_tracking.mp4"), []byte("ftypmp42"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.recDir, "notes.txt"), []byte("skip me"), 0o644))

	rec := f.request(t, "GET", "/api/v1/recordings", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Recordings []struct {
			Name string `json:"name"`
		} `json:"recordings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Recordings, 2)

	rec = f.request(t, "GET", "/api/v1/recordings/output_tracking.avi", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/x-msvideo", rec.Header().Get("Content-Type"))

	rec = f.request(t, "GET", "/api/v1/recordings/output_tracking.mp4", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "video/mp4", rec.Header().Get("Content-Type"))

	rec = f.request(t, "GET", "/api/v1/recordings/missing.avi", nil, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.request(t, "GET", "/api/v1/recordings/secrets.txt", nil, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveLatest_NoCacheConfigured(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, "GET", "/api/v1/live/latest", nil, true)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.request(t, "GET", "/health", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
}
