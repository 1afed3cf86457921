package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/server"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	tu "github.com/desertthunder/spotctl/internal/testing"
	"golang.org/x/oauth2"
)

type fakeBackend struct {
	player    *tu.MockPlayer
	playerErr error
	status    services.AuthStatus
	store     *shared.ConfigStore
}

func (f *fakeBackend) Player(ctx context.Context) (services.Player, error) {
	if f.playerErr != nil {
		return nil, f.playerErr
	}
	return f.player, nil
}

func (f *fakeBackend) Status() (services.AuthStatus, error) { return f.status, nil }
func (f *fakeBackend) Store() *shared.ConfigStore          { return f.store }

type fakeHistory struct {
	plays    []*models.Play
	criteria map[string]any
}

func (f *fakeHistory) List(criteria map[string]any) ([]*models.Play, error) {
	f.criteria = criteria
	return f.plays, nil
}

type fakeObserver struct{ seen []string }

func (f *fakeObserver) Observe(p *models.Playback) (*models.Play, error) {
	f.seen = append(f.seen, p.TrackURI)
	return nil, nil
}

type fixture struct {
	backend  *fakeBackend
	history  *fakeHistory
	observer *fakeObserver
	router   *server.BasicRouter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		backend: &fakeBackend{
			player: &tu.MockPlayer{},
			store:  shared.NewConfigStore(filepath.Join(t.TempDir(), "config.json")),
		},
		history:  &fakeHistory{},
		observer: &fakeObserver{},
		router:   server.NewBasicRouter(),
	}
	NewController(f.backend, f.history, f.observer, shared.NewLogger(&bytes.Buffer{})).Register(f.router)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body server.ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %s", rec.Body.String())
	}
	return body.Detail
}

func TestPlayback(t *testing.T) {
	t.Run("Relays state and feeds observer", func(t *testing.T) {
		f := newFixture(t)
		art := "https://img/1"
		f.backend.player.State = &models.Playback{IsPlaying: true, TrackName: "Song", TrackURI: "spotify:track:1", AlbumArt: &art, Repeat: "off"}

		rec := f.do(http.MethodGet, "/api/playback", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var got map[string]any
		json.Unmarshal(rec.Body.Bytes(), &got)
		for _, key := range []string{"is_playing", "track_name", "artist_name", "album_name", "album_art", "duration_ms", "progress_ms", "volume", "shuffle", "repeat", "device_name", "track_uri"} {
			if _, ok := got[key]; !ok {
				t.Errorf("expected key %q in response", key)
			}
		}
		if got["album_art"] != art || got["track_name"] != "Song" {
			t.Errorf("unexpected body %v", got)
		}
		if len(f.observer.seen) != 1 || f.observer.seen[0] != "spotify:track:1" {
			t.Errorf("expected observer to see the track, got %v", f.observer.seen)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tc := []struct {
			name       string
			playerErr  error
			stateErr   error
			wantStatus int
			wantDetail string
		}{
			{name: "not configured", playerErr: shared.ErrNotConfigured, wantStatus: 401, wantDetail: "Not configured"},
			{name: "not authenticated", playerErr: shared.ErrNotAuthenticated, wantStatus: 401, wantDetail: "Not authenticated"},
			{name: "no device", stateErr: shared.ErrNoActiveDevice, wantStatus: 404, wantDetail: "No active device"},
			{name: "vendor", stateErr: &services.VendorError{Status: 429, Message: "API rate limit exceeded"}, wantStatus: 429, wantDetail: "API rate limit exceeded"},
			{name: "refresh failed", stateErr: &oauth2.RetrieveError{Response: &http.Response{StatusCode: 400}, Body: []byte("invalid_grant")}, wantStatus: 401},
			{name: "other", stateErr: errors.New("connection reset"), wantStatus: 500, wantDetail: "connection reset"},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)
				f.backend.playerErr = tt.playerErr
				f.backend.player.Err = tt.stateErr

				rec := f.do(http.MethodGet, "/api/playback", "")
				if rec.Code != tt.wantStatus {
					t.Errorf("expected %d, got %d", tt.wantStatus, rec.Code)
				}
				if got := detail(t, rec); tt.wantDetail != "" && got != tt.wantDetail {
					t.Errorf("expected detail %q, got %q", tt.wantDetail, got)
				}
			})
		}
	})
}

func TestCommands(t *testing.T) {
	tc := []struct {
		name     string
		path     string
		body     string
		wantCall string
		wantArg  any
	}{
		{name: "play", path: "/api/play", wantCall: "Play"},
		{name: "pause", path: "/api/pause", wantCall: "Pause"},
		{name: "next", path: "/api/next", wantCall: "Next"},
		{name: "previous", path: "/api/previous", wantCall: "Previous"},
		{name: "seek", path: "/api/seek", body: `{"position_ms": 30000}`, wantCall: "Seek", wantArg: 30000},
		{name: "seek past end is relayed", path: "/api/seek", body: `{"position_ms": 99999999}`, wantCall: "Seek", wantArg: 99999999},
		{name: "volume", path: "/api/volume", body: `{"volume": 55}`, wantCall: "Volume", wantArg: 55},
		{name: "volume out of range is relayed", path: "/api/volume", body: `{"volume": 150}`, wantCall: "Volume", wantArg: 150},
		{name: "shuffle", path: "/api/shuffle", body: `{"state": true}`, wantCall: "Shuffle", wantArg: true},
		{name: "repeat", path: "/api/repeat", body: `{"state": "track"}`, wantCall: "Repeat", wantArg: "track"},
		{name: "repeat unknown is relayed", path: "/api/repeat", body: `{"state": "sometimes"}`, wantCall: "Repeat", wantArg: "sometimes"},
		{name: "transfer", path: "/api/transfer", body: `{"device_id": "dev2", "play": true}`, wantCall: "Transfer", wantArg: "dev2"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if strings.TrimSpace(rec.Body.String()) != `{"success":true}` {
				t.Errorf("unexpected body %s", rec.Body.String())
			}

			call, arg := f.backend.player.LastCall()
			if call != tt.wantCall {
				t.Errorf("expected %s, got %s", tt.wantCall, call)
			}
			if tt.wantArg != nil && arg != tt.wantArg {
				t.Errorf("expected arg %v, got %v", tt.wantArg, arg)
			}
		})
	}

	t.Run("Invalid bodies", func(t *testing.T) {
		tc := []struct {
			name, path, body string
		}{
			{name: "seek missing", path: "/api/seek", body: `{}`},
			{name: "seek wrong type", path: "/api/seek", body: `{"position_ms": "soon"}`},
			{name: "seek empty body", path: "/api/seek"},
			{name: "volume float", path: "/api/volume", body: `{"volume": 50.5}`},
			{name: "shuffle string", path: "/api/shuffle", body: `{"state": "yes"}`},
			{name: "repeat missing", path: "/api/repeat", body: `{"mode": "off"}`},
			{name: "transfer missing", path: "/api/transfer", body: `{"play": true}`},
			{name: "malformed", path: "/api/volume", body: `{`},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				f := newFixture(t)

				rec := f.do(http.MethodPost, tt.path, tt.body)
				if rec.Code != http.StatusUnprocessableEntity {
					t.Errorf("expected 422, got %d", rec.Code)
				}
				if len(f.backend.player.Calls) != 0 {
					t.Errorf("expected no vendor call, got %v", f.backend.player.Calls)
				}
			})
		}
	})

	t.Run("Not configured before vendor call", func(t *testing.T) {
		f := newFixture(t)
		f.backend.playerErr = shared.ErrNotConfigured

		rec := f.do(http.MethodPost, "/api/volume", `{"volume": 10}`)
		if rec.Code != http.StatusUnauthorized || detail(t, rec) != "Not configured" {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Vendor rejection relayed", func(t *testing.T) {
		f := newFixture(t)
		f.backend.player.Err = &services.VendorError{Status: 403, Message: "Player command failed: Premium required"}

		rec := f.do(http.MethodPost, "/api/play", "")
		if rec.Code != http.StatusForbidden || detail(t, rec) != "Player command failed: Premium required" {
			t.Errorf("unexpected response %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("Wrong method", func(t *testing.T) {
		f := newFixture(t)
		if rec := f.do(http.MethodGet, "/api/play", ""); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

func TestDevices(t *testing.T) {
	f := newFixture(t)
	f.backend.player.DeviceList = []models.Device{{ID: "dev1", Name: "Desk", Active: true}}

	rec := f.do(http.MethodGet, "/api/devices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var devices []models.Device
	json.Unmarshal(rec.Body.Bytes(), &devices)
	if len(devices) != 1 || devices[0].Name != "Desk" {
		t.Errorf("unexpected devices %+v", devices)
	}
}

func TestConfig(t *testing.T) {
	t.Run("GET defaults", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodGet, "/api/config", "")
		var view shared.ConfigView
		json.Unmarshal(rec.Body.Bytes(), &view)

		if view.Port != 8888 || view.Host != "0.0.0.0" || view.ClientSecret != "" {
			t.Errorf("unexpected defaults %+v", view)
		}
		if strings.Contains(rec.Body.String(), "cache_path") {
			t.Error("expected internal fields to be hidden")
		}
	})

	t.Run("POST applies and masks", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/api/config", `{"client_id": "abc", "client_secret": "s3cret", "port": 9000}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var view shared.ConfigView
		json.Unmarshal(f.do(http.MethodGet, "/api/config", "").Body.Bytes(), &view)
		if view.ClientID != "abc" || view.ClientSecret != shared.SecretMask || view.Port != 9000 {
			t.Errorf("unexpected view %+v", view)
		}

		f.do(http.MethodPost, "/api/config", `{"client_secret": "`+shared.SecretMask+`", "client_id": ""}`)

		config, _ := f.backend.store.Load()
		if config.ClientSecret != "s3cret" || config.ClientID != "abc" {
			t.Errorf("expected mask and empty fields to be ignored, got %+v", config)
		}
	})

	t.Run("POST wrong type", func(t *testing.T) {
		f := newFixture(t)
		if rec := f.do(http.MethodPost, "/api/config", `{"port": "eighty"}`); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})
}

func TestHistory(t *testing.T) {
	t.Run("Limits", func(t *testing.T) {
		tc := []struct {
			query string
			want  int
		}{
			{query: "", want: defaultHistoryLimit},
			{query: "?limit=5", want: 5},
			{query: "?limit=5000", want: maxHistoryLimit},
		}

		for _, tt := range tc {
			f := newFixture(t)
			f.history.plays = []*models.Play{models.NewPlay(models.Playback{TrackURI: "u", TrackName: "n"}, time.Now())}

			rec := f.do(http.MethodGet, "/api/history"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if f.history.criteria["limit"] != tt.want {
				t.Errorf("query %q: expected limit %d, got %v", tt.query, tt.want, f.history.criteria["limit"])
			}
			if !strings.Contains(rec.Body.String(), `"track_uri":"u"`) {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		}
	})

	t.Run("Invalid limit", func(t *testing.T) {
		f := newFixture(t)
		if rec := f.do(http.MethodGet, "/api/history?limit=abc", ""); rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected 422, got %d", rec.Code)
		}
	})

	t.Run("Unavailable", func(t *testing.T) {
		router := server.NewBasicRouter()
		NewController(&fakeBackend{player: &tu.MockPlayer{}}, nil, nil, nil).Register(router)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestMisc(t *testing.T) {
	f := newFixture(t)
	f.backend.status = services.AuthStatus{Configured: true, LoginURL: "/login"}

	t.Run("Index", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "createApp") {
			t.Errorf("expected control panel, got %d", rec.Code)
		}
		if rec := f.do(http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 for unknown path, got %d", rec.Code)
		}
	})

	t.Run("Health", func(t *testing.T) {
		if rec := f.do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("AuthStatus", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/auth/status", "")
		if strings.TrimSpace(rec.Body.String()) != `{"configured":true,"authenticated":false,"login_url":"/login"}` {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})
}
