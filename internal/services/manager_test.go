package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spotctl/internal/shared"
	"golang.org/x/oauth2"
)

func newStore(t *testing.T, configured bool) *shared.ConfigStore {
	t.Helper()
	store := shared.NewConfigStore(filepath.Join(t.TempDir(), "config.json"))
	if configured {
		if _, err := store.Update(shared.ConfigView{ClientID: "id", ClientSecret: "secret"}); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}
	return store
}

// newTokenServer serves the token endpoint, returning accessToken for every grant.
func newTokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.Form.Get("grant_type") == "authorization_code" && r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error": "invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"access_token": "`+accessToken+`", "token_type": "Bearer", "refresh_token": "refresh", "expires_in": 3600}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTokenCache(t *testing.T) {
	t.Run("Load missing", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(t.TempDir(), ".spotify_cache"))
		if _, err := cache.Load(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Save and Load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", ".spotify_cache")
		cache := NewTokenCache(path)

		if err := cache.Save(&oauth2.Token{AccessToken: "abc", RefreshToken: "r"}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("cache not written: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("expected mode 0600, got %v", info.Mode().Perm())
		}

		token, err := cache.Load()
		if err != nil || token.AccessToken != "abc" || token.RefreshToken != "r" {
			t.Errorf("unexpected token %+v (%v)", token, err)
		}
	})

	t.Run("Load corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".spotify_cache")
		os.WriteFile(path, []byte("{"), 0o600)

		if _, err := NewTokenCache(path).Load(); err == nil || errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		cache := NewTokenCache(filepath.Join(t.TempDir(), ".spotify_cache"))
		cache.Save(&oauth2.Token{AccessToken: "abc"})

		if err := cache.Delete(); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := cache.Delete(); err != nil {
			t.Errorf("deleting a missing cache should succeed, got %v", err)
		}
	})
}

func TestManager(t *testing.T) {
	ctx := context.Background()

	t.Run("Not configured", func(t *testing.T) {
		m := NewManager(newStore(t, false), ManagerOptions{})

		if _, err := m.Player(ctx); !errors.Is(err, shared.ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
		if _, err := m.AuthURL("state"); !errors.Is(err, shared.ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}

		status, err := m.Status()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.Configured || status.Authenticated || status.LoginURL != "/login" {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("Not authenticated", func(t *testing.T) {
		m := NewManager(newStore(t, true), ManagerOptions{})

		if _, err := m.Player(ctx); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}

		status, _ := m.Status()
		if !status.Configured || status.Authenticated {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("AuthURL", func(t *testing.T) {
		m := NewManager(newStore(t, true), ManagerOptions{})

		authURL, err := m.AuthURL("xyz")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"accounts.spotify.com/authorize", "client_id=id", "state=xyz", "user-modify-playback-state", "redirect_uri="} {
			if !strings.Contains(authURL, want) {
				t.Errorf("expected %q in %s", want, authURL)
			}
		}
	})

	t.Run("Exchange caches token", func(t *testing.T) {
		store := newStore(t, true)
		tokens := newTokenServer(t, "exchanged")
		m := NewManager(store, ManagerOptions{Endpoint: oauth2.Endpoint{AuthURL: tokens.URL + "/authorize", TokenURL: tokens.URL + "/token"}})

		token, err := m.Exchange(ctx, "good-code")
		if err != nil {
			t.Fatalf("exchange failed: %v", err)
		}
		if token.AccessToken != "exchanged" {
			t.Errorf("unexpected token %+v", token)
		}

		status, _ := m.Status()
		if !status.Authenticated {
			t.Error("expected authenticated after exchange")
		}

		if _, err := os.Stat(filepath.Join(filepath.Dir(store.Path()), ".spotify_cache")); err != nil {
			t.Errorf("expected cache next to config: %v", err)
		}

		if err := m.Logout(); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
		if status, _ := m.Status(); status.Authenticated {
			t.Error("expected unauthenticated after logout")
		}
	})

	t.Run("Exchange rejects bad code", func(t *testing.T) {
		tokens := newTokenServer(t, "exchanged")
		m := NewManager(newStore(t, true), ManagerOptions{Endpoint: oauth2.Endpoint{AuthURL: tokens.URL, TokenURL: tokens.URL}})

		_, err := m.Exchange(ctx, "bad-code")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}

		var retrieveErr *oauth2.RetrieveError
		if !errors.As(err, &retrieveErr) {
			t.Errorf("expected wrapped RetrieveError, got %T", err)
		}
	})

	t.Run("Player sends bearer token", func(t *testing.T) {
		var auth string
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusNoContent)
		}))
		defer api.Close()

		m := NewManager(newStore(t, true), ManagerOptions{APIBaseURL: api.URL + "/v1/"})
		if err := m.SaveToken(&oauth2.Token{AccessToken: "cached", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)}); err != nil {
			t.Fatalf("failed to save token: %v", err)
		}

		player, err := m.Player(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := player.Play(ctx); err != nil {
			t.Fatalf("play failed: %v", err)
		}
		if auth != "Bearer cached" {
			t.Errorf("expected bearer header, got %q", auth)
		}
	})

	t.Run("Refreshed token is persisted", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer api.Close()
		tokens := newTokenServer(t, "fresh")

		store := newStore(t, true)
		m := NewManager(store, ManagerOptions{
			APIBaseURL: api.URL + "/v1/",
			Endpoint:   oauth2.Endpoint{AuthURL: tokens.URL, TokenURL: tokens.URL},
		})
		m.SaveToken(&oauth2.Token{AccessToken: "stale", RefreshToken: "refresh", Expiry: time.Now().Add(-time.Hour)})

		player, err := m.Player(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := player.Next(ctx); err != nil {
			t.Fatalf("next failed: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(filepath.Dir(store.Path()), ".spotify_cache"))
		if err != nil {
			t.Fatalf("failed to read cache: %v", err)
		}
		var saved oauth2.Token
		json.Unmarshal(data, &saved)
		if saved.AccessToken != "fresh" {
			t.Errorf("expected refreshed token in cache, got %q", saved.AccessToken)
		}
	})

	t.Run("Credential edits apply without restart", func(t *testing.T) {
		store := newStore(t, false)
		m := NewManager(store, ManagerOptions{})

		if _, err := m.OAuthConfig(); !errors.Is(err, shared.ErrNotConfigured) {
			t.Fatalf("expected ErrNotConfigured, got %v", err)
		}

		store.Update(shared.ConfigView{ClientID: "new-id", ClientSecret: "new-secret"})

		config, err := m.OAuthConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.ClientID != "new-id" {
			t.Errorf("expected updated client id, got %s", config.ClientID)
		}
	})
}
