package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/shared"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// AuthStatus reports whether the controller can reach the vendor.
type AuthStatus struct {
	Configured    bool   `json:"configured"`
	Authenticated bool   `json:"authenticated"`
	LoginURL      string `json:"login_url"`
}

// ManagerOptions configures a [Manager]. Zero values select the public Spotify endpoints.
type ManagerOptions struct {
	APIBaseURL string
	Endpoint   oauth2.Endpoint
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *log.Logger
	LoginPath  string
}

// Manager builds authenticated [Player] instances from the current config and token cache.
//
// The config store is re-read on every call so credential edits apply without a restart.
type Manager struct {
	store *shared.ConfigStore
	opts  ManagerOptions

	mu    sync.Mutex
	cache *TokenCache
}

// NewManager creates a manager over store.
func NewManager(store *shared.ConfigStore, opts ManagerOptions) *Manager {
	if opts.Endpoint.AuthURL == "" {
		opts.Endpoint = oauth2.Endpoint{AuthURL: spotifyauth.AuthURL, TokenURL: spotifyauth.TokenURL}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	return &Manager{store: store, opts: opts}
}

// Store returns the backing config store.
func (m *Manager) Store() *shared.ConfigStore {
	return m.store
}

// Config loads the current config and requires credentials to be present.
func (m *Manager) Config() (*shared.Config, error) {
	config, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if !config.Configured() {
		return config, shared.ErrNotConfigured
	}
	return config, nil
}

// OAuthConfig returns the authorization-code flow configuration, or [shared.ErrNotConfigured].
func (m *Manager) OAuthConfig() (*oauth2.Config, error) {
	config, err := m.Config()
	if err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURI,
		Scopes:       Scopes,
		Endpoint:     m.opts.Endpoint,
	}, nil
}

// AuthURL returns the vendor consent URL for state.
func (m *Manager) AuthURL(state string) (string, error) {
	config, err := m.OAuthConfig()
	if err != nil {
		return "", err
	}
	return config.AuthCodeURL(state), nil
}

// Cache returns the token cache for the configured cache path.
func (m *Manager) Cache() (*TokenCache, error) {
	config, err := m.store.Load()
	if err != nil {
		return nil, err
	}

	path := m.store.Resolve(config.CachePath)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cache == nil || m.cache.Path() != path {
		m.cache = NewTokenCache(path)
	}
	return m.cache, nil
}

// SaveToken writes token to the cache.
func (m *Manager) SaveToken(token *oauth2.Token) error {
	cache, err := m.Cache()
	if err != nil {
		return err
	}
	return cache.Save(token)
}

// Exchange trades an authorization code for a token and caches it.
func (m *Manager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	config, err := m.OAuthConfig()
	if err != nil {
		return nil, err
	}

	token, err := config.Exchange(m.context(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	if err := m.SaveToken(token); err != nil {
		return nil, err
	}

	m.opts.Logger.Info("token cached", "expiry", token.Expiry)
	return token, nil
}

// Status reports configuration and token presence without contacting the vendor.
func (m *Manager) Status() (AuthStatus, error) {
	status := AuthStatus{LoginURL: m.opts.LoginPath}

	_, err := m.Config()
	switch {
	case errors.Is(err, shared.ErrNotConfigured):
		return status, nil
	case err != nil:
		return status, err
	}
	status.Configured = true

	cache, err := m.Cache()
	if err != nil {
		return status, err
	}
	if _, err := cache.Load(); err == nil {
		status.Authenticated = true
	} else if !errors.Is(err, shared.ErrNotAuthenticated) {
		return status, err
	}
	return status, nil
}

// Logout deletes the cached token.
func (m *Manager) Logout() error {
	cache, err := m.Cache()
	if err != nil {
		return err
	}
	return cache.Delete()
}

// Player returns a Spotify player authenticated with the cached token.
//
// Returns [shared.ErrNotConfigured] before any vendor call when credentials are missing,
// and [shared.ErrNotAuthenticated] when no token is cached.
func (m *Manager) Player(ctx context.Context) (Player, error) {
	config, err := m.OAuthConfig()
	if err != nil {
		return nil, err
	}

	cache, err := m.Cache()
	if err != nil {
		return nil, err
	}

	token, err := cache.Load()
	if err != nil {
		return nil, err
	}

	ctx = m.context(ctx)
	source := newPersistingTokenSource(config.TokenSource(ctx, token), cache, token, m.opts.Logger)

	return NewSpotifyService(oauth2.NewClient(ctx, source), SpotifyOptions{
		BaseURL: m.opts.APIBaseURL,
		Limiter: m.opts.Limiter,
	}), nil
}

func (m *Manager) context(ctx context.Context) context.Context {
	if m.opts.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, m.opts.HTTPClient)
}
