package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/shared"
	"golang.org/x/oauth2"
)

// TokenCache persists an OAuth2 token as JSON on disk.
type TokenCache struct {
	path string
	mu   sync.Mutex
}

// NewTokenCache creates a cache backed by the file at path.
func NewTokenCache(path string) *TokenCache {
	return &TokenCache{path: path}
}

// Path returns the cache file location.
func (c *TokenCache) Path() string {
	return c.path
}

// Load reads the cached token. A missing or empty cache returns [shared.ErrNotAuthenticated].
func (c *TokenCache) Load() (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, shared.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token cache: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token cache: %w", err)
	}
	if token.AccessToken == "" && token.RefreshToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	return &token, nil
}

// Save writes the token with owner-only permissions.
func (c *TokenCache) Save(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", shared.ErrInvalidInput)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create token cache directory: %w", err)
		}
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token cache: %w", err)
	}
	return nil
}

// Delete removes the cache file. Deleting a missing cache is not an error.
func (c *TokenCache) Delete() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token cache: %w", err)
	}
	return nil
}

// persistingTokenSource writes refreshed tokens back to the cache.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	cache  *TokenCache
	logger *log.Logger

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(base oauth2.TokenSource, cache *TokenCache, current *oauth2.Token, logger *log.Logger) *persistingTokenSource {
	return &persistingTokenSource{base: base, cache: cache, logger: logger, last: current.AccessToken}
}

// Token returns a valid token, saving it whenever the access token changes.
func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if token.AccessToken != s.last {
		s.last = token.AccessToken
		if err := s.cache.Save(token); err != nil {
			s.logger.Warn("failed to persist refreshed token", "error", err)
		} else {
			s.logger.Debug("refreshed token saved", "expiry", token.Expiry)
		}
	}
	return token, nil
}
