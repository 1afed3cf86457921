package shared

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// SecretMask replaces a configured client secret whenever the config is shown.
const SecretMask = "••••••••"

// Config represents the application configuration loaded from a JSON or TOML file.
type Config struct {
	ClientID     string `json:"client_id" toml:"client_id"`
	ClientSecret string `json:"client_secret" toml:"client_secret"`
	RedirectURI  string `json:"redirect_uri" toml:"redirect_uri"`
	Host         string `json:"host" toml:"host"`
	Port         int    `json:"port" toml:"port"`
	CachePath    string `json:"cache_path,omitempty" toml:"cache_path,omitempty"`
	HistoryPath  string `json:"history_path,omitempty" toml:"history_path,omitempty"`
}

// ConfigView is the subset of [Config] exposed over HTTP.
type ConfigView struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
}

// Configured reports whether the vendor credentials are present.
func (c *Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Addr returns the listen address built from Host and Port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Masked returns the public view of the config with the secret hidden.
func (c *Config) Masked() ConfigView {
	v := ConfigView{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURI:  c.RedirectURI,
		Host:         c.Host,
		Port:         c.Port,
	}
	if v.ClientSecret != "" {
		v.ClientSecret = SecretMask
	}
	return v
}

// Apply copies every non-empty field of v onto c.
//
// A secret equal to [SecretMask] is ignored so a round-tripped view never overwrites the real secret.
func (c *Config) Apply(v ConfigView) {
	if v.ClientID != "" {
		c.ClientID = v.ClientID
	}
	if v.ClientSecret != "" && v.ClientSecret != SecretMask {
		c.ClientSecret = v.ClientSecret
	}
	if v.RedirectURI != "" {
		c.RedirectURI = v.RedirectURI
	}
	if v.Port != 0 {
		c.Port = v.Port
	}
	if v.Host != "" {
		c.Host = v.Host
	}
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// LoadConfig reads the file at path and overlays it onto [DefaultConfig].
//
// Files ending in .toml are parsed as TOML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// SaveConfig writes config to path in the format implied by its extension.
func SaveConfig(path string, config *Config) error {
	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(config); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = MarshalJSON(config, true); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config file at the specified path from the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if isTOML(path) {
		if err := os.WriteFile(path, exampleConf, 0600); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
		return nil
	}

	return SaveConfig(path, DefaultConfig())
}

// ConfigStore serializes access to a config file shared by HTTP handlers and the CLI.
type ConfigStore struct {
	path string
	mu   sync.RWMutex
}

// NewConfigStore creates a store backed by the file at path. The file need not exist yet.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Path returns the backing file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Resolve returns p relative to the config file's directory.
func (s *ConfigStore) Resolve(p string) string {
	return ResolvePath(s.path, p)
}

// Load returns the current config, or the defaults when the file does not exist.
func (s *ConfigStore) Load() (*Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	config, err := LoadConfig(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return config, err
}

// Save replaces the stored config.
func (s *ConfigStore) Save(config *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SaveConfig(s.path, config)
}

// Update applies v to the stored config and persists the result.
func (s *ConfigStore) Update(v ConfigView) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, err := LoadConfig(s.path)
	if errors.Is(err, os.ErrNotExist) {
		config, err = DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	config.Apply(v)
	if err := SaveConfig(s.path, config); err != nil {
		return nil, err
	}
	return config, nil
}
