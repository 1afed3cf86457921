// API service for making HTTP requests to a running spotctl server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
)

var _ Player = (*APIService)(nil)

// APIService implements [Player] by calling the REST endpoints of a spotctl server.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the server at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8888"
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the server address requests are sent to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// ServerError is a non-2xx response from the spotctl server, carrying its "detail" message.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned HTTP %d", e.Status)
	}
	return e.Detail
}

// Is maps the server's error statuses back onto the shared sentinels.
func (e *ServerError) Is(target error) bool {
	switch target {
	case shared.ErrNoActiveDevice:
		return e.Status == http.StatusNotFound
	case shared.ErrNotConfigured:
		return e.Status == http.StatusUnauthorized && strings.EqualFold(e.Detail, "not configured")
	case shared.ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized && !strings.EqualFold(e.Detail, "not configured")
	case shared.ErrServiceUnavailable:
		return e.Status == http.StatusServiceUnavailable
	}
	return false
}

func (a *APIService) do(ctx context.Context, method, path string, body io.Reader) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, bytes.NewReader(data))
}

// Err converts a non-2xx response into a [ServerError].
func (r *APIResponse) Err() error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}

	var body struct {
		Detail any `json:"detail"`
	}
	serverErr := &ServerError{Status: r.StatusCode}
	if err := json.Unmarshal(r.Body, &body); err == nil && body.Detail != nil {
		if s, ok := body.Detail.(string); ok {
			serverErr.Detail = s
		} else {
			serverErr.Detail = fmt.Sprint(body.Detail)
		}
	}
	return serverErr
}

// Decode unmarshals a successful response into v.
func (r *APIResponse) Decode(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (a *APIService) command(ctx context.Context, path string, payload any) error {
	var data []byte
	if payload != nil {
		var err error
		if data, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := a.Post(ctx, path, data)
	if err != nil {
		return err
	}
	return resp.Err()
}

// Health checks that the server is reachable.
func (a *APIService) Health(ctx context.Context) error {
	resp, err := a.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	return resp.Err()
}

// AuthStatus returns the server's view of configuration and token state.
func (a *APIService) AuthStatus(ctx context.Context) (*AuthStatus, error) {
	resp, err := a.Get(ctx, "/api/auth/status")
	if err != nil {
		return nil, err
	}

	var status AuthStatus
	if err := resp.Decode(&status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (a *APIService) PlaybackState(ctx context.Context) (*models.Playback, error) {
	resp, err := a.Get(ctx, "/api/playback")
	if err != nil {
		return nil, err
	}

	var playback models.Playback
	if err := resp.Decode(&playback); err != nil {
		return nil, err
	}
	return &playback, nil
}

func (a *APIService) Play(ctx context.Context) error     { return a.command(ctx, "/api/play", nil) }
func (a *APIService) Pause(ctx context.Context) error    { return a.command(ctx, "/api/pause", nil) }
func (a *APIService) Next(ctx context.Context) error     { return a.command(ctx, "/api/next", nil) }
func (a *APIService) Previous(ctx context.Context) error { return a.command(ctx, "/api/previous", nil) }

func (a *APIService) Seek(ctx context.Context, positionMS int) error {
	return a.command(ctx, "/api/seek", map[string]int{"position_ms": positionMS})
}

func (a *APIService) Volume(ctx context.Context, percent int) error {
	return a.command(ctx, "/api/volume", map[string]int{"volume": percent})
}

func (a *APIService) Shuffle(ctx context.Context, state bool) error {
	return a.command(ctx, "/api/shuffle", map[string]bool{"state": state})
}

func (a *APIService) Repeat(ctx context.Context, state string) error {
	return a.command(ctx, "/api/repeat", map[string]string{"state": state})
}

func (a *APIService) Devices(ctx context.Context) ([]models.Device, error) {
	resp, err := a.Get(ctx, "/api/devices")
	if err != nil {
		return nil, err
	}

	var devices []models.Device
	if err := resp.Decode(&devices); err != nil {
		return nil, err
	}
	return devices, nil
}

func (a *APIService) Transfer(ctx context.Context, deviceID string, play bool) error {
	return a.command(ctx, "/api/transfer", map[string]any{"device_id": deviceID, "play": play})
}
