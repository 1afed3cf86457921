package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/server"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"golang.org/x/oauth2"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Backend supplies players and auth state; [services.Manager] implements it.
type Backend interface {
	Player(ctx context.Context) (services.Player, error)
	Status() (services.AuthStatus, error)
	Store() *shared.ConfigStore
}

// HistoryLister reads stored plays; [repositories.PlayRepository] implements it.
type HistoryLister interface {
	List(criteria map[string]any) ([]*models.Play, error)
}

// Observer receives every player state served; [tasks.Recorder] implements it.
type Observer interface {
	Observe(p *models.Playback) (*models.Play, error)
}

// Controller serves the REST API.
type Controller struct {
	backend  Backend
	history  HistoryLister
	observer Observer
	logger   *log.Logger
}

// NewController creates a controller. history and observer may be nil when the history database is unavailable.
func NewController(backend Backend, history HistoryLister, observer Observer, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{backend: backend, history: history, observer: observer, logger: logger}
}

// Register mounts every API route and the control panel on r.
func (c *Controller) Register(r *server.BasicRouter) {
	r.HandleFunc(http.MethodGet, "/{$}", c.Index)
	r.HandleFunc(http.MethodGet, "/health", c.Health)

	r.HandleFunc(http.MethodGet, "/api/playback", c.Playback)
	r.HandleFunc(http.MethodPost, "/api/play", c.command(func(ctx context.Context, p services.Player) error { return p.Play(ctx) }))
	r.HandleFunc(http.MethodPost, "/api/pause", c.command(func(ctx context.Context, p services.Player) error { return p.Pause(ctx) }))
	r.HandleFunc(http.MethodPost, "/api/next", c.command(func(ctx context.Context, p services.Player) error { return p.Next(ctx) }))
	r.HandleFunc(http.MethodPost, "/api/previous", c.command(func(ctx context.Context, p services.Player) error { return p.Previous(ctx) }))
	r.HandleFunc(http.MethodPost, "/api/seek", c.Seek)
	r.HandleFunc(http.MethodPost, "/api/volume", c.Volume)
	r.HandleFunc(http.MethodPost, "/api/shuffle", c.Shuffle)
	r.HandleFunc(http.MethodPost, "/api/repeat", c.Repeat)
	r.HandleFunc(http.MethodGet, "/api/devices", c.Devices)
	r.HandleFunc(http.MethodPost, "/api/transfer", c.Transfer)

	r.HandleFunc(http.MethodGet, "/api/config", c.GetConfig)
	r.HandleFunc(http.MethodPost, "/api/config", c.UpdateConfig)
	r.HandleFunc(http.MethodGet, "/api/history", c.History)
	r.HandleFunc(http.MethodGet, "/api/auth/status", c.AuthStatus)
}

// success is the body of every successful command.
var success = map[string]bool{"success": true}

// writeError maps err onto a status code and a {"detail"} body.
func (c *Controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classify(err)
	if status >= http.StatusInternalServerError {
		c.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", server.RequestID(r.Context()))
	} else {
		c.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	server.WriteError(w, status, detail)
}

func classify(err error) (int, string) {
	var (
		vendorErr   *services.VendorError
		retrieveErr *oauth2.RetrieveError
	)

	switch {
	case errors.Is(err, shared.ErrNotConfigured):
		return http.StatusUnauthorized, "Not configured"
	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized, "Not authenticated"
	case errors.As(err, &vendorErr):
		status := vendorErr.Status
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return status, vendorErr.Error()
	case errors.Is(err, shared.ErrNoActiveDevice):
		return http.StatusNotFound, "No active device"
	case errors.As(err, &retrieveErr):
		return http.StatusUnauthorized, fmt.Sprintf("Authentication failed: %v", retrieveErr)
	case errors.Is(err, shared.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, shared.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

// decode reads a JSON body into v, reporting malformed or mistyped input as [shared.ErrInvalidInput].
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", shared.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return nil
}

func required(field string) error {
	return fmt.Errorf("%w: field %q is required", shared.ErrInvalidInput, field)
}

// command runs fn against a fresh player and answers {"success": true}.
func (c *Controller) command(fn func(context.Context, services.Player) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := c.backend.Player(r.Context())
		if err != nil {
			c.writeError(w, r, err)
			return
		}
		if err := fn(r.Context(), player); err != nil {
			c.writeError(w, r, err)
			return
		}
		server.WriteJSON(w, http.StatusOK, success)
	}
}

// Index serves the control panel.
func (c *Controller) Index(w http.ResponseWriter, r *http.Request) {
	page, err := fs.ReadFile(Static(), "index.html")
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// Health reports liveness.
func (c *Controller) Health(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Playback relays the current player state and hands it to the history observer.
func (c *Controller) Playback(w http.ResponseWriter, r *http.Request) {
	player, err := c.backend.Player(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	playback, err := player.PlaybackState(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	if c.observer != nil {
		if _, err := c.observer.Observe(playback); err != nil {
			c.logger.Warn("failed to record play", "error", err)
		}
	}

	server.WriteJSON(w, http.StatusOK, playback)
}

// Seek moves playback to position_ms.
func (c *Controller) Seek(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PositionMS *int `json:"position_ms"`
	}
	if err := decode(r, &body); err != nil {
		c.writeError(w, r, err)
		return
	}
	if body.PositionMS == nil {
		c.writeError(w, r, required("position_ms"))
		return
	}
	c.command(func(ctx context.Context, p services.Player) error { return p.Seek(ctx, *body.PositionMS) })(w, r)
}

// Volume sets the active device volume.
func (c *Controller) Volume(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Volume *int `json:"volume"`
	}
	if err := decode(r, &body); err != nil {
		c.writeError(w, r, err)
		return
	}
	if body.Volume == nil {
		c.writeError(w, r, required("volume"))
		return
	}
	c.command(func(ctx context.Context, p services.Player) error { return p.Volume(ctx, *body.Volume) })(w, r)
}

// Shuffle turns shuffle on or off.
func (c *Controller) Shuffle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		State *bool `json:"state"`
	}
	if err := decode(r, &body); err != nil {
		c.writeError(w, r, err)
		return
	}
	if body.State == nil {
		c.writeError(w, r, required("state"))
		return
	}
	c.command(func(ctx context.Context, p services.Player) error { return p.Shuffle(ctx, *body.State) })(w, r)
}

// Repeat sets the repeat mode.
func (c *Controller) Repeat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		State *string `json:"state"`
	}
	if err := decode(r, &body); err != nil {
		c.writeError(w, r, err)
		return
	}
	if body.State == nil {
		c.writeError(w, r, required("state"))
		return
	}
	c.command(func(ctx context.Context, p services.Player) error { return p.Repeat(ctx, *body.State) })(w, r)
}

// Devices lists Spotify Connect targets.
func (c *Controller) Devices(w http.ResponseWriter, r *http.Request) {
	player, err := c.backend.Player(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	devices, err := player.Devices(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, devices)
}

// Transfer moves playback to device_id, optionally starting it.
func (c *Controller) Transfer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		DeviceID *string `json:"device_id"`
		Play     bool    `json:"play"`
	}
	if err := decode(r, &body); err != nil {
		c.writeError(w, r, err)
		return
	}
	if body.DeviceID == nil || *body.DeviceID == "" {
		c.writeError(w, r, required("device_id"))
		return
	}
	c.command(func(ctx context.Context, p services.Player) error { return p.Transfer(ctx, *body.DeviceID, body.Play) })(w, r)
}

// GetConfig returns the public config with the secret masked.
func (c *Controller) GetConfig(w http.ResponseWriter, r *http.Request) {
	config, err := c.backend.Store().Load()
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, config.Masked())
}

// UpdateConfig applies the non-empty fields of the body and persists them.
func (c *Controller) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var view shared.ConfigView
	if err := decode(r, &view); err != nil {
		c.writeError(w, r, err)
		return
	}

	if _, err := c.backend.Store().Update(view); err != nil {
		c.writeError(w, r, err)
		return
	}

	c.logger.Info("config updated", "path", c.backend.Store().Path())
	server.WriteJSON(w, http.StatusOK, success)
}

// History lists recorded plays newest first.
func (c *Controller) History(w http.ResponseWriter, r *http.Request) {
	if c.history == nil {
		c.writeError(w, r, fmt.Errorf("%w: history database is not available", shared.ErrServiceUnavailable))
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.writeError(w, r, fmt.Errorf("%w: limit must be a positive integer", shared.ErrInvalidInput))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	plays, err := c.history.List(map[string]any{"limit": limit})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, plays)
}

// AuthStatus reports configuration and token presence.
func (c *Controller) AuthStatus(w http.ResponseWriter, r *http.Request) {
	status, err := c.backend.Status()
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, status)
}
