// package services defines interface Player for driving a Spotify Connect player
//
// Spotify (via zmb3/spotify), spotctl server (via APIService)
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/zmb3/spotify/v2"
)

// Player defines the playback operations relayed to the vendor.
//
// Range checks on positions, volumes and repeat states are left to the vendor.
type Player interface {
	// PlaybackState returns the current player state.
	// Returns [shared.ErrNoActiveDevice] when the vendor reports no device.
	PlaybackState(ctx context.Context) (*models.Playback, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	// Seek moves the playhead to positionMS milliseconds.
	Seek(ctx context.Context, positionMS int) error

	// Volume sets the device volume percentage.
	Volume(ctx context.Context, percent int) error

	Shuffle(ctx context.Context, state bool) error

	// Repeat sets one of "off", "context" or "track".
	Repeat(ctx context.Context, state string) error

	// Devices lists the available Spotify Connect targets.
	Devices(ctx context.Context) ([]models.Device, error)

	// Transfer moves playback to deviceID, optionally starting it.
	Transfer(ctx context.Context, deviceID string, play bool) error
}

// VendorError is an error reported by the Spotify Web API, relayed with its status and message.
type VendorError struct {
	Status  int
	Message string
}

func (e *VendorError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify: HTTP %d", e.Status)
	}
	return e.Message
}

// Is matches [shared.ErrNoActiveDevice] for vendor 404s, which the player endpoints
// return when no device is available, and [shared.ErrAPIRequest] for everything.
func (e *VendorError) Is(target error) bool {
	switch target {
	case shared.ErrNoActiveDevice:
		return e.Status == http.StatusNotFound
	case shared.ErrAPIRequest:
		return true
	}
	return false
}

// translateError converts client library errors into [VendorError].
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var value spotify.Error
	if errors.As(err, &value) {
		return &VendorError{Status: value.Status, Message: value.Message}
	}

	var ptr *spotify.Error
	if errors.As(err, &ptr) {
		return &VendorError{Status: ptr.Status, Message: ptr.Message}
	}

	// Errors without a JSON body only carry the status in their text.
	msg := err.Error()
	var status int
	if _, scanErr := fmt.Sscanf(msg, "spotify: HTTP %d:", &status); scanErr == nil && status >= 400 {
		return &VendorError{Status: status, Message: msg}
	}
	if strings.HasPrefix(msg, "spotify: couldn't decode error") {
		return &VendorError{Status: http.StatusBadGateway, Message: msg}
	}
	return err
}

// PlayerProvider yields a ready [Player]; [Manager] builds a fresh one per call.
type PlayerProvider interface {
	Player(ctx context.Context) (Player, error)
}
