// Spotify Web API implementation of [Player]
//
// Calls go through github.com/zmb3/spotify/v2; see https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/time/rate"
)

var _ Player = (*SpotifyService)(nil)

// Scopes requested during the authorization-code flow.
var Scopes = []string{
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
}

// SpotifyOptions tunes a [SpotifyService].
type SpotifyOptions struct {
	// BaseURL overrides the Web API root (used by tests); must end with "/".
	BaseURL string
	// Limiter paces outbound calls; nil means unlimited.
	Limiter *rate.Limiter
}

// SpotifyService implements [Player] for the Spotify Web API.
// The http.Client is expected to carry OAuth2 credentials (see [Manager]).
type SpotifyService struct {
	client  *spotify.Client
	limiter *rate.Limiter
}

// NewSpotifyService creates a Spotify player over an authenticated HTTP client.
func NewSpotifyService(httpClient *http.Client, opts SpotifyOptions) *SpotifyService {
	var clientOpts []spotify.ClientOption
	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		clientOpts = append(clientOpts, spotify.WithBaseURL(base))
	}
	return &SpotifyService{
		client:  spotify.New(httpClient, clientOpts...),
		limiter: opts.Limiter,
	}
}

func (s *SpotifyService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// call waits for the limiter then runs fn, translating vendor errors.
func (s *SpotifyService) call(ctx context.Context, fn func() error) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	return translateError(fn())
}

// PlaybackState fetches the player state. A 204 from the vendor decodes to an
// empty state, which is reported as [shared.ErrNoActiveDevice].
func (s *SpotifyService) PlaybackState(ctx context.Context) (*models.Playback, error) {
	var state *spotify.PlayerState
	err := s.call(ctx, func() (err error) {
		state, err = s.client.PlayerState(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if state == nil || (state.Item == nil && state.Device.ID == "") {
		return nil, shared.ErrNoActiveDevice
	}
	return toPlayback(state), nil
}

func toPlayback(state *spotify.PlayerState) *models.Playback {
	p := &models.Playback{
		IsPlaying:  state.Playing,
		ProgressMS: int(state.Progress),
		Volume:     int(state.Device.Volume),
		Shuffle:    state.ShuffleState,
		Repeat:     state.RepeatState,
		DeviceName: state.Device.Name,
	}

	track := state.Item
	if track == nil {
		return p
	}

	artists := make([]string, 0, len(track.Artists))
	for _, a := range track.Artists {
		artists = append(artists, a.Name)
	}

	p.TrackName = track.Name
	p.ArtistName = strings.Join(artists, ", ")
	p.AlbumName = track.Album.Name
	p.DurationMS = int(track.Duration)
	p.TrackURI = string(track.URI)
	if len(track.Album.Images) > 0 {
		art := track.Album.Images[0].URL
		p.AlbumArt = &art
	}
	return p
}

func (s *SpotifyService) Play(ctx context.Context) error {
	return s.call(ctx, func() error { return s.client.Play(ctx) })
}

func (s *SpotifyService) Pause(ctx context.Context) error {
	return s.call(ctx, func() error { return s.client.Pause(ctx) })
}

func (s *SpotifyService) Next(ctx context.Context) error {
	return s.call(ctx, func() error { return s.client.Next(ctx) })
}

func (s *SpotifyService) Previous(ctx context.Context) error {
	return s.call(ctx, func() error { return s.client.Previous(ctx) })
}

func (s *SpotifyService) Seek(ctx context.Context, positionMS int) error {
	return s.call(ctx, func() error { return s.client.Seek(ctx, positionMS) })
}

func (s *SpotifyService) Volume(ctx context.Context, percent int) error {
	return s.call(ctx, func() error { return s.client.Volume(ctx, percent) })
}

func (s *SpotifyService) Shuffle(ctx context.Context, state bool) error {
	return s.call(ctx, func() error { return s.client.Shuffle(ctx, state) })
}

func (s *SpotifyService) Repeat(ctx context.Context, state string) error {
	return s.call(ctx, func() error { return s.client.Repeat(ctx, state) })
}

// Devices lists the user's available devices.
func (s *SpotifyService) Devices(ctx context.Context) ([]models.Device, error) {
	var devices []spotify.PlayerDevice
	err := s.call(ctx, func() (err error) {
		devices, err = s.client.PlayerDevices(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, models.Device{
			ID:         string(d.ID),
			Name:       d.Name,
			Type:       d.Type,
			Active:     d.Active,
			Restricted: d.Restricted,
			Volume:     int(d.Volume),
		})
	}
	return out, nil
}

// Transfer moves playback to the given device.
func (s *SpotifyService) Transfer(ctx context.Context, deviceID string, play bool) error {
	return s.call(ctx, func() error { return s.client.TransferPlayback(ctx, spotify.ID(deviceID), play) })
}
