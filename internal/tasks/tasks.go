// package tasks implements playback history recording.
//
// The core abstraction is Recorder, which turns observed player states into history entries.
// The polling loop emits progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultInterval is the polling period of [Recorder.Run].
const DefaultInterval = 5 * time.Second

// PlayStore persists history entries; [repositories.PlayRepository] implements it.
type PlayStore interface {
	Create(play *models.Play) error
	Latest() (*models.Play, error)
}

// Recorder appends a history entry each time the current track changes.
type Recorder struct {
	store  PlayStore
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	loaded  bool
	lastURI string
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store PlayStore, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.Default()
	}
	return &Recorder{store: store, logger: logger, now: time.Now}
}

// Observe records p when its track URI differs from the last recorded one.
//
// Returns the new entry, or nil when nothing was recorded. Empty URIs (ads, local files, idle devices) are ignored.
func (r *Recorder) Observe(p *models.Playback) (*models.Play, error) {
	if p == nil || p.TrackURI == "" {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded {
		latest, err := r.store.Latest()
		if err != nil {
			return nil, fmt.Errorf("failed to load latest play: %w", err)
		}
		if latest != nil {
			r.lastURI = latest.TrackURI()
		}
		r.loaded = true
	}

	if p.TrackURI == r.lastURI {
		return nil, nil
	}

	play := models.NewPlay(*p, r.now())
	if err := r.store.Create(play); err != nil {
		return nil, fmt.Errorf("failed to record play: %w", err)
	}

	r.lastURI = p.TrackURI
	r.logger.Debug("play recorded", "track", play.TrackName(), "artist", play.ArtistName(), "device", play.DeviceName())
	return play, nil
}

// Run polls provider every interval until ctx is done, observing each state.
//
// Polls are paced with a [rate.Limiter]; the first poll happens immediately.
// Errors from individual polls are reported on progress and do not stop the loop.
func (r *Recorder) Run(ctx context.Context, provider services.PlayerProvider, interval time.Duration, progress chan<- ProgressUpdate) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for step := 1; ; step++ {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		sendProgress(progress, r.poll(ctx, provider, step))
	}
}

func (r *Recorder) poll(ctx context.Context, provider services.PlayerProvider, step int) ProgressUpdate {
	player, err := provider.Player(ctx)
	if err != nil {
		return unavailableUpdate(step, err)
	}

	playback, err := player.PlaybackState(ctx)
	switch {
	case errors.Is(err, shared.ErrNoActiveDevice):
		return idleUpdate(step)
	case err != nil:
		return failedUpdate(step, err)
	}

	play, err := r.Observe(playback)
	switch {
	case err != nil:
		return failedUpdate(step, err)
	case play != nil:
		return recordedUpdate(step, play)
	default:
		return unchangedUpdate(step, playback)
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
