package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/spotctl/internal/formatter"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// playerAction runs fn against the server's player and prints done on success.
func (r *Runner) playerAction(ctx context.Context, cmd *cli.Command, done string, fn func(context.Context, *services.APIService) error) error {
	api, err := r.api(cmd)
	if err != nil {
		return err
	}

	r.logger.Debug("player command", "server", api.BaseURL(), "command", cmd.Name)
	if err := fn(ctx, api); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", done)
}

func intArg(cmd *cli.Command, name string) (int, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return n, nil
}

// PlayerStatus prints the current playback state.
func (r *Runner) PlayerStatus(ctx context.Context, cmd *cli.Command) error {
	api, err := r.api(cmd)
	if err != nil {
		return err
	}

	playback, err := api.PlaybackState(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playback, true)
	}
	return r.writePlain("%s", formatter.PlaybackText(playback))
}

func (r *Runner) PlayerPlay(ctx context.Context, cmd *cli.Command) error {
	return r.playerAction(ctx, cmd, "Playing", func(ctx context.Context, api *services.APIService) error {
		return api.Play(ctx)
	})
}

func (r *Runner) PlayerPause(ctx context.Context, cmd *cli.Command) error {
	return r.playerAction(ctx, cmd, "Paused", func(ctx context.Context, api *services.APIService) error {
		return api.Pause(ctx)
	})
}

func (r *Runner) PlayerNext(ctx context.Context, cmd *cli.Command) error {
	return r.playerAction(ctx, cmd, "Skipped to next track", func(ctx context.Context, api *services.APIService) error {
		return api.Next(ctx)
	})
}

func (r *Runner) PlayerPrevious(ctx context.Context, cmd *cli.Command) error {
	return r.playerAction(ctx, cmd, "Skipped to previous track", func(ctx context.Context, api *services.APIService) error {
		return api.Previous(ctx)
	})
}

// PlayerSeek seeks to an absolute position in milliseconds.
func (r *Runner) PlayerSeek(ctx context.Context, cmd *cli.Command) error {
	position, err := intArg(cmd, "position")
	if err != nil {
		return err
	}
	return r.playerAction(ctx, cmd, "Seeked to "+shared.FormatDuration(position), func(ctx context.Context, api *services.APIService) error {
		return api.Seek(ctx, position)
	})
}

// PlayerVolume sets the volume percentage. Range checks are left to Spotify.
func (r *Runner) PlayerVolume(ctx context.Context, cmd *cli.Command) error {
	percent, err := intArg(cmd, "percent")
	if err != nil {
		return err
	}
	return r.playerAction(ctx, cmd, fmt.Sprintf("Volume set to %d%%", percent), func(ctx context.Context, api *services.APIService) error {
		return api.Volume(ctx, percent)
	})
}

// PlayerShuffle accepts on/off (or true/false).
func (r *Runner) PlayerShuffle(ctx context.Context, cmd *cli.Command) error {
	var state bool
	switch raw := strings.ToLower(cmd.StringArg("state")); raw {
	case "on", "true":
		state = true
	case "off", "false":
		state = false
	case "":
		return fmt.Errorf("%w: state (on|off)", shared.ErrMissingArgument)
	default:
		return fmt.Errorf("%w: shuffle state must be on or off, got %q", shared.ErrInvalidArgument, raw)
	}

	return r.playerAction(ctx, cmd, "Shuffle "+onOff(state), func(ctx context.Context, api *services.APIService) error {
		return api.Shuffle(ctx, state)
	})
}

// PlayerRepeat passes the state through; Spotify rejects unknown modes.
func (r *Runner) PlayerRepeat(ctx context.Context, cmd *cli.Command) error {
	state := cmd.StringArg("state")
	if state == "" {
		return fmt.Errorf("%w: state (off|context|track)", shared.ErrMissingArgument)
	}
	return r.playerAction(ctx, cmd, "Repeat "+state, func(ctx context.Context, api *services.APIService) error {
		return api.Repeat(ctx, state)
	})
}

// PlayerDevices lists Spotify Connect devices.
func (r *Runner) PlayerDevices(ctx context.Context, cmd *cli.Command) error {
	api, err := r.api(cmd)
	if err != nil {
		return err
	}

	devices, err := api.Devices(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(devices, true)
	}
	return r.writePlain("%s", formatter.DevicesText(devices))
}

// PlayerTransfer moves playback to the given device id.
func (r *Runner) PlayerTransfer(ctx context.Context, cmd *cli.Command) error {
	deviceID := cmd.StringArg("device")
	if deviceID == "" {
		return fmt.Errorf("%w: device", shared.ErrMissingArgument)
	}
	play := cmd.Bool("play")
	return r.playerAction(ctx, cmd, "Playback transferred to "+deviceID, func(ctx context.Context, api *services.APIService) error {
		return api.Transfer(ctx, deviceID, play)
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
