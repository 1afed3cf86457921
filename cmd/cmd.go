// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/spotctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// serveCommand runs the web controller
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web controller and REST API",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "record",
				Usage: "Poll the player in the background and record play history",
			},
			&cli.DurationFlag{
				Name:  "record-interval",
				Usage: "Polling interval for --record",
				Value: tasks.DefaultInterval,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Maximum Spotify API requests per second (0 = unlimited)",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles the OAuth token cache
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize in the browser and cache the token",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Show configuration and token status",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Delete the cached token",
				Action: r.AuthLogout,
			},
		},
	}
}

// configCommand reads and edits the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or edit configuration",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the configuration with the secret masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ConfigShow,
			},
			{
				Name:   "init",
				Usage:  "Write a configuration file from the example template",
				Action: r.ConfigInit,
			},
			{
				Name:  "set",
				Usage: "Update configuration fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "client-id", Usage: "Spotify client ID"},
					&cli.StringFlag{Name: "client-secret", Usage: "Spotify client secret"},
					&cli.StringFlag{Name: "redirect-uri", Usage: "OAuth redirect URI"},
					&cli.StringFlag{Name: "host", Usage: "Listen host"},
					&cli.IntFlag{Name: "port", Usage: "Listen port"},
				},
				Action: r.ConfigSet,
			},
		},
	}
}

// playerCommand controls playback through a running server
func playerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "player",
		Aliases: []string{"p"},
		Usage:   "Control playback through a running spotctl server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "spotctl server URL (defaults to the configured host and port)",
				Sources: cli.EnvVars("SPOTCTL_SERVER"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show the current track",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayerStatus,
			},
			{Name: "play", Usage: "Resume playback", Action: r.PlayerPlay},
			{Name: "pause", Usage: "Pause playback", Action: r.PlayerPause},
			{Name: "next", Usage: "Skip to the next track", Action: r.PlayerNext},
			{Name: "previous", Aliases: []string{"prev"}, Usage: "Skip to the previous track", Action: r.PlayerPrevious},
			{
				Name:      "seek",
				Usage:     "Seek to a position in milliseconds",
				Arguments: []cli.Argument{&cli.StringArg{Name: "position"}},
				Action:    r.PlayerSeek,
			},
			{
				Name:      "volume",
				Usage:     "Set the volume percentage",
				Arguments: []cli.Argument{&cli.StringArg{Name: "percent"}},
				Action:    r.PlayerVolume,
			},
			{
				Name:      "shuffle",
				Usage:     "Turn shuffle on or off",
				Arguments: []cli.Argument{&cli.StringArg{Name: "state"}},
				Action:    r.PlayerShuffle,
			},
			{
				Name:      "repeat",
				Usage:     "Set repeat to off, context or track",
				Arguments: []cli.Argument{&cli.StringArg{Name: "state"}},
				Action:    r.PlayerRepeat,
			},
			{
				Name:  "devices",
				Usage: "List Spotify Connect devices",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.PlayerDevices,
			},
			{
				Name:      "transfer",
				Usage:     "Move playback to another device",
				Arguments: []cli.Argument{&cli.StringArg{Name: "device"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "play",
						Usage: "Start playing on the new device",
					},
				},
				Action: r.PlayerTransfer,
			},
		},
	}
}

// historyCommand reads the local play history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recently recorded plays",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of plays to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "csv",
				Usage: "Output CSV",
			},
		},
		Action: r.History,
	}
}

// setupCommand prepares local state
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Prepare configuration and storage",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand launches the terminal UI
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Interactive now-playing screen",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "Drive a running spotctl server instead of calling Spotify directly",
				Sources: cli.EnvVars("SPOTCTL_SERVER"),
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log destination while the TUI is running",
				Value: "./tmp/spotctl-tui.log",
			},
		},
		Action: r.TUI,
	}
}
