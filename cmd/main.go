package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotctl",
		Usage:   "Control Spotify playback from a browser, the terminal, or scripts",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (.json or .toml)",
				Value:   DefaultConfigPath,
				Sources: cli.EnvVars("SPOTCTL_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("SPOTCTL_DEBUG"),
			},
		},
		Before:   r.before,
		Commands: r.register(),
	}
}
