package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/desertthunder/spotctl/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive now-playing screen.
//
// With --server the TUI drives a running spotctl server; otherwise it calls Spotify with the cached token.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	var player services.Player
	if cmd.String("server") != "" {
		if player, err = r.api(cmd); err != nil {
			return err
		}
	} else if player, err = r.newManager(nil).Player(ctx); err != nil {
		return fmt.Errorf("%w (run 'spotctl auth login' or pass --server)", err)
	}

	p := tea.NewProgram(ui.NewModel(ctx, player), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
