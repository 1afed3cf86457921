package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotctl/internal/formatter"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recorded plays newest first, reading the database directly.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	if limit < 1 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidArgument)
	}

	config, err := r.store.Load()
	if err != nil {
		return err
	}

	repo, closeHistory := r.history(config)
	defer closeHistory()
	if repo == nil {
		return fmt.Errorf("%w: history database is not available", shared.ErrServiceUnavailable)
	}

	plays, err := repo.List(map[string]any{"limit": limit})
	if err != nil {
		return fmt.Errorf("failed to list plays: %w", err)
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(plays, true)
	case cmd.Bool("csv"):
		data, err := formatter.HistoryCSV(plays)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	default:
		return r.writePlain("%s", formatter.HistoryText(plays))
	}
}
