package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigShow prints the public configuration with the client secret masked.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, err := r.store.Load()
	if err != nil {
		return err
	}

	view := config.Masked()
	if cmd.Bool("json") {
		return r.writeJSON(view, true)
	}

	r.writePlainHeader(r.store.Path())
	r.writePlain("client_id:     %s\n", view.ClientID)
	r.writePlain("client_secret: %s\n", view.ClientSecret)
	r.writePlain("redirect_uri:  %s\n", view.RedirectURI)
	r.writePlain("host:          %s\n", view.Host)
	r.writePlain("port:          %d\n", view.Port)
	r.writePlain("cache_path:    %s\n", r.store.Resolve(config.CachePath))
	return r.writePlain("history_path:  %s\n", r.store.Resolve(config.HistoryPath))
}

// ConfigInit writes the example configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := r.store.Path()
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Create an app at https://developer.spotify.com/dashboard\n")
	r.writePlain("2. Run 'spotctl config set --client-id ... --client-secret ...'\n")
	return r.writePlain("3. Run 'spotctl auth login' or open the web UI with 'spotctl serve'\n")
}

// ConfigSet applies the given flags to the stored configuration.
func (r *Runner) ConfigSet(ctx context.Context, cmd *cli.Command) error {
	view := shared.ConfigView{
		ClientID:     cmd.String("client-id"),
		ClientSecret: cmd.String("client-secret"),
		RedirectURI:  cmd.String("redirect-uri"),
		Host:         cmd.String("host"),
		Port:         cmd.Int("port"),
	}
	if view == (shared.ConfigView{}) {
		return fmt.Errorf("%w: pass at least one of --client-id, --client-secret, --redirect-uri, --host, --port", shared.ErrMissingArgument)
	}

	if _, err := r.store.Update(view); err != nil {
		return err
	}

	r.logger.Info("config updated", "path", r.store.Path())
	return r.writePlain("✓ Config saved to %s\n", r.store.Path())
}
