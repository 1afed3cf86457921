package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// DefaultConfigPath is used when neither --config nor SPOTCTL_CONFIG is set.
const DefaultConfigPath = "config.json"

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	store      *shared.ConfigStore
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		store:      shared.NewConfigStore(opts.ConfigPath),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger used by subsequent commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// before applies the global --config and --debug flags.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" && path != r.store.Path() {
		r.store = shared.NewConfigStore(path)
	}
	if cmd.Bool("debug") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, authCommand, configCommand, playerCommand, historyCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// newManager builds a [services.Manager] over the runner's config store.
func (r *Runner) newManager(limiter *rate.Limiter) *services.Manager {
	return services.NewManager(r.store, services.ManagerOptions{
		HTTPClient: r.httpClient,
		Limiter:    limiter,
		Logger:     r.logger,
	})
}

// serverURL returns the --server flag, or the local address of the configured server.
func (r *Runner) serverURL(cmd *cli.Command) (string, error) {
	if u := cmd.String("server"); u != "" {
		return strings.TrimRight(u, "/"), nil
	}

	config, err := r.store.Load()
	if err != nil {
		return "", err
	}
	host := config.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, config.Port), nil
}

// api returns a client for the spotctl server selected by --server.
func (r *Runner) api(cmd *cli.Command) (*services.APIService, error) {
	base, err := r.serverURL(cmd)
	if err != nil {
		return nil, err
	}
	return services.NewAPIService(base, r.httpClient), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
