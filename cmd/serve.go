package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/desertthunder/spotctl/internal/repositories"
	"github.com/desertthunder/spotctl/internal/server"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/desertthunder/spotctl/internal/tasks"
	"github.com/desertthunder/spotctl/internal/web"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 5 * time.Second

// callbackPath returns the path component of the redirect URI, defaulting to /callback.
func callbackPath(redirectURI string) string {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "/callback"
	}
	return u.Path
}

// checkCallbackPath rejects callback paths that would shadow a server route or
// are not a literal ServeMux path.
func checkCallbackPath(path string) error {
	switch {
	case path == "/login", path == "/health", path == "/api", strings.HasPrefix(path, "/api/"):
		return fmt.Errorf("%w: redirect URI path %q collides with a server route", shared.ErrInvalidConfig, path)
	case strings.ContainsAny(path, "{} "):
		return fmt.Errorf("%w: redirect URI path %q is not a literal path", shared.ErrInvalidConfig, path)
	}
	return nil
}

// limiter converts a requests-per-second cap into a [rate.Limiter]; zero or less means unlimited.
func limiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
}

// history opens the play history database. Failures are logged and yield a nil repository.
func (r *Runner) history(config *shared.Config) (*repositories.PlayRepository, func()) {
	path := r.store.Resolve(config.HistoryPath)
	db, err := shared.OpenHistory(path)
	if err != nil {
		r.logger.Warn("play history disabled", "path", path, "error", err)
		return nil, func() {}
	}
	return repositories.NewPlayRepository(db), func() { db.Close() }
}

// newRouter wires middleware, the login flow and the REST API.
func (r *Runner) newRouter(manager *services.Manager, config *shared.Config, repo *repositories.PlayRepository, recorder *tasks.Recorder) *server.BasicRouter {
	router := server.NewBasicRouter()
	router.Use(server.Recoverer(r.logger), server.RequestLogger(r.logger))
	router.Handler(server.NewLoginHandler(manager, callbackPath(config.RedirectURI), r.logger))

	var (
		history  web.HistoryLister
		observer web.Observer
	)
	if repo != nil {
		history, observer = repo, recorder
	}
	web.NewController(manager, history, observer, r.logger).Register(router)
	return router
}

// Serve runs the web controller until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.store.Load()
	if err != nil {
		return err
	}
	if err := checkCallbackPath(callbackPath(config.RedirectURI)); err != nil {
		return err
	}

	manager := r.newManager(limiter(cmd.Float("rate")))

	repo, closeHistory := r.history(config)
	defer closeHistory()

	var recorder *tasks.Recorder
	if repo != nil {
		recorder = tasks.NewRecorder(repo, shared.WithLogger(r.logger, "component", "recorder"))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("record") {
		if recorder == nil {
			return fmt.Errorf("%w: --record needs the history database", shared.ErrServiceUnavailable)
		}
		go r.record(ctx, recorder, manager, cmd.Duration("record-interval"))
	}

	httpServer := &http.Server{
		Addr:              config.Addr(),
		Handler:           r.newRouter(manager, config, repo, recorder),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting server", "addr", httpServer.Addr, "config", r.store.Path())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	if !config.Configured() {
		r.writePlain("⚠ Spotify credentials are not set. Open http://%s to configure them.\n", config.Addr())
	}
	r.writePlain("→ Serving on http://%s (Ctrl+C to stop)\n", config.Addr())

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

// record runs the polling recorder, logging each progress update.
func (r *Runner) record(ctx context.Context, recorder *tasks.Recorder, provider services.PlayerProvider, interval time.Duration) {
	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			switch update.Phase {
			case tasks.Recorded:
				r.logger.Info(update.Message, "step", update.Step)
			case tasks.Failed, tasks.Unavailable:
				r.logger.Warn(update.Message, "step", update.Step)
			default:
				r.logger.Debug(update.Message, "step", update.Step, "phase", update.Phase)
			}
		}
	}()

	r.logger.Info("recording play history", "interval", interval)
	if err := recorder.Run(ctx, provider, interval, progress); err != nil {
		r.logger.Error("recorder stopped", "error", err)
	}
	close(progress)
	<-done
}
