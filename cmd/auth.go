package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/spotctl/internal/server"
	"github.com/desertthunder/spotctl/internal/services"
	"github.com/desertthunder/spotctl/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

var (
	// loginTimeout bounds how long `auth login` waits for the browser callback.
	loginTimeout = 2 * time.Minute
	openBrowser  = shared.OpenBrowser
)

// AuthLogin performs the OAuth2 authorization-code flow and caches the token.
//
// Starts a temporary HTTP server on the redirect URI's host, opens the browser for user authorization,
// and exchanges the code for a token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	manager := r.newManager(nil)

	config, err := manager.Config()
	if err != nil {
		return fmt.Errorf("%w: set client_id and client_secret with 'spotctl config set' first", err)
	}

	token, err := r.doOAuth(ctx, manager, config.RedirectURI)
	if err != nil {
		return err
	}

	cache, err := manager.Cache()
	if err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token cached at %s (expires %s)\n\n", cache.Path(), token.Expiry.Local().Format(time.Kitchen))
	r.writePlain("You can now use: spotctl serve\n")
	return nil
}

// listenAddr returns the host:port the redirect URI points at.
func listenAddr(redirectURI string) (string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: redirect_uri %q is not an absolute URL", shared.ErrInvalidConfig, redirectURI)
	}
	if u.Port() == "" {
		return net.JoinHostPort(u.Hostname(), "80"), nil
	}
	return u.Host, nil
}

func (r *Runner) doOAuth(ctx context.Context, exchanger server.Exchanger, redirectURI string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL, err := exchanger.AuthURL(state)
	if err != nil {
		return nil, err
	}

	addr, err := listenAddr(redirectURI)
	if err != nil {
		return nil, err
	}

	oauthHandler := server.NewOAuthHandler(exchanger, state, callbackPath(redirectURI))
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", loginTimeout)

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, loginTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// AuthStatus reports whether credentials are configured and a token is cached.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status, err := r.newManager(nil).Status()
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}
	return r.writeAuthStatus(status)
}

func (r *Runner) writeAuthStatus(status services.AuthStatus) error {
	r.writePlainHeader("Spotify")
	r.writePlain("Config: %s\n", r.store.Path())
	if status.Configured {
		r.writePlain("Credentials: ✓ Configured\n")
	} else {
		r.writePlain("Credentials: ✗ Not configured (run 'spotctl config set --client-id ... --client-secret ...')\n")
	}
	if status.Authenticated {
		return r.writePlain("Authentication: ✓ Authenticated\n")
	}
	return r.writePlain("Authentication: ✗ Not authenticated (run 'spotctl auth login')\n")
}

// AuthLogout deletes the cached token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	manager := r.newManager(nil)
	if err := manager.Logout(); err != nil {
		return err
	}
	r.logger.Info("token cache deleted")
	return r.writePlain("✓ Logged out\n")
}
