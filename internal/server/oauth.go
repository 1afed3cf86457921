package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotctl/internal/shared"
	"golang.org/x/oauth2"
)

// StateTTL bounds how long a login state stays valid.
const StateTTL = 10 * time.Minute

// Exchanger starts and finishes the authorization-code flow; [services.Manager] implements it.
type Exchanger interface {
	AuthURL(state string) (string, error)
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// callbackCode returns the authorization code of a callback request, or the vendor's denial.
func callbackCode(r *http.Request) (string, error) {
	q := r.URL.Query()
	if code := q.Get("code"); code != "" {
		return code, nil
	}
	return "", fmt.Errorf("%w: %s - %s", shared.ErrAuthFailed, q.Get("error"), q.Get("error_description"))
}

// OAuthHandler handles a single OAuth2 callback for the CLI login flow.
// Implements the Handler interface for registration with a Router.
type OAuthHandler struct {
	exchanger    Exchanger
	state        string
	callbackPath string
	resultChan   chan OAuthResult
	once         sync.Once
	callbackHit  bool
	mu           sync.Mutex
}

// NewOAuthHandler creates a single-use callback handler for state at callbackPath.
func NewOAuthHandler(exchanger Exchanger, state, callbackPath string) *OAuthHandler {
	if callbackPath == "" {
		callbackPath = "/callback"
	}
	return &OAuthHandler{
		exchanger:    exchanger,
		state:        state,
		callbackPath: callbackPath,
		resultChan:   make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + h.callbackPath}
}

// ServeHTTP handles the OAuth callback request.
//
// Validates state parameter, exchanges authorization code for tokens, and sends the result through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if r.URL.Query().Get("state") != h.state {
		h.Send(OAuthResult{err: shared.ErrInvalidState})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code, err := callbackCode(r)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	h.Send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, successPage)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

// LoginHandler serves the browser login flow of a long-running server:
// GET /login redirects to the vendor, the callback caches the token and redirects to "/".
type LoginHandler struct {
	exchanger    Exchanger
	callbackPath string
	logger       *log.Logger
	now          func() time.Time

	mu     sync.Mutex
	states map[string]time.Time
}

// NewLoginHandler creates a reusable login handler with its callback at callbackPath.
func NewLoginHandler(exchanger Exchanger, callbackPath string, logger *log.Logger) *LoginHandler {
	if callbackPath == "" {
		callbackPath = "/callback"
	}
	return &LoginHandler{
		exchanger:    exchanger,
		callbackPath: callbackPath,
		logger:       logger,
		now:          time.Now,
		states:       make(map[string]time.Time),
	}
}

// Routes returns the login and callback routes.
func (h *LoginHandler) Routes() []string {
	return []string{"GET /login", "GET " + h.callbackPath}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == h.callbackPath {
		h.callback(w, r)
		return
	}
	h.login(w, r)
}

func (h *LoginHandler) login(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	authURL, err := h.exchanger.AuthURL(state)
	if errors.Is(err, shared.ErrNotConfigured) {
		WriteError(w, http.StatusUnauthorized, "Not configured")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.remember(state)
	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *LoginHandler) callback(w http.ResponseWriter, r *http.Request) {
	if !h.consume(r.URL.Query().Get("state")) {
		http.Error(w, "Invalid or expired state parameter", http.StatusBadRequest)
		return
	}

	code, err := callbackCode(r)
	if err != nil {
		h.logger.Warn("authorization denied", "error", err)
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	if _, err := h.exchanger.Exchange(r.Context(), code); err != nil {
		h.logger.Error("token exchange failed", "error", err)
		http.Error(w, "Token exchange failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *LoginHandler) remember(state string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	for s, issued := range h.states {
		if now.Sub(issued) > StateTTL {
			delete(h.states, s)
		}
	}
	h.states[state] = now
}

// consume reports whether state was issued within [StateTTL], forgetting it either way.
func (h *LoginHandler) consume(state string) bool {
	if state == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	issued, ok := h.states[state]
	delete(h.states, state)
	return ok && h.now().Sub(issued) <= StateTTL
}

const successPage = `
<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #121212; }
        .container { text-align: center; background: #181818; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.4); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #b3b3b3; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Spotify connected</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
