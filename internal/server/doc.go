// Package server provides HTTP routing, middleware, and OAuth handling for the CLI and the control panel server.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers [http.ServeMux] method patterns ("GET /api/playback"),
// so the mux answers mismatched methods with 405.
//
// # Middleware
//
//   - [RequestLogger] : assigns an X-Request-ID and logs method, path, status and duration
//   - [Recoverer] : turns panics into a 500 {"detail": ...} response
//
// # OAuth Handlers
//
// [OAuthHandler] is single-use: `spotctl auth login` starts a temporary listener on the redirect URI,
// opens the browser, and waits on [OAuthHandler.Result].
//
// [LoginHandler] is reusable: the long-running server serves GET /login and the callback path,
// tracking issued states for [StateTTL] and redirecting to "/" once the token is cached.
//
// Both delegate the code exchange to an [Exchanger], which persists the token.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
