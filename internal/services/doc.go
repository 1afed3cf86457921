// Package services defines the [Player] interface for Spotify Connect playback and implements it twice.
//
// # Spotify Implementation
//
// [SpotifyService] wraps github.com/zmb3/spotify/v2. Each method is a one-to-one call to the Web API;
// positions, volumes and repeat states are passed through unvalidated so the vendor's own rejection is relayed.
// An optional [rate.Limiter] paces outbound calls.
//
// # Authentication
//
// [Manager] owns the OAuth2 authorization-code flow. It re-reads the [shared.ConfigStore] on every call,
// so credential edits take effect immediately, and returns [shared.ErrNotConfigured] before any vendor call
// when the client id or secret is missing. Tokens live in a [TokenCache] (JSON, mode 0600); the oauth2
// token source refreshes them silently and refreshed tokens are written back to the cache.
//
// # spotctl Server Client
//
// [APIService] implements [Player] against a running spotctl server's REST endpoints; it backs the
// `player` CLI commands.
//
// # Error Handling
//
// Vendor failures are converted to [VendorError] carrying the vendor's status and message:
//   - status 404 matches [shared.ErrNoActiveDevice]
//   - every vendor error matches [shared.ErrAPIRequest]
//
// Server responses are converted to [ServerError], which maps 401/404/503 back onto the shared sentinels.
package services
