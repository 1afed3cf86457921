// Package web implements the REST API and single-page control panel served by `spotctl serve`.
//
// # Routes
//
//	GET  /                 → embedded Vue control panel
//	GET  /health           → liveness probe
//	GET  /api/playback     → current player state (feeds the history recorder)
//	POST /api/play         → resume
//	POST /api/pause        → pause
//	POST /api/next         → skip forward
//	POST /api/previous     → skip back
//	POST /api/seek         → {"position_ms": int}
//	POST /api/volume       → {"volume": int}
//	POST /api/shuffle      → {"state": bool}
//	POST /api/repeat       → {"state": "off"|"context"|"track"}
//	GET  /api/devices      → Spotify Connect devices
//	POST /api/transfer     → {"device_id": string, "play": bool}
//	GET  /api/config       → config with the secret masked
//	POST /api/config       → apply non-empty fields
//	GET  /api/history      → ?limit=N, newest first
//	GET  /api/auth/status  → {configured, authenticated, login_url}
//
// The login and callback routes are served by [server.LoginHandler].
//
// # Error Handling
//
// All error responses are {"detail": string}:
//   - credentials missing → 401 "Not configured", before any vendor call
//   - no cached token → 401 "Not authenticated"
//   - vendor rejections → the vendor's status and message, relayed verbatim
//   - no device reported by the vendor → 404 "No active device"
//   - token refresh failures → 401
//   - missing or wrongly typed body fields → 422
//
// Values such as seek positions and volumes are not range checked here; the vendor decides.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFiles embed.FS

// Static returns the embedded control panel assets rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
