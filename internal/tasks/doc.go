// Package tasks records playback history with real-time progress reporting.
//
// # Recording
//
// [Recorder.Observe] is fed every player state the server sees (GET /api/playback calls it).
// It inserts a [models.Play] whenever the track URI changes; the last URI is seeded from
// the most recent stored entry so a restart does not duplicate the current track.
//
// [Recorder.Run] is the optional polling loop behind `spotctl serve --record`. It asks a
// [services.PlayerProvider] for a fresh player each tick, paced by a [rate.Limiter].
//
// # Progress Reporting
//
// The loop reports each poll as a [ProgressUpdate] on a channel; sends use select with
// default so a slow or absent consumer never stalls polling.
package tasks
