// Package ui implements the `spotctl tui` now-playing screen using bubbletea's Elm architecture.
//
// The [Model] has two views:
//  1. [NowPlayingView] : current track, progress bar, volume, shuffle and repeat
//  2. [DevicesView] : pick a Spotify Connect device to transfer playback to
//
// The player state is refetched on a one second tick and after every command. Results arrive
// as the Msg union type; commands run inside [tea.Cmd] functions so the vendor round trip never
// blocks rendering.
//
// Keys: space play/pause, n/p next/previous, ←/→ seek ±10s, +/- volume ±5, s shuffle,
// r repeat (off → context → track), d devices, ? help, q quit.
package ui
