// Package models defines domain entities and persistence interfaces for spotctl.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs relayed to the browser and CLI
//   - [Playback] : current track, position, volume, shuffle and repeat state
//   - [Device] : a Spotify Connect playback target
//
// 2. Persistent Entities: database-backed models
//   - [Play] : a playback history entry
//
// Persistent entities implement the [Model] interface; [Repository] defines CRUD access to them.
package models
