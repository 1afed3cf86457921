package models

import (
	"encoding/json"
	"fmt"
	"time"
)

var _ Model = (*Play)(nil)

// Play is one entry in the playback history: a track observed as current on a device.
type Play struct {
	id         string
	sequence   int
	trackURI   string
	trackName  string
	artistName string
	albumName  string
	durationMS int
	deviceName string
	playedAt   time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewPlay builds a history entry from the current [Playback] observed at playedAt.
func NewPlay(p Playback, playedAt time.Time) *Play {
	now := time.Now().UTC()
	return &Play{
		trackURI:   p.TrackURI,
		trackName:  p.TrackName,
		artistName: p.ArtistName,
		albumName:  p.AlbumName,
		durationMS: p.DurationMS,
		deviceName: p.DeviceName,
		playedAt:   playedAt.UTC(),
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestorePlay rebuilds a persisted entry; used by repositories when scanning rows.
func RestorePlay(id string, sequence int, p Playback, playedAt, createdAt, updatedAt time.Time) *Play {
	play := NewPlay(p, playedAt)
	play.id = id
	play.sequence = sequence
	play.createdAt = createdAt
	play.updatedAt = updatedAt
	return play
}

func (p *Play) ID() string           { return p.id }
func (p *Play) Sequence() int        { return p.sequence }
func (p *Play) TrackURI() string     { return p.trackURI }
func (p *Play) TrackName() string    { return p.trackName }
func (p *Play) ArtistName() string   { return p.artistName }
func (p *Play) AlbumName() string    { return p.albumName }
func (p *Play) DurationMS() int      { return p.durationMS }
func (p *Play) DeviceName() string   { return p.deviceName }
func (p *Play) PlayedAt() time.Time  { return p.playedAt }
func (p *Play) CreatedAt() time.Time { return p.createdAt }
func (p *Play) UpdatedAt() time.Time { return p.updatedAt }

func (p *Play) SetID(id string)           { p.id = id }
func (p *Play) SetSequence(seq int)       { p.sequence = seq }
func (p *Play) SetUpdatedAt(t time.Time)  { p.updatedAt = t }
func (p *Play) SetDeviceName(name string) { p.deviceName = name }

// Validate requires a track URI and name.
func (p *Play) Validate() error {
	if p.trackURI == "" {
		return fmt.Errorf("play requires a track URI")
	}
	if p.trackName == "" {
		return fmt.Errorf("play requires a track name")
	}
	if p.playedAt.IsZero() {
		return fmt.Errorf("play requires a timestamp")
	}
	return nil
}

// MarshalJSON exposes the private fields for the history API.
func (p *Play) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string    `json:"id"`
		TrackURI   string    `json:"track_uri"`
		TrackName  string    `json:"track_name"`
		ArtistName string    `json:"artist_name"`
		AlbumName  string    `json:"album_name"`
		DurationMS int       `json:"duration_ms"`
		DeviceName string    `json:"device_name"`
		PlayedAt   time.Time `json:"played_at"`
	}{p.id, p.trackURI, p.trackName, p.artistName, p.albumName, p.durationMS, p.deviceName, p.playedAt})
}
