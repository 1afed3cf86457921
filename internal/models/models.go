// package models defines the data model for the playback controller
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// Repeat modes accepted by the vendor.
const (
	RepeatOff     = "off"
	RepeatContext = "context"
	RepeatTrack   = "track"
)

// NextRepeat cycles off → context → track → off.
func NextRepeat(state string) string {
	switch state {
	case RepeatOff:
		return RepeatContext
	case RepeatContext:
		return RepeatTrack
	default:
		return RepeatOff
	}
}

// Playback is the player state relayed to the UI, sourced verbatim from the vendor.
type Playback struct {
	IsPlaying  bool    `json:"is_playing"`
	TrackName  string  `json:"track_name"`
	ArtistName string  `json:"artist_name"`
	AlbumName  string  `json:"album_name"`
	AlbumArt   *string `json:"album_art"`
	DurationMS int     `json:"duration_ms"`
	ProgressMS int     `json:"progress_ms"`
	Volume     int     `json:"volume"`
	Shuffle    bool    `json:"shuffle"`
	Repeat     string  `json:"repeat"`
	DeviceName string  `json:"device_name"`
	TrackURI   string  `json:"track_uri"`
}

// Device is a Spotify Connect target.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Active     bool   `json:"is_active"`
	Restricted bool   `json:"is_restricted"`
	Volume     int    `json:"volume"`
}
