package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spotctl/internal/models"
	"github.com/desertthunder/spotctl/internal/shared"
)

var _ models.Repository[*models.Play] = (*PlayRepository)(nil)

const playColumns = `id, sequence, track_uri, track_name, artist_name, album_name, duration_ms, device_name, played_at, created_at, updated_at`

// PlayRepository implements [models.Repository] for [models.Play] persistence.
type PlayRepository struct {
	db *sql.DB
}

// NewPlayRepository creates a new [PlayRepository] with the given database connection
func NewPlayRepository(db *sql.DB) *PlayRepository {
	return &PlayRepository{db: db}
}

// Create inserts a new play with generated ID and sequence
func (r *PlayRepository) Create(play *models.Play) error {
	if err := play.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "plays")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	play.SetID(id)
	play.SetSequence(sequence)

	query := `INSERT INTO plays (` + playColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.Exec(query,
		id, sequence, play.TrackURI(), play.TrackName(), play.ArtistName(), play.AlbumName(),
		play.DurationMS(), play.DeviceName(), play.PlayedAt(), play.CreatedAt(), play.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert play: %w", err)
	}
	return nil
}

// Get retrieves a play by ID
func (r *PlayRepository) Get(id string) (*models.Play, error) {
	row := r.db.QueryRow(`SELECT `+playColumns+` FROM plays WHERE id = ?`, id)

	play, err := scanPlay(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("play not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query play: %w", err)
	}
	return play, nil
}

// Update rewrites the device name of an existing play; the track fields are immutable history.
func (r *PlayRepository) Update(play *models.Play) error {
	if err := play.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now().UTC()
	play.SetUpdatedAt(now)

	result, err := r.db.Exec(`UPDATE plays SET device_name = ?, updated_at = ? WHERE id = ?`, play.DeviceName(), now, play.ID())
	if err != nil {
		return fmt.Errorf("failed to update play: %w", err)
	}
	return rowsAffected(result, "play", play.ID())
}

// Delete removes a play by ID
func (r *PlayRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM plays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete play: %w", err)
	}
	return rowsAffected(result, "play", id)
}

// List retrieves plays newest first.
//
// Supported criteria: "limit" (int), "track_uri" (string), "since" (time.Time).
func (r *PlayRepository) List(criteria map[string]any) ([]*models.Play, error) {
	query := `SELECT ` + playColumns + ` FROM plays WHERE 1 = 1`
	args := []any{}

	if uri, ok := criteria["track_uri"].(string); ok && uri != "" {
		query += " AND track_uri = ?"
		args = append(args, uri)
	}
	if since, ok := timeCriteria(criteria, "since"); ok {
		query += " AND played_at >= ?"
		args = append(args, since.UTC())
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer rows.Close()

	plays := []*models.Play{}
	for rows.Next() {
		play, err := scanPlay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}
		plays = append(plays, play)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return plays, nil
}

// Latest returns the most recently recorded play, or nil when the history is empty.
func (r *PlayRepository) Latest() (*models.Play, error) {
	plays, err := r.List(map[string]any{"limit": 1})
	if err != nil {
		return nil, err
	}
	if len(plays) == 0 {
		return nil, nil
	}
	return plays[0], nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlay(s scanner) (*models.Play, error) {
	var (
		id                   string
		sequence, durationMS int
		p                    models.Playback
		playedAt             time.Time
		createdAt            time.Time
		updatedAt            time.Time
	)

	if err := s.Scan(&id, &sequence, &p.TrackURI, &p.TrackName, &p.ArtistName, &p.AlbumName,
		&durationMS, &p.DeviceName, &playedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.DurationMS = durationMS

	return models.RestorePlay(id, sequence, p, playedAt, createdAt, updatedAt), nil
}
