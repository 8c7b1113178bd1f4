package repositories

import (
	"context"
	"fmt"
	"time"

	"soundwave/internal/database"
	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	apperrors "soundwave/internal/errors"
)

// DatabasePlaylistRepository implements PlaylistRepository using PostgreSQL
type DatabasePlaylistRepository struct {
	db *database.DB
}

// NewDatabasePlaylistRepository creates a new database-backed playlist repository
func NewDatabasePlaylistRepository(db *database.DB) *DatabasePlaylistRepository {
	return &DatabasePlaylistRepository{
		db: db,
	}
}

// List returns all playlist names for a user
func (r *DatabasePlaylistRepository) List(userID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	names, err := r.db.Queries.ListPlaylists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return names, nil
}

// Load loads a user's playlist by name
func (r *DatabasePlaylistRepository) Load(userID, name string) (*entities.Playlist, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row, err := r.db.Queries.GetPlaylist(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist: %w", err)
	}
	if row == nil {
		return nil, apperrors.ErrPlaylistNotFound
	}

	trackRows, err := r.db.Queries.GetPlaylistTracks(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist tracks: %w", err)
	}

	playlist := &entities.Playlist{
		Name:      row.Name,
		UserID:    row.UserID,
		Tracks:    make([]*entities.PlaylistTrack, 0, len(trackRows)),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	for _, track := range trackRows {
		playlist.Tracks = append(playlist.Tracks, &entities.PlaylistTrack{
			Title:           track.Title,
			SourceURL:       track.SourceURL,
			Source:          valueobjects.Source(track.Source),
			DurationSeconds: track.DurationSeconds,
			AddedAt:         track.AddedAt,
		})
	}

	return playlist, nil
}

// Save writes the playlist and its full track list, overwriting any
// existing playlist with the same name
func (r *DatabasePlaylistRepository) Save(playlist *entities.Playlist) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.db.Queries.UpsertPlaylist(ctx, playlist.UserID, playlist.Name); err != nil {
		return err
	}

	rows := make([]database.PlaylistTrackRow, 0, len(playlist.Tracks))
	for i, track := range playlist.Tracks {
		rows = append(rows, database.PlaylistTrackRow{
			Title:           track.Title,
			SourceURL:       track.SourceURL,
			Source:          string(track.Source),
			DurationSeconds: track.DurationSeconds,
			Position:        i,
			AddedAt:         track.AddedAt,
		})
	}

	return r.db.Queries.ReplacePlaylistTracks(ctx, playlist.UserID, playlist.Name, rows)
}

// Delete removes a user's playlist
func (r *DatabasePlaylistRepository) Delete(userID, name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	deleted, err := r.db.Queries.DeletePlaylist(ctx, userID, name)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.ErrPlaylistNotFound
	}
	return nil
}

// Exists checks whether a user has a playlist by that name
func (r *DatabasePlaylistRepository) Exists(userID, name string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	row, err := r.db.Queries.GetPlaylist(ctx, userID, name)
	return err == nil && row != nil
}
