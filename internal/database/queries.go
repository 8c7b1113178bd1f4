package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries provides typed access to the playlist tables
type Queries struct {
	pool *pgxpool.Pool
}

// New creates a Queries instance backed by the pool
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// PlaylistRow mirrors the playlists table
type PlaylistRow struct {
	UserID    string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlaylistTrackRow mirrors the playlist_tracks table
type PlaylistTrackRow struct {
	Title           string
	SourceURL       string
	Source          string
	DurationSeconds int
	Position        int
	AddedAt         time.Time
}

// UpsertPlaylist creates the playlist row or bumps its updated_at
func (q *Queries) UpsertPlaylist(ctx context.Context, userID, name string) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO playlists (user_id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id, name)
		DO UPDATE SET updated_at = NOW()`,
		userID, name)
	if err != nil {
		return fmt.Errorf("failed to upsert playlist: %w", err)
	}
	return nil
}

// GetPlaylist fetches a playlist row
func (q *Queries) GetPlaylist(ctx context.Context, userID, name string) (*PlaylistRow, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT user_id, name, created_at, updated_at
		FROM playlists
		WHERE user_id = $1 AND name = $2`,
		userID, name)

	var playlist PlaylistRow
	if err := row.Scan(&playlist.UserID, &playlist.Name, &playlist.CreatedAt, &playlist.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return &playlist, nil
}

// ListPlaylists returns a user's playlist names, oldest first
func (q *Queries) ListPlaylists(ctx context.Context, userID string) ([]string, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT name FROM playlists
		WHERE user_id = $1
		ORDER BY created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan playlist name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeletePlaylist removes a playlist and its tracks
func (q *Queries) DeletePlaylist(ctx context.Context, userID, name string) (bool, error) {
	tag, err := q.pool.Exec(ctx, `
		DELETE FROM playlists
		WHERE user_id = $1 AND name = $2`,
		userID, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete playlist: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ReplacePlaylistTracks swaps the playlist's track list in one transaction
func (q *Queries) ReplacePlaylistTracks(ctx context.Context, userID, name string, tracks []PlaylistTrackRow) error {
	tx, err := q.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		DELETE FROM playlist_tracks
		WHERE user_id = $1 AND playlist_name = $2`,
		userID, name); err != nil {
		return fmt.Errorf("failed to clear playlist tracks: %w", err)
	}

	for _, track := range tracks {
		if _, err := tx.Exec(ctx, `
			INSERT INTO playlist_tracks
				(user_id, playlist_name, title, source_url, source, duration_seconds, position, added_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			userID, name, track.Title, track.SourceURL, track.Source,
			track.DurationSeconds, track.Position, track.AddedAt); err != nil {
			return fmt.Errorf("failed to insert playlist track: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetPlaylistTracks returns the playlist's tracks in order
func (q *Queries) GetPlaylistTracks(ctx context.Context, userID, name string) ([]PlaylistTrackRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT title, source_url, source, duration_seconds, position, added_at
		FROM playlist_tracks
		WHERE user_id = $1 AND playlist_name = $2
		ORDER BY position`,
		userID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]PlaylistTrackRow, 0)
	for rows.Next() {
		var track PlaylistTrackRow
		if err := rows.Scan(&track.Title, &track.SourceURL, &track.Source,
			&track.DurationSeconds, &track.Position, &track.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playlist track: %w", err)
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

// RecordPlay bumps the play counter for a track URL
func (q *Queries) RecordPlay(ctx context.Context, guildID, sourceURL, title string) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO play_history (guild_id, source_url, title, play_count, last_played_at)
		VALUES ($1, $2, $3, 1, NOW())
		ON CONFLICT (guild_id, source_url)
		DO UPDATE SET
			play_count = play_history.play_count + 1,
			title = EXCLUDED.title,
			last_played_at = NOW()`,
		guildID, sourceURL, title)
	if err != nil {
		return fmt.Errorf("failed to record play: %w", err)
	}
	return nil
}

// TopPlays returns a guild's most-played tracks
func (q *Queries) TopPlays(ctx context.Context, guildID string, limit int) ([]PlayStatRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT source_url, title, play_count, last_played_at
		FROM play_history
		WHERE guild_id = $1
		ORDER BY play_count DESC, last_played_at DESC
		LIMIT $2`,
		guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top plays: %w", err)
	}
	defer rows.Close()

	stats := make([]PlayStatRow, 0)
	for rows.Next() {
		var stat PlayStatRow
		if err := rows.Scan(&stat.SourceURL, &stat.Title, &stat.PlayCount, &stat.LastPlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan play stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

// PlayStatRow mirrors the play_history table
type PlayStatRow struct {
	SourceURL    string
	Title        string
	PlayCount    int
	LastPlayedAt time.Time
}
