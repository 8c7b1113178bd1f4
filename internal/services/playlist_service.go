package services

import (
	"fmt"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/repositories"
	apperrors "soundwave/internal/errors"
	"soundwave/internal/validation"
	"soundwave/pkg/logger"
)

// PlaylistService manages user-scoped saved playlists. Playlists store
// track snapshots, so loading one re-resolves every entry through the
// resolver before it can play.
type PlaylistService struct {
	repo   repositories.PlaylistRepository
	picker TrackPicker
	logger *logger.Logger
}

// NewPlaylistService creates a playlist service
func NewPlaylistService(repo repositories.PlaylistRepository, picker TrackPicker, log *logger.Logger) *PlaylistService {
	return &PlaylistService{
		repo:   repo,
		picker: picker,
		logger: log,
	}
}

// SaveQueue snapshots a queue (current track plus pending) as a playlist.
// Saving under an existing name overwrites it.
func (s *PlaylistService) SaveQueue(userID, name string, queue *entities.Queue) (*entities.Playlist, error) {
	if err := validation.ValidatePlaylistName(name); err != nil {
		return nil, err
	}

	tracks := make([]*entities.Track, 0, queue.Size()+1)
	if current := queue.Current(); current != nil {
		tracks = append(tracks, current)
	}
	tracks = append(tracks, queue.Pending()...)

	if len(tracks) == 0 {
		return nil, apperrors.ErrQueueEmpty
	}

	playlist := entities.SnapshotFromTracks(userID, name, tracks)
	if err := s.repo.Save(playlist); err != nil {
		return nil, fmt.Errorf("failed to save playlist: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user":     userID,
		"playlist": name,
		"tracks":   playlist.TotalTracks(),
	}).Info("💾 Playlist saved")

	return playlist, nil
}

// AddTrack appends a track snapshot to a playlist, creating the playlist
// if it does not exist yet. Duplicate URLs are rejected.
func (s *PlaylistService) AddTrack(userID, name string, track *entities.Track) error {
	if err := validation.ValidatePlaylistName(name); err != nil {
		return err
	}

	playlist, err := s.repo.Load(userID, name)
	if err != nil {
		if err != apperrors.ErrPlaylistNotFound {
			return err
		}
		playlist = entities.NewPlaylist(userID, name)
	}

	if playlist.HasTrack(track.SourceURL) {
		return apperrors.NewUserError(apperrors.ErrInvalidInput,
			fmt.Sprintf("⚠️ **%s** is already in `%s`", track.DisplayName(), name))
	}

	playlist.AddTrack(track)
	return s.repo.Save(playlist)
}

// RemoveTrack removes a snapshot by canonical URL
func (s *PlaylistService) RemoveTrack(userID, name, sourceURL string) error {
	playlist, err := s.repo.Load(userID, name)
	if err != nil {
		return err
	}

	if !playlist.RemoveTrack(sourceURL) {
		return apperrors.ErrTrackNotFound
	}

	return s.repo.Save(playlist)
}

// Load returns a user's playlist by name
func (s *PlaylistService) Load(userID, name string) (*entities.Playlist, error) {
	return s.repo.Load(userID, name)
}

// LoadIntoQueue resolves every snapshot in the playlist and enqueues the
// live tracks. Entries that fail to resolve are skipped and counted.
func (s *PlaylistService) LoadIntoQueue(userID, name string, queue *entities.Queue, addedBy string) (added, failed int, err error) {
	playlist, err := s.repo.Load(userID, name)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range playlist.Tracks {
		track, err := s.picker.Resolve(entry.SourceURL, entry.Source, addedBy)
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"playlist": name,
				"url":      entry.SourceURL,
			}).Warn("Skipping unresolvable playlist entry")
			failed++
			continue
		}
		queue.Enqueue(track)
		added++
	}

	s.logger.WithFields(map[string]interface{}{
		"user":     userID,
		"playlist": name,
		"added":    added,
		"failed":   failed,
	}).Info("📥 Playlist loaded into queue")

	return added, failed, nil
}

// List returns the names of a user's playlists
func (s *PlaylistService) List(userID string) ([]string, error) {
	return s.repo.List(userID)
}

// Delete removes a user's playlist
func (s *PlaylistService) Delete(userID, name string) error {
	if err := s.repo.Delete(userID, name); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"user":     userID,
		"playlist": name,
	}).Info("🗑️ Playlist deleted")
	return nil
}

// Exists checks whether a user has a playlist by that name
func (s *PlaylistService) Exists(userID, name string) bool {
	return s.repo.Exists(userID, name)
}
