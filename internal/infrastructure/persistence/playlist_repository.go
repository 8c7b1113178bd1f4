package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"soundwave/internal/domain/entities"
	apperrors "soundwave/internal/errors"
)

// PlaylistRepository persists playlists as JSON files, one directory per
// user so names only have to be unique per owner
type PlaylistRepository struct {
	basePath string
	mu       sync.RWMutex
}

// NewPlaylistRepository creates a new playlist repository
func NewPlaylistRepository(basePath string) (*PlaylistRepository, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create playlist directory: %w", err)
	}

	return &PlaylistRepository{
		basePath: basePath,
	}, nil
}

// Save writes a playlist with an atomic temp-file rename. Saving over an
// existing name overwrites it.
func (r *PlaylistRepository) Save(playlist *entities.Playlist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	userDir := r.userDir(playlist.UserID)
	if err := os.MkdirAll(userDir, 0755); err != nil {
		return fmt.Errorf("failed to create user directory: %w", err)
	}

	filePath := r.filePath(playlist.UserID, playlist.Name)

	tempPath := filePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(playlist); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode playlist: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Rename for atomicity
	if err := os.Rename(tempPath, filePath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// Load reads a user's playlist by name
func (r *PlaylistRepository) Load(userID, name string) (*entities.Playlist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := os.Open(r.filePath(userID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.ErrPlaylistNotFound
		}
		return nil, fmt.Errorf("failed to open playlist file: %w", err)
	}
	defer file.Close()

	var playlist entities.Playlist
	if err := json.NewDecoder(file).Decode(&playlist); err != nil {
		return nil, fmt.Errorf("failed to decode playlist: %w", err)
	}

	return &playlist, nil
}

// Delete removes a user's playlist
func (r *PlaylistRepository) Delete(userID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	filePath := r.filePath(userID, name)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return apperrors.ErrPlaylistNotFound
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	return nil
}

// Exists checks whether a user has a playlist by that name
func (r *PlaylistRepository) Exists(userID, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, err := os.Stat(r.filePath(userID, name))
	return err == nil
}

// List returns the names of a user's playlists
func (r *PlaylistRepository) List(userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files, err := os.ReadDir(r.userDir(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read playlist directory: %w", err)
	}

	names := make([]string, 0)
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		name := file.Name()
		if strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".tmp") {
			names = append(names, strings.TrimSuffix(name, ".json"))
		}
	}

	return names, nil
}

func (r *PlaylistRepository) userDir(userID string) string {
	return filepath.Join(r.basePath, sanitizeFilename(userID))
}

func (r *PlaylistRepository) filePath(userID, name string) string {
	return filepath.Join(r.userDir(userID), sanitizeFilename(name)+".json")
}

// sanitizeFilename replaces unsafe characters with underscores
func sanitizeFilename(name string) string {
	var builder strings.Builder
	for _, char := range name {
		if (char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_' {
			builder.WriteRune(char)
		} else {
			builder.WriteRune('_')
		}
	}
	return builder.String()
}
