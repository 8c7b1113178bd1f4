package repositories

import "soundwave/internal/domain/entities"

// PlaylistRepository defines the contract for playlist storage. Playlists
// are keyed by (userID, name); saving an existing name overwrites it.
type PlaylistRepository interface {
	// List returns all playlist names for a user
	List(userID string) ([]string, error)

	// Load loads a playlist by name; nil when it does not exist
	Load(userID, name string) (*entities.Playlist, error)

	// Save stores a playlist, overwriting any previous version
	Save(playlist *entities.Playlist) error

	// Delete removes a playlist by name
	Delete(userID, name string) error

	// Exists checks if a playlist exists
	Exists(userID, name string) bool
}
