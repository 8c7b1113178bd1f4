package persistence_test

import (
	"errors"
	"testing"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	apperrors "soundwave/internal/errors"
	"soundwave/internal/infrastructure/persistence"
)

func newTestRepo(t *testing.T) *persistence.PlaylistRepository {
	t.Helper()
	repo, err := persistence.NewPlaylistRepository(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	return repo
}

func samplePlaylist(userID, name string) *entities.Playlist {
	playlist := entities.NewPlaylist(userID, name)
	playlist.AddTrack(entities.NewTrack("https://example.com/1", valueobjects.SourceYouTube,
		&valueobjects.TrackMetadata{Title: "First Song"}, "tester"))
	playlist.AddTrack(entities.NewTrack("https://example.com/2", valueobjects.SourceSoundCloud,
		&valueobjects.TrackMetadata{Title: "Second Song"}, "tester"))
	return playlist
}

func TestRepositorySaveAndLoad(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Save(samplePlaylist("user1", "favorites")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := repo.Load("user1", "favorites")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Name != "favorites" || loaded.UserID != "user1" {
		t.Error("Loaded playlist should keep its identity")
	}
	if loaded.TotalTracks() != 2 {
		t.Errorf("Expected 2 tracks, got %d", loaded.TotalTracks())
	}
	if loaded.Tracks[0].Title != "First Song" {
		t.Error("Track order should survive the round trip")
	}
	if loaded.Tracks[1].Source != valueobjects.SourceSoundCloud {
		t.Error("Track source should survive the round trip")
	}
}

func TestRepositoryLoadMissing(t *testing.T) {
	repo := newTestRepo(t)

	if _, err := repo.Load("user1", "nope"); !errors.Is(err, apperrors.ErrPlaylistNotFound) {
		t.Errorf("Missing playlist should return ErrPlaylistNotFound, got %v", err)
	}
}

func TestRepositorySaveOverwrites(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.Save(samplePlaylist("user1", "mix")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	replacement := entities.NewPlaylist("user1", "mix")
	replacement.AddTrack(entities.NewTrack("https://example.com/new", valueobjects.SourceYouTube, nil, "tester"))
	if err := repo.Save(replacement); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}

	loaded, err := repo.Load("user1", "mix")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.TotalTracks() != 1 {
		t.Errorf("Overwrite should replace the contents, got %d tracks", loaded.TotalTracks())
	}
}

func TestRepositoryDelete(t *testing.T) {
	repo := newTestRepo(t)

	repo.Save(samplePlaylist("user1", "doomed"))
	if err := repo.Delete("user1", "doomed"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if repo.Exists("user1", "doomed") {
		t.Error("Deleted playlist should not exist")
	}
	if err := repo.Delete("user1", "doomed"); !errors.Is(err, apperrors.ErrPlaylistNotFound) {
		t.Errorf("Deleting twice should return ErrPlaylistNotFound, got %v", err)
	}
}

func TestRepositoryListPerUser(t *testing.T) {
	repo := newTestRepo(t)

	repo.Save(samplePlaylist("user1", "rock"))
	repo.Save(samplePlaylist("user1", "jazz"))
	repo.Save(samplePlaylist("user2", "pop"))

	names, err := repo.List("user1")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 {
		t.Errorf("user1 should have 2 playlists, got %d", len(names))
	}

	empty, err := repo.List("user-with-nothing")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(empty) != 0 {
		t.Error("A user with no playlists should get an empty list")
	}
}

func TestRepositorySanitizesNames(t *testing.T) {
	repo := newTestRepo(t)

	playlist := samplePlaylist("user1", "../escape attempt")
	if err := repo.Save(playlist); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The playlist is reachable under its original name
	if _, err := repo.Load("user1", "../escape attempt"); err != nil {
		t.Errorf("Sanitized name should round trip, got %v", err)
	}
}
