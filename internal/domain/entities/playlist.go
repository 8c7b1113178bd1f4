package entities

import (
	"time"

	"soundwave/internal/domain/valueobjects"
)

// PlaylistTrack is a snapshot of one track inside a saved playlist. It is
// decoupled from any live queue; loading re-resolves through the resolver.
type PlaylistTrack struct {
	Title           string              `json:"title"`
	SourceURL       string              `json:"source_url"`
	Source          valueobjects.Source `json:"source"`
	DurationSeconds int                 `json:"duration_seconds,omitempty"`
	AddedAt         time.Time           `json:"added_at"`
}

// Playlist is a named, user-scoped collection of track snapshots. Names are
// unique per user; saving under an existing name overwrites it.
type Playlist struct {
	Name      string           `json:"name"`
	UserID    string           `json:"user_id"`
	Tracks    []*PlaylistTrack `json:"tracks"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// NewPlaylist creates an empty playlist for a user
func NewPlaylist(userID, name string) *Playlist {
	now := time.Now()
	return &Playlist{
		Name:      name,
		UserID:    userID,
		Tracks:    make([]*PlaylistTrack, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SnapshotFromTracks builds a playlist from live queue tracks
func SnapshotFromTracks(userID, name string, tracks []*Track) *Playlist {
	playlist := NewPlaylist(userID, name)
	for _, track := range tracks {
		playlist.AddTrack(track)
	}
	return playlist
}

// AddTrack appends a snapshot of a live track
func (p *Playlist) AddTrack(track *Track) {
	entry := &PlaylistTrack{
		Title:     track.DisplayName(),
		SourceURL: track.SourceURL,
		Source:    track.Source,
		AddedAt:   time.Now(),
	}
	if track.Metadata != nil {
		entry.DurationSeconds = track.Metadata.DurationSeconds
	}
	p.Tracks = append(p.Tracks, entry)
	p.UpdatedAt = time.Now()
}

// RemoveTrack removes the first entry matching the canonical URL
func (p *Playlist) RemoveTrack(sourceURL string) bool {
	for i, entry := range p.Tracks {
		if entry.SourceURL == sourceURL {
			p.Tracks = append(p.Tracks[:i], p.Tracks[i+1:]...)
			p.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// HasTrack checks whether a canonical URL is already present
func (p *Playlist) HasTrack(sourceURL string) bool {
	for _, entry := range p.Tracks {
		if entry.SourceURL == sourceURL {
			return true
		}
	}
	return false
}

// TotalTracks returns the number of snapshots in the playlist
func (p *Playlist) TotalTracks() int {
	return len(p.Tracks)
}
