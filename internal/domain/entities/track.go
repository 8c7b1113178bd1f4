package entities

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"soundwave/internal/domain/valueobjects"
)

// TrackSummary is the minimal description other components (the arbiter's
// guild state, conflict embeds) carry around instead of the full track.
type TrackSummary struct {
	Title     string `json:"title"`
	Uploader  string `json:"uploader"`
	SourceURL string `json:"source_url"`
}

// Track is a normalized description of one playable item. It is created by
// the resolver when a search or URL resolves, lives inside exactly one queue
// and is dropped once it leaves the history window.
type Track struct {
	// Identity
	ID        string              `json:"id"`
	SourceURL string              `json:"source_url"` // canonical webpage URL
	Source    valueobjects.Source `json:"source"`

	Metadata *valueobjects.TrackMetadata `json:"metadata"`

	// Playback handle; refreshed when the backend URL expires
	StreamURL  string    `json:"stream_url,omitempty"`
	ResolvedAt time.Time `json:"resolved_at,omitempty"`

	// Requester info
	AddedBy string    `json:"added_by,omitempty"`
	AddedAt time.Time `json:"added_at"`

	playCount int
	mu        sync.RWMutex
}

// NewTrack creates a track from resolved metadata
func NewTrack(sourceURL string, source valueobjects.Source, metadata *valueobjects.TrackMetadata, addedBy string) *Track {
	return &Track{
		ID:        uuid.New().String(),
		SourceURL: sourceURL,
		Source:    source,
		Metadata:  metadata,
		AddedBy:   addedBy,
		AddedAt:   time.Now(),
	}
}

// DisplayName returns the best display name for the track
func (t *Track) DisplayName() string {
	if t.Metadata != nil && t.Metadata.Title != "" {
		return t.Metadata.Title
	}
	return t.SourceURL
}

// Uploader returns the uploader name, empty when unknown
func (t *Track) Uploader() string {
	if t.Metadata == nil {
		return ""
	}
	return t.Metadata.Uploader
}

// DurationFormatted returns the formatted duration
func (t *Track) DurationFormatted() string {
	if t.Metadata == nil {
		return "00:00"
	}
	return t.Metadata.DurationFormatted()
}

// SetStreamHandle records the resolved stream URL
func (t *Track) SetStreamHandle(streamURL string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.StreamURL = streamURL
	t.ResolvedAt = time.Now()
}

// GetStreamURL safely returns the stream URL
func (t *Track) GetStreamURL() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.StreamURL
}

// IsStreamExpired checks if the stream URL is older than threshold
func (t *Track) IsStreamExpired(threshold time.Duration) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ResolvedAt.IsZero() {
		return false
	}
	return time.Since(t.ResolvedAt) > threshold
}

// MarkPlayed increments the play counter; called when playback starts
func (t *Track) MarkPlayed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playCount++
}

// PlayCount returns how many times the track started playing
func (t *Track) PlayCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.playCount
}

// Summary returns the compact view shared with the arbiter
func (t *Track) Summary() *TrackSummary {
	summary := &TrackSummary{SourceURL: t.SourceURL}
	if t.Metadata != nil {
		summary.Title = t.Metadata.Title
		summary.Uploader = t.Metadata.Uploader
	} else {
		summary.Title = t.SourceURL
	}
	return summary
}
