package valueobjects

import "fmt"

// TrackMetadata contains the normalized metadata for a resolved track
type TrackMetadata struct {
	Title           string `json:"title"`
	Uploader        string `json:"uploader,omitempty"`
	DurationSeconds int    `json:"duration_seconds"` // 0 when unknown
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

// DisplayName returns the best display name for the track
func (m *TrackMetadata) DisplayName() string {
	if m.Uploader != "" {
		return fmt.Sprintf("%s - %s", m.Uploader, m.Title)
	}
	return m.Title
}

// DurationFormatted returns duration in MM:SS (or H:MM:SS) format
func (m *TrackMetadata) DurationFormatted() string {
	if m.DurationSeconds <= 0 {
		return "00:00"
	}

	hours := m.DurationSeconds / 3600
	minutes := (m.DurationSeconds % 3600) / 60
	seconds := m.DurationSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
