package audio

import (
	"testing"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
)

func TestPlaybackInputSelection(t *testing.T) {
	track := entities.NewTrack("https://youtube.com/watch?v=abc", valueobjects.SourceYouTube, nil, "tester")

	url, direct := playbackInput(track, streamFreshness)
	if direct || url != track.SourceURL {
		t.Errorf("No handle must re-extract from the page URL, got %q direct=%v", url, direct)
	}

	track.SetStreamHandle("https://cdn.example.com/audio.webm")
	url, direct = playbackInput(track, streamFreshness)
	if !direct || url != "https://cdn.example.com/audio.webm" {
		t.Errorf("A fresh handle should stream directly, got %q direct=%v", url, direct)
	}

	// Zero freshness treats every handle as stale
	url, direct = playbackInput(track, 0)
	if direct || url != track.SourceURL {
		t.Errorf("A stale handle must fall back to the page URL, got %q direct=%v", url, direct)
	}
}
