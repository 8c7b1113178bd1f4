package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"soundwave/internal/domain/valueobjects"
	"soundwave/internal/errors"
)

var (
	// URL patterns
	youtubePattern    = regexp.MustCompile(`^(https?://)?(www\.|m\.|music\.)?(youtube\.com|youtu\.be)/.+$`)
	soundcloudPattern = regexp.MustCompile(`^(https?://)?(www\.|m\.)?soundcloud\.com/.+$`)
)

// ValidateURL validates if a string is a valid URL
func ValidateURL(input string) error {
	if input == "" {
		return fmt.Errorf("%w: URL cannot be empty", errors.ErrInvalidURL)
	}

	_, err := url.ParseRequestURI(input)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidURL, err)
	}

	return nil
}

// IsURL reports whether the input looks like any http(s) URL
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// IsYouTubeURL checks if URL is a YouTube URL
func IsYouTubeURL(input string) bool {
	return youtubePattern.MatchString(input)
}

// IsSoundCloudURL checks if URL is a SoundCloud URL
func IsSoundCloudURL(input string) bool {
	return soundcloudPattern.MatchString(input)
}

// IsSupportedURL checks if URL is from a supported platform
func IsSupportedURL(input string) bool {
	return IsYouTubeURL(input) || IsSoundCloudURL(input)
}

// DetectSource guesses the concrete source of a URL, defaulting to YouTube
// for search terms and unrecognized links.
func DetectSource(input string) valueobjects.Source {
	if IsSoundCloudURL(input) {
		return valueobjects.SourceSoundCloud
	}
	return valueobjects.SourceYouTube
}

// ValidateVolume validates the volume percent (0-200)
func ValidateVolume(volume int) error {
	if volume < 0 || volume > 200 {
		return errors.ErrInvalidVolume
	}
	return nil
}

// ValidateQueuePosition validates a 1-indexed queue position
func ValidateQueuePosition(position, size int) error {
	if position < 1 || position > size {
		return fmt.Errorf("%w: must be between 1 and %d", errors.ErrInvalidPosition, size)
	}
	return nil
}

// SanitizeInput sanitizes user input by removing potentially dangerous characters
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}

// ValidatePlaylistName validates playlist name
func ValidatePlaylistName(name string) error {
	name = SanitizeInput(name)

	if name == "" {
		return fmt.Errorf("%w: playlist name cannot be empty", errors.ErrInvalidInput)
	}

	if len(name) > 100 {
		return fmt.Errorf("%w: playlist name too long (max 100 characters)", errors.ErrInvalidInput)
	}

	// Only allow alphanumeric, spaces, hyphens, underscores
	validName := regexp.MustCompile(`^[a-zA-Z0-9\s\-_]+$`)
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: playlist name contains invalid characters", errors.ErrInvalidInput)
	}

	return nil
}

// TruncateString safely truncates a string to max length
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	if maxLen > 3 {
		s = s[:maxLen-3]
		if idx := strings.LastIndexAny(s, " \t\n"); idx > 0 {
			s = s[:idx]
		}
		return s + "..."
	}

	return s[:maxLen]
}
