package errors

import (
	"errors"
	"fmt"
)

// Common error types for better error handling
var (
	// Playback errors
	ErrNotPlaying        = errors.New("nothing is currently playing")
	ErrAlreadyPlaying    = errors.New("already playing")
	ErrPlayerNotFound    = errors.New("audio player not found")
	ErrNoVoiceConnection = errors.New("not connected to voice channel")
	ErrVoiceDisconnected = errors.New("voice connection lost")

	// Queue errors
	ErrQueueEmpty      = errors.New("queue is empty")
	ErrInvalidPosition = errors.New("invalid queue position")

	// Playlist errors
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrTrackNotFound    = errors.New("track not found")

	// Control errors
	ErrSourceConflict  = errors.New("another source controls playback")
	ErrAutoDJDisabled  = errors.New("auto dj disabled after repeated failures")
	ErrAutoDJExhausted = errors.New("auto dj found no fresh track this round")

	// Permission errors
	ErrNotInVoiceChannel = errors.New("you must be in a voice channel")
	ErrDifferentChannel  = errors.New("you must be in the same voice channel as the bot")

	// Validation errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrInvalidVolume = errors.New("volume must be between 0 and 200")
)

// UserError wraps an error with a user-friendly message
type UserError struct {
	Err     error
	Message string
}

func (e *UserError) Error() string {
	return e.Err.Error()
}

func (e *UserError) Unwrap() error {
	return e.Err
}

func (e *UserError) UserMessage() string {
	return e.Message
}

// NewUserError creates a new user error
func NewUserError(err error, message string) *UserError {
	return &UserError{
		Err:     err,
		Message: message,
	}
}

// WrapUserError wraps an error with a user-friendly message
func WrapUserError(err error, format string, args ...interface{}) *UserError {
	return &UserError{
		Err:     err,
		Message: fmt.Sprintf(format, args...),
	}
}

// GetUserMessage extracts user-friendly message from error
func GetUserMessage(err error) string {
	var userErr *UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage()
	}

	// Map common errors to user-friendly messages
	switch {
	case errors.Is(err, ErrNotPlaying):
		return "❌ Nothing is playing right now"
	case errors.Is(err, ErrAlreadyPlaying):
		return "⚠️ Already playing. Use `/pause` to pause or `/skip` to skip"
	case errors.Is(err, ErrQueueEmpty):
		return "📋 Queue is empty. Use `/play` to add tracks"
	case errors.Is(err, ErrNotInVoiceChannel):
		return "🔊 You need to join a voice channel first"
	case errors.Is(err, ErrDifferentChannel):
		return "⚠️ You must be in the same voice channel as the bot"
	case errors.Is(err, ErrPlaylistNotFound):
		return "📋 Playlist not found"
	case errors.Is(err, ErrSourceConflict):
		return "🎵 Another music source is playing. Resolve the conflict first"
	case errors.Is(err, ErrVoiceDisconnected):
		return "🔌 Lost the voice connection. Use `/join` to reconnect"
	case errors.Is(err, ErrInvalidURL):
		return "🔗 Invalid URL. Please provide a valid YouTube or SoundCloud link"
	case errors.Is(err, ErrInvalidVolume):
		return "🔊 Volume must be between 0 and 200"
	default:
		return "❌ An error occurred. Please try again later"
	}
}
