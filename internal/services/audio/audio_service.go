package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/domain/entities"
	"soundwave/pkg/logger"
)

var (
	// ErrGuildNotFound is returned when guild is not found
	ErrGuildNotFound = errors.New("guild not found")
)

// AudioService manages voice connections and audio players for all guilds.
// Queues are not its business; they live in the queue registry so that the
// playback driver owns all queue mutation.
type AudioService struct {
	session *discordgo.Session
	logger  *logger.Logger

	voiceConnections map[string]*VoiceConnection // guildID -> voice connection
	audioPlayers     map[string]*AudioPlayer     // guildID -> audio player

	mu sync.RWMutex
}

// NewAudioService creates a new audio service
func NewAudioService(session *discordgo.Session, log *logger.Logger) *AudioService {
	return &AudioService{
		session:          session,
		logger:           log,
		voiceConnections: make(map[string]*VoiceConnection),
		audioPlayers:     make(map[string]*AudioPlayer),
	}
}

// ConnectToChannel connects to a voice channel
func (s *AudioService) ConnectToChannel(guildID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"guild":   guildID,
		"channel": channelID,
	}).Info("Connecting to voice channel...")

	vc, exists := s.voiceConnections[guildID]
	if !exists {
		vc = NewVoiceConnection(guildID, s.logger)
		s.voiceConnections[guildID] = vc
	}

	if err := vc.Connect(s.session, channelID); err != nil {
		return err
	}

	if _, exists := s.audioPlayers[guildID]; !exists {
		player := NewAudioPlayer(guildID, vc, s.logger)
		s.audioPlayers[guildID] = player
	}

	return nil
}

// DisconnectFromGuild disconnects from a guild's voice channel
func (s *AudioService) DisconnectFromGuild(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.WithField("guild", guildID).Info("Disconnecting from guild...")

	if player, exists := s.audioPlayers[guildID]; exists {
		if player.IsPlaying() {
			if err := player.Stop(); err != nil {
				s.logger.WithError(err).Warn("Failed to stop player")
			}
		}
		player.Cleanup()
		delete(s.audioPlayers, guildID)
	}

	if vc, exists := s.voiceConnections[guildID]; exists {
		if err := vc.Disconnect(); err != nil {
			s.logger.WithError(err).Warn("Failed to disconnect voice")
		}
		delete(s.voiceConnections, guildID)
	}

	return nil
}

// PlayTrack starts playing a track
func (s *AudioService) PlayTrack(guildID string, track *entities.Track, callback PlaybackCallback) error {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}

	return player.Play(track, callback)
}

// StopPlayback stops current playback
func (s *AudioService) StopPlayback(guildID string) error {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}

	return player.Stop()
}

// PausePlayback pauses current playback
func (s *AudioService) PausePlayback(guildID string) error {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}

	return player.Pause()
}

// ResumePlayback resumes playback
func (s *AudioService) ResumePlayback(guildID string) error {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}

	return player.Resume()
}

// IsPlaying returns true if audio is playing in the guild
func (s *AudioService) IsPlaying(guildID string) bool {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return false
	}

	return player.IsPlaying()
}

// IsPaused returns true if playback is paused in the guild
func (s *AudioService) IsPaused(guildID string) bool {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return false
	}

	return player.IsPaused()
}

// IsConnected returns true if connected to voice in the guild
func (s *AudioService) IsConnected(guildID string) bool {
	s.mu.RLock()
	vc, exists := s.voiceConnections[guildID]
	s.mu.RUnlock()

	if !exists {
		return false
	}

	return vc.IsConnected()
}

// GetCurrentTrack returns the currently playing track
func (s *AudioService) GetCurrentTrack(guildID string) *entities.Track {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return nil
	}

	return player.GetCurrentTrack()
}

// GetPlayer returns the audio player for a guild
func (s *AudioService) GetPlayer(guildID string) *AudioPlayer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audioPlayers[guildID]
}

// GetVoiceChannelID returns the current voice channel ID for a guild
func (s *AudioService) GetVoiceChannelID(guildID string) string {
	s.mu.RLock()
	vc, exists := s.voiceConnections[guildID]
	s.mu.RUnlock()

	if !exists {
		return ""
	}

	return vc.GetChannelID()
}

// SetVolume sets the playback volume for a guild (0-200)
func (s *AudioService) SetVolume(guildID string, level int) error {
	s.mu.RLock()
	player, exists := s.audioPlayers[guildID]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrGuildNotFound, guildID)
	}

	player.SetVolume(level)
	return nil
}

// CleanupAll disconnects all voice connections and cleans up all resources
func (s *AudioService) CleanupAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("Cleaning up all audio resources...")

	for guildID, player := range s.audioPlayers {
		if player.IsPlaying() {
			if err := player.Stop(); err != nil {
				s.logger.WithError(err).WithField("guild", guildID).Warn("Failed to stop player")
			}
		}
		player.Cleanup()
	}
	s.audioPlayers = make(map[string]*AudioPlayer)

	for guildID, vc := range s.voiceConnections {
		if err := vc.Disconnect(); err != nil {
			s.logger.WithError(err).WithField("guild", guildID).Warn("Failed to disconnect voice")
		}
	}
	s.voiceConnections = make(map[string]*VoiceConnection)

	s.logger.Info("✅ All audio resources cleaned up")
}

// GetStats returns statistics about the audio service
func (s *AudioService) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	activeConnections := 0
	activePlayers := 0

	for _, vc := range s.voiceConnections {
		if vc.IsConnected() {
			activeConnections++
		}
	}

	for _, player := range s.audioPlayers {
		if player.IsPlaying() {
			activePlayers++
		}
	}

	return map[string]interface{}{
		"active_connections": activeConnections,
		"active_players":     activePlayers,
		"total_connections":  len(s.voiceConnections),
		"total_players":      len(s.audioPlayers),
	}
}
