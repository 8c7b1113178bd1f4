package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"soundwave/internal/domain/entities"
	"soundwave/pkg/logger"
)

var (
	// ErrNoVoiceConnection is returned when there's no voice connection
	ErrNoVoiceConnection = errors.New("no voice connection")
	// ErrPlayerNotPlaying is returned when player is not playing
	ErrPlayerNotPlaying = errors.New("player is not playing")
)

// PlaybackCallback is called exactly once when playback ends, with the error
// that terminated it (nil for a clean finish or user stop)
type PlaybackCallback func(track *entities.Track, err error)

// AudioPlayer manages audio playback for a guild
type AudioPlayer struct {
	guildID string
	vc      *VoiceConnection
	encoder *AudioEncoder
	logger  *logger.Logger

	currentTrack *entities.Track
	isPlaying    atomic.Bool
	isPaused     atomic.Bool
	stopSignal   chan struct{}
	callback     PlaybackCallback
	volume       int // 0-200, 100 is unity gain

	mu sync.RWMutex
}

// NewAudioPlayer creates a new audio player
func NewAudioPlayer(guildID string, vc *VoiceConnection, log *logger.Logger) *AudioPlayer {
	return &AudioPlayer{
		guildID:    guildID,
		vc:         vc,
		encoder:    NewAudioEncoder(log),
		logger:     log,
		stopSignal: make(chan struct{}),
		volume:     100,
	}
}

// Play starts playing a track
func (p *AudioPlayer) Play(track *entities.Track, callback PlaybackCallback) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isPlaying.Load() {
		return ErrAlreadyPlaying
	}

	if !p.vc.IsConnected() {
		return ErrNoVoiceConnection
	}

	// A freshly warmed stream URL streams straight through FFmpeg; anything
	// older re-extracts from the page URL so we never hit an expired handle
	inputURL, direct := playbackInput(track, streamFreshness)
	if inputURL == "" {
		return fmt.Errorf("track has no source URL")
	}

	p.logger.WithFields(map[string]interface{}{
		"track":  track.DisplayName(),
		"source": track.Source,
		"warmed": direct,
	}).Info("🎵 Starting playback...")

	p.currentTrack = track
	p.callback = callback
	p.stopSignal = make(chan struct{})
	p.isPlaying.Store(true)
	p.isPaused.Store(false)

	go p.playbackLoop(track, inputURL, direct)

	return nil
}

// streamFreshness bounds how old a warmed stream handle may be before the
// player falls back to re-extraction
const streamFreshness = 5 * time.Minute

// playbackInput picks what the encoder consumes: a stream handle younger
// than freshness plays directly, anything else goes back to the page URL.
func playbackInput(track *entities.Track, freshness time.Duration) (string, bool) {
	if url := track.GetStreamURL(); url != "" && !track.IsStreamExpired(freshness) {
		return url, true
	}
	return track.SourceURL, false
}

// playbackLoop handles the actual playback
func (p *AudioPlayer) playbackLoop(track *entities.Track, inputURL string, direct bool) {
	var finishErr error

	defer func() {
		p.isPlaying.Store(false)
		p.isPaused.Store(false)

		p.mu.Lock()
		callback := p.callback
		p.callback = nil
		p.mu.Unlock()

		if callback != nil {
			callback(track, finishErr)
		}
	}()

	if err := p.vc.Speaking(true); err != nil {
		p.logger.WithError(err).Error("Failed to set speaking status")
		finishErr = err
		return
	}
	defer p.vc.Speaking(false)

	options := DefaultEncodeOptions()

	p.mu.RLock()
	options.Volume = p.volume
	p.mu.RUnlock()

	p.logger.WithField("volume", options.Volume).Debug("Starting playback with volume")

	var frameChannel <-chan []byte
	var errorChannel <-chan error
	var err error
	if direct {
		frameChannel, errorChannel, err = p.encoder.EncodeDirect(inputURL, options)
	} else {
		frameChannel, errorChannel, err = p.encoder.EncodeStream(inputURL, options)
	}
	if err != nil {
		p.logger.WithError(err).Error("Failed to start encoding")
		finishErr = err
		return
	}

	vc := p.vc.GetVoiceConnection()
	if vc == nil {
		p.logger.Error("Voice connection is nil")
		finishErr = ErrNoVoiceConnection
		return
	}

	p.logger.Info("📻 Streaming audio to Discord...")

	frameCount := 0
	for {
		select {
		case <-p.stopSignal:
			p.logger.Info("⏹️ Playback stopped by user")
			return

		case err := <-errorChannel:
			if err != nil {
				p.logger.WithError(err).Error("Encoding error")
				finishErr = err
				return
			}

		case frame, ok := <-frameChannel:
			if !ok {
				// Channel closed, playback finished
				p.logger.WithField("frames", frameCount).Info("✅ Playback completed")
				return
			}

			// Handle pause
			for p.isPaused.Load() {
				select {
				case <-p.stopSignal:
					return
				case <-time.After(100 * time.Millisecond):
					// Continue checking pause state
				}
			}

			select {
			case vc.OpusSend <- frame:
				frameCount++
			case <-p.stopSignal:
				p.logger.Info("⏹️ Playback stopped during frame send")
				return
			}
		}
	}
}

// Stop stops the current playback. The callback still fires, with a nil
// error, so the driver sees every termination through one path.
func (p *AudioPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isPlaying.Load() {
		return ErrPlayerNotPlaying
	}

	p.logger.Info("⏹️ Stopping playback...")

	// Signal stop - use select to avoid panic on double close
	select {
	case <-p.stopSignal:
		// Already closed
	default:
		close(p.stopSignal)
	}

	// Wait a bit for cleanup
	time.Sleep(100 * time.Millisecond)

	p.isPlaying.Store(false)
	p.isPaused.Store(false)
	p.currentTrack = nil

	return nil
}

// Pause pauses the playback
func (p *AudioPlayer) Pause() error {
	if !p.isPlaying.Load() {
		return ErrPlayerNotPlaying
	}

	if p.isPaused.Load() {
		return errors.New("already paused")
	}

	p.logger.Info("⏸️ Pausing playback...")
	p.isPaused.Store(true)

	if err := p.vc.Speaking(false); err != nil {
		p.logger.WithError(err).Warn("Failed to update speaking status on pause")
	}

	return nil
}

// Resume resumes the playback
func (p *AudioPlayer) Resume() error {
	if !p.isPlaying.Load() {
		return ErrPlayerNotPlaying
	}

	if !p.isPaused.Load() {
		return errors.New("not paused")
	}

	p.logger.Info("▶️ Resuming playback...")
	p.isPaused.Store(false)

	if err := p.vc.Speaking(true); err != nil {
		p.logger.WithError(err).Warn("Failed to update speaking status on resume")
	}

	return nil
}

// IsPlaying returns true if currently playing
func (p *AudioPlayer) IsPlaying() bool {
	return p.isPlaying.Load()
}

// IsPaused returns true if currently paused
func (p *AudioPlayer) IsPaused() bool {
	return p.isPaused.Load()
}

// GetCurrentTrack returns the currently playing track
func (p *AudioPlayer) GetCurrentTrack() *entities.Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentTrack
}

// Cleanup performs cleanup when player is no longer needed
func (p *AudioPlayer) Cleanup() {
	if p.isPlaying.Load() {
		p.Stop()
	}
}

// SetVolume sets the volume level (0-200); takes effect on the next track
func (p *AudioPlayer) SetVolume(level int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 200 {
		level = 200
	}
	p.volume = level
	p.logger.WithField("volume", level).Info("Volume set")
}

// GetVolume returns the current volume level
func (p *AudioPlayer) GetVolume() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}
