package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"soundwave/pkg/logger"
)

var (
	// ErrNotConnected is returned when no voice channel is joined
	ErrNotConnected = errors.New("not connected to voice channel")
	// ErrConnectionFailed is returned when joining a voice channel fails
	ErrConnectionFailed = errors.New("failed to connect to voice channel")
)

const voiceReadyTimeout = 10 * time.Second

// VoiceConnection manages a guild's Discord voice session. Connecting while
// already joined elsewhere moves the bot to the new channel.
type VoiceConnection struct {
	guildID   string
	channelID string
	vc        *discordgo.VoiceConnection
	logger    *logger.Logger
	mu        sync.RWMutex
}

func NewVoiceConnection(guildID string, log *logger.Logger) *VoiceConnection {
	return &VoiceConnection{
		guildID: guildID,
		logger:  log,
	}
}

// Connect joins the given voice channel. Reconnecting to the current
// channel is a no-op.
func (v *VoiceConnection) Connect(session *discordgo.Session, channelID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.vc != nil && v.vc.Status == discordgo.VoiceConnectionStatusReady {
		if v.channelID == channelID {
			return nil
		}
		if err := v.disconnectLocked(); err != nil {
			v.logger.WithError(err).Warn("Failed to disconnect before moving channels")
		}
	}

	// mute=false, deaf=true; the bot never needs to receive audio
	vc, err := session.ChannelVoiceJoin(context.Background(), v.guildID, channelID, false, true)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if err := waitReady(vc, voiceReadyTimeout); err != nil {
		vc.Disconnect(context.Background())
		return err
	}

	v.vc = vc
	v.channelID = channelID

	v.logger.WithField("channel", channelID).Info("✅ Connected to voice channel")
	return nil
}

// waitReady polls until the gateway marks the connection ready
func waitReady(vc *discordgo.VoiceConnection, timeout time.Duration) error {
	deadline := time.After(timeout)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for vc.Status != discordgo.VoiceConnectionStatusReady {
		select {
		case <-deadline:
			return fmt.Errorf("%w: connection not ready after %s", ErrConnectionFailed, timeout)
		case <-tick.C:
		}
	}
	return nil
}

// Disconnect leaves the voice channel
func (v *VoiceConnection) Disconnect() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disconnectLocked()
}

func (v *VoiceConnection) disconnectLocked() error {
	if v.vc == nil {
		return ErrNotConnected
	}

	if err := v.vc.Disconnect(context.Background()); err != nil {
		v.logger.WithError(err).Error("Failed to disconnect from voice channel")
		return err
	}

	v.vc = nil
	v.channelID = ""

	v.logger.Info("👋 Disconnected from voice channel")
	return nil
}

// IsConnected reports whether the voice session is up and ready
func (v *VoiceConnection) IsConnected() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vc != nil && v.vc.Status == discordgo.VoiceConnectionStatusReady
}

// GetChannelID returns the joined channel ID, empty when disconnected
func (v *VoiceConnection) GetChannelID() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.channelID
}

// GetVoiceConnection exposes the raw connection for the opus send loop
func (v *VoiceConnection) GetVoiceConnection() *discordgo.VoiceConnection {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.vc
}

// Speaking toggles the speaking indicator
func (v *VoiceConnection) Speaking(speaking bool) error {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if v.vc == nil {
		return ErrNotConnected
	}

	return v.vc.Speaking(speaking)
}
