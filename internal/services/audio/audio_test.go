package audio_test

import (
	"fmt"
	"testing"
	"time"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	"soundwave/internal/services/audio"
	"soundwave/pkg/logger"
)

func TestVoiceConnectionCreation(t *testing.T) {
	log := logger.New(logger.Config{Level: "info"})

	vc := audio.NewVoiceConnection("test-guild-123", log)

	if vc == nil {
		t.Fatal("Expected voice connection to be created")
	}
	if vc.IsConnected() {
		t.Error("New voice connection should not be connected")
	}
	if vc.GetChannelID() != "" {
		t.Error("New voice connection should have empty channel ID")
	}
}

func TestVoiceConnectionDisconnectWhenIdle(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})

	vc := audio.NewVoiceConnection("test-guild-123", log)

	if err := vc.Disconnect(); err != audio.ErrNotConnected {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestEncodeOptions(t *testing.T) {
	options := audio.DefaultEncodeOptions()

	if options.Volume != 100 {
		t.Errorf("Expected default volume 100, got %d", options.Volume)
	}
	if options.Bitrate != 128 {
		t.Errorf("Expected default bitrate 128, got %d", options.Bitrate)
	}
	if options.Application != "audio" {
		t.Errorf("Expected default application 'audio', got %s", options.Application)
	}
}

func TestAudioPlayerCreation(t *testing.T) {
	log := logger.New(logger.Config{Level: "info"})

	vc := audio.NewVoiceConnection("test-guild-123", log)
	player := audio.NewAudioPlayer("test-guild-123", vc, log)

	if player == nil {
		t.Fatal("Expected player to be created")
	}
	if player.IsPlaying() {
		t.Error("New player should not be playing")
	}
	if player.IsPaused() {
		t.Error("New player should not be paused")
	}
	if player.GetCurrentTrack() != nil {
		t.Error("New player should have no current track")
	}
	if player.GetVolume() != 100 {
		t.Errorf("Default player volume should be 100, got %d", player.GetVolume())
	}
}

func TestAudioPlayerStates(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})

	vc := audio.NewVoiceConnection("test-guild-123", log)
	player := audio.NewAudioPlayer("test-guild-123", vc, log)

	if err := player.Stop(); err != audio.ErrPlayerNotPlaying {
		t.Errorf("Expected ErrPlayerNotPlaying from Stop, got %v", err)
	}
	if err := player.Pause(); err != audio.ErrPlayerNotPlaying {
		t.Errorf("Expected ErrPlayerNotPlaying from Pause, got %v", err)
	}
	if err := player.Resume(); err != audio.ErrPlayerNotPlaying {
		t.Errorf("Expected ErrPlayerNotPlaying from Resume, got %v", err)
	}
}

func TestAudioPlayerPlayRequiresConnection(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})

	vc := audio.NewVoiceConnection("test-guild-123", log)
	player := audio.NewAudioPlayer("test-guild-123", vc, log)

	track := entities.NewTrack(
		"https://youtube.com/watch?v=abc",
		valueobjects.SourceYouTube,
		&valueobjects.TrackMetadata{Title: "Test Song"},
		"tester",
	)

	if err := player.Play(track, nil); err != audio.ErrNoVoiceConnection {
		t.Errorf("Expected ErrNoVoiceConnection, got %v", err)
	}
}

func TestAudioPlayerVolumeClamped(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})

	vc := audio.NewVoiceConnection("test-guild-123", log)
	player := audio.NewAudioPlayer("test-guild-123", vc, log)

	player.SetVolume(250)
	if player.GetVolume() != 200 {
		t.Errorf("Volume should clamp to 200, got %d", player.GetVolume())
	}

	player.SetVolume(-5)
	if player.GetVolume() != 0 {
		t.Errorf("Volume should clamp to 0, got %d", player.GetVolume())
	}
}

func TestAudioPlayerCleanup(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})

	vc := audio.NewVoiceConnection("test-guild-123", log)
	player := audio.NewAudioPlayer("test-guild-123", vc, log)

	// Cleanup should not panic even when not playing
	player.Cleanup()
}

func TestAudioServiceCreation(t *testing.T) {
	log := logger.New(logger.Config{Level: "info"})

	// Cannot create a real Discord session without a token
	service := audio.NewAudioService(nil, log)

	if service == nil {
		t.Fatal("Expected service to be created")
	}

	stats := service.GetStats()
	if stats == nil {
		t.Fatal("Stats should not be nil")
	}
	if stats["total_connections"].(int) != 0 {
		t.Error("New service should have 0 connections")
	}
}

func TestAudioServiceStates(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	service := audio.NewAudioService(nil, log)

	guildID := "test-guild-123"

	if service.IsConnected(guildID) {
		t.Error("Should not be connected initially")
	}
	if service.IsPlaying(guildID) {
		t.Error("Should not be playing initially")
	}
	if service.IsPaused(guildID) {
		t.Error("Should not be paused initially")
	}
	if service.GetCurrentTrack(guildID) != nil {
		t.Error("Should have no current track")
	}
	if service.GetVoiceChannelID(guildID) != "" {
		t.Error("Should have no voice channel")
	}
}

func TestAudioServiceUnknownGuildErrors(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	service := audio.NewAudioService(nil, log)

	if err := service.StopPlayback("nope"); err == nil {
		t.Error("Stopping an unknown guild should fail")
	}
	if err := service.SetVolume("nope", 100); err == nil {
		t.Error("Setting volume for an unknown guild should fail")
	}
}

func TestAudioServiceCleanupAll(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	service := audio.NewAudioService(nil, log)

	// CleanupAll should not panic with nothing connected
	service.CleanupAll()

	if stats := service.GetStats(); stats == nil {
		t.Error("Stats should work after cleanup")
	}
}

func TestAudioServiceConcurrentAccess(t *testing.T) {
	log := logger.New(logger.Config{Level: "error"})
	service := audio.NewAudioService(nil, log)

	done := make(chan bool, 100)

	for i := 0; i < 50; i++ {
		go func(id int) {
			guildID := fmt.Sprintf("guild-%d", id)
			_ = service.IsConnected(guildID)
			_ = service.IsPlaying(guildID)
			_ = service.GetCurrentTrack(guildID)
			done <- true
		}(i)
	}

	for i := 0; i < 50; i++ {
		go func() {
			if stats := service.GetStats(); stats == nil {
				t.Error("Failed to get stats")
			}
			done <- true
		}()
	}

	timeout := time.After(5 * time.Second)
	for i := 0; i < 100; i++ {
		select {
		case <-done:
		case <-timeout:
			t.Fatal("Test timeout")
		}
	}
}
