package services_test

import (
	"errors"
	"testing"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	apperrors "soundwave/internal/errors"
	"soundwave/internal/services"
	"soundwave/pkg/logger"
)

func newTestAutoDJ(picker *fakePicker) *services.AutoDJ {
	return services.NewAutoDJ(picker, false, logger.New(logger.Config{Level: "error"}))
}

func TestAutoDJDisabledByDefault(t *testing.T) {
	dj := newTestAutoDJ(&fakePicker{})

	if dj.Enabled("guild1") {
		t.Error("Auto-DJ should start disabled")
	}

	queue := entities.NewQueue("guild1", valueobjects.SourceYouTube)
	if _, err := dj.NextTrack("guild1", queue); !errors.Is(err, apperrors.ErrAutoDJDisabled) {
		t.Errorf("Disabled Auto-DJ should refuse to pick, got %v", err)
	}
}

func TestAutoDJDefaultOn(t *testing.T) {
	dj := services.NewAutoDJ(&fakePicker{}, true, logger.New(logger.Config{Level: "error"}))

	if !dj.Enabled("guild1") {
		t.Error("Auto-DJ should honor the enabled default")
	}
}

func TestAutoDJPicksFreshTrack(t *testing.T) {
	dj := newTestAutoDJ(&fakePicker{})
	dj.SetEnabled("guild1", true)

	queue := entities.NewQueue("guild1", valueobjects.SourceYouTube)
	track, err := dj.NextTrack("guild1", queue)
	if err != nil {
		t.Fatalf("NextTrack failed: %v", err)
	}
	if track.AddedBy != "auto-dj" {
		t.Errorf("Picked track should be attributed to auto-dj, got %q", track.AddedBy)
	}
	if dj.CooldownRemaining("guild1") != 0 {
		t.Error("A successful round should not start a cooldown")
	}
}

func TestAutoDJSkipsRecentHistory(t *testing.T) {
	picker := &fakePicker{urls: []string{"urlA", "urlB"}}
	dj := newTestAutoDJ(picker)
	dj.SetEnabled("guild1", true)

	queue := entities.NewQueue("guild1", valueobjects.SourceYouTube)
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))
	queue.Advance()
	queue.Advance() // urlA into history

	track, err := dj.NextTrack("guild1", queue)
	if err != nil {
		t.Fatalf("NextTrack failed: %v", err)
	}
	if track.SourceURL != "urlB" {
		t.Errorf("Auto-DJ must skip recently played URLs, got %s", track.SourceURL)
	}
}

func TestAutoDJFailedRoundStartsCooldown(t *testing.T) {
	picker := &fakePicker{err: errors.New("yt-dlp: no results")}
	dj := newTestAutoDJ(picker)
	dj.SetEnabled("guild1", true)

	queue := entities.NewQueue("guild1", valueobjects.SourceYouTube)

	_, err := dj.NextTrack("guild1", queue)
	if !errors.Is(err, apperrors.ErrAutoDJExhausted) {
		t.Fatalf("A failed round should report exhaustion, got %v", err)
	}
	if dj.CooldownRemaining("guild1") <= 0 {
		t.Error("A failed round should start the cooldown")
	}
	if !dj.Enabled("guild1") {
		t.Error("One failed round must not disable Auto-DJ")
	}
}

func TestAutoDJDisablesAfterTwoFailedRounds(t *testing.T) {
	picker := &fakePicker{err: errors.New("yt-dlp: no results")}
	dj := newTestAutoDJ(picker)
	dj.SetEnabled("guild1", true)

	queue := entities.NewQueue("guild1", valueobjects.SourceYouTube)

	dj.NextTrack("guild1", queue)
	_, err := dj.NextTrack("guild1", queue)
	if !errors.Is(err, apperrors.ErrAutoDJDisabled) {
		t.Fatalf("The second failed round should disable Auto-DJ, got %v", err)
	}
	if dj.Enabled("guild1") {
		t.Error("Auto-DJ should be off after two failed rounds")
	}

	if !dj.ShouldNotifyDisabled("guild1") {
		t.Error("The first check should ask to notify")
	}
	if dj.ShouldNotifyDisabled("guild1") {
		t.Error("The notice must only fire once")
	}
}

func TestAutoDJReenableResetsFailures(t *testing.T) {
	picker := &fakePicker{err: errors.New("yt-dlp: no results")}
	dj := newTestAutoDJ(picker)
	dj.SetEnabled("guild1", true)

	queue := entities.NewQueue("guild1", valueobjects.SourceYouTube)
	dj.NextTrack("guild1", queue)
	dj.NextTrack("guild1", queue) // disabled now

	dj.SetEnabled("guild1", true)
	if !dj.Enabled("guild1") {
		t.Error("Re-enabling should turn Auto-DJ back on")
	}

	// With a working picker the next round succeeds immediately
	picker.mu.Lock()
	picker.err = nil
	picker.mu.Unlock()

	if _, err := dj.NextTrack("guild1", queue); err != nil {
		t.Errorf("Round after re-enable should succeed, got %v", err)
	}
}

func TestAutoDJStateIsPerGuild(t *testing.T) {
	dj := newTestAutoDJ(&fakePicker{})

	dj.SetEnabled("guild1", true)
	if dj.Enabled("guild2") {
		t.Error("Enabling one guild must not affect another")
	}
}
