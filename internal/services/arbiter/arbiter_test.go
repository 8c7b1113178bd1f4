package arbiter_test

import (
	"errors"
	"testing"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	"soundwave/internal/services/arbiter"
	"soundwave/pkg/logger"
)

type fakeControl struct {
	stopped []string
	paused  []string
	cleared []string
	stopErr error
}

func (f *fakeControl) StopPlayback(guildID string) error {
	f.stopped = append(f.stopped, guildID)
	return f.stopErr
}

func (f *fakeControl) PausePlayback(guildID string) error {
	f.paused = append(f.paused, guildID)
	return nil
}

func (f *fakeControl) ClearQueue(guildID string) {
	f.cleared = append(f.cleared, guildID)
}

func newTestArbiter() *arbiter.Arbiter {
	return arbiter.New(logger.New(logger.Config{Level: "error"}))
}

func TestRequestControlGrantsIdleGuild(t *testing.T) {
	arb := newTestArbiter()

	decision := arb.RequestControl("guild1", valueobjects.SourceYouTube)
	if !decision.Granted {
		t.Fatal("Idle guild should grant control")
	}
	if decision.Conflict != nil {
		t.Error("Granted decision should carry no conflict")
	}

	active := arb.ActiveSource("guild1")
	if active == nil || *active != valueobjects.SourceYouTube {
		t.Error("Granted source should become active")
	}
}

func TestRequestControlSameSourceRegrants(t *testing.T) {
	arb := newTestArbiter()

	arb.RequestControl("guild1", valueobjects.SourceYouTube)
	decision := arb.RequestControl("guild1", valueobjects.SourceYouTube)
	if !decision.Granted {
		t.Error("Holding source should be re-granted")
	}
}

func TestRequestControlConflictData(t *testing.T) {
	arb := newTestArbiter()

	arb.RequestControl("guild1", valueobjects.SourceYouTube)
	arb.UpdateState("guild1", valueobjects.SourceYouTube, &entities.TrackSummary{Title: "Current Song"}, true, 3, 100)

	decision := arb.RequestControl("guild1", valueobjects.SourceSoundCloud)
	if decision.Granted {
		t.Fatal("Busy guild should deny a different source")
	}
	if decision.Conflict == nil {
		t.Fatal("Denied decision should describe the conflict")
	}
	if decision.Conflict.CurrentSource != valueobjects.SourceYouTube {
		t.Error("Conflict should name the holding source")
	}
	if decision.Conflict.CurrentTrack == nil || decision.Conflict.CurrentTrack.Title != "Current Song" {
		t.Error("Conflict should carry the current track summary")
	}
}

func TestPausedSourceStillConflicts(t *testing.T) {
	arb := newTestArbiter()
	arb.RegisterSource(valueobjects.SourceYouTube, &fakeControl{})

	arb.RequestControl("guild1", valueobjects.SourceYouTube)
	if err := arb.PauseCurrent("guild1"); err != nil {
		t.Fatalf("PauseCurrent failed: %v", err)
	}

	decision := arb.RequestControl("guild1", valueobjects.SourceSoundCloud)
	if decision.Granted {
		t.Error("A paused source must still hold control")
	}
}

func TestForceSwitchStopsAndClears(t *testing.T) {
	arb := newTestArbiter()

	yt := &fakeControl{}
	sc := &fakeControl{}
	uni := &fakeControl{}
	arb.RegisterSource(valueobjects.SourceYouTube, yt)
	arb.RegisterSource(valueobjects.SourceSoundCloud, sc)
	arb.RegisterSource(valueobjects.SourceUniversal, uni)

	arb.RequestControl("guild1", valueobjects.SourceYouTube)
	arb.UpdateState("guild1", valueobjects.SourceYouTube, &entities.TrackSummary{Title: "Song"}, true, 2, 100)

	arb.ForceSwitch("guild1", valueobjects.SourceSoundCloud)

	if len(yt.stopped) != 1 {
		t.Error("Active source should be stopped during the switch")
	}
	if len(yt.cleared) != 1 || len(uni.cleared) != 1 {
		t.Error("Every non-target source should have its queue cleared")
	}
	if len(sc.cleared) != 0 {
		t.Error("The target source's queue must survive the switch")
	}

	state := arb.State("guild1")
	if state.ActiveSource == nil || *state.ActiveSource != valueobjects.SourceSoundCloud {
		t.Error("Target source should hold control after the switch")
	}
	if state.IsPlaying {
		t.Error("Nothing plays until the caller starts playback")
	}
	if state.CurrentTrack != nil {
		t.Error("Current track should be cleared by the switch")
	}
}

func TestForceSwitchSurvivesStopFailure(t *testing.T) {
	arb := newTestArbiter()

	yt := &fakeControl{stopErr: errors.New("voice connection lost")}
	sc := &fakeControl{}
	arb.RegisterSource(valueobjects.SourceYouTube, yt)
	arb.RegisterSource(valueobjects.SourceSoundCloud, sc)

	arb.RequestControl("guild1", valueobjects.SourceYouTube)
	arb.ForceSwitch("guild1", valueobjects.SourceSoundCloud)

	active := arb.ActiveSource("guild1")
	if active == nil || *active != valueobjects.SourceSoundCloud {
		t.Error("A stop failure must not block the switch")
	}
}

func TestForceSwitchWithUnregisteredSources(t *testing.T) {
	arb := newTestArbiter()

	arb.RequestControl("guild1", valueobjects.SourceYouTube)
	// No sources registered at all; the switch must still complete
	arb.ForceSwitch("guild1", valueobjects.SourceUniversal)

	active := arb.ActiveSource("guild1")
	if active == nil || *active != valueobjects.SourceUniversal {
		t.Error("Missing registrations must not block the switch")
	}
}

func TestRelease(t *testing.T) {
	arb := newTestArbiter()

	arb.RequestControl("guild1", valueobjects.SourceYouTube)
	arb.Release("guild1")

	if arb.ActiveSource("guild1") != nil {
		t.Error("Release should drop the active source")
	}

	decision := arb.RequestControl("guild1", valueobjects.SourceSoundCloud)
	if !decision.Granted {
		t.Error("A released guild should grant the next requester")
	}
}

func TestStateDefaults(t *testing.T) {
	arb := newTestArbiter()

	state := arb.State("unknown-guild")
	if state.ActiveSource != nil || state.IsPlaying {
		t.Error("Unknown guild should report an idle state")
	}
	if state.VolumePercent != 100 {
		t.Errorf("Default volume should be 100, got %d", state.VolumePercent)
	}
}
