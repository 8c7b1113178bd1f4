package services_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	"soundwave/internal/services"
	"soundwave/internal/services/arbiter"
	"soundwave/internal/services/audio"
	"soundwave/pkg/logger"
)

// fakeAudio simulates the voice layer: PlayTrack records the callback so the
// test can end tracks on demand
type fakeAudio struct {
	mu       sync.Mutex
	playing  bool
	paused   bool
	current  *entities.Track
	callback audio.PlaybackCallback
	volume   int

	disconnected bool

	playCh chan *entities.Track
}

func newFakeAudio() *fakeAudio {
	return &fakeAudio{playCh: make(chan *entities.Track, 32)}
}

func (f *fakeAudio) ConnectToChannel(guildID, channelID string) error { return nil }

func (f *fakeAudio) DisconnectFromGuild(guildID string) error {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeAudio) isDisconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}

func (f *fakeAudio) PlayTrack(guildID string, track *entities.Track, callback audio.PlaybackCallback) error {
	f.mu.Lock()
	f.playing = true
	f.current = track
	f.callback = callback
	f.mu.Unlock()
	f.playCh <- track
	return nil
}

func (f *fakeAudio) StopPlayback(guildID string) error {
	f.mu.Lock()
	cb := f.callback
	track := f.current
	f.playing = false
	f.current = nil
	f.mu.Unlock()
	if cb != nil {
		// The real player fires its callback from the playback goroutine
		go cb(track, nil)
	}
	return nil
}

func (f *fakeAudio) PausePlayback(guildID string) error {
	f.mu.Lock()
	f.paused = true
	f.playing = false
	f.mu.Unlock()
	return nil
}

func (f *fakeAudio) ResumePlayback(guildID string) error {
	f.mu.Lock()
	f.paused = false
	f.playing = true
	f.mu.Unlock()
	return nil
}

func (f *fakeAudio) IsConnected(guildID string) bool { return true }

func (f *fakeAudio) IsPlaying(guildID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeAudio) IsPaused(guildID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeAudio) GetCurrentTrack(guildID string) *entities.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeAudio) SetVolume(guildID string, level int) error {
	f.mu.Lock()
	f.volume = level
	f.mu.Unlock()
	return nil
}

// finish simulates the current track ending with the given error
func (f *fakeAudio) finish(err error) {
	f.mu.Lock()
	cb := f.callback
	track := f.current
	f.playing = false
	f.current = nil
	f.mu.Unlock()
	if cb != nil {
		cb(track, err)
	}
}

func (f *fakeAudio) waitForPlay(t *testing.T) *entities.Track {
	t.Helper()
	select {
	case track := <-f.playCh:
		return track
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a track to start")
		return nil
	}
}

func (f *fakeAudio) expectNoPlay(t *testing.T) {
	t.Helper()
	select {
	case track := <-f.playCh:
		t.Fatalf("unexpected track started: %s", track.SourceURL)
	case <-time.After(200 * time.Millisecond):
	}
}

// fakePicker hands out tracks with sequential URLs
type fakePicker struct {
	mu   sync.Mutex
	next int
	err  error
	urls []string // fixed URLs to cycle through instead of sequential ones
}

func (p *fakePicker) Resolve(input string, source valueobjects.Source, addedBy string) (*entities.Track, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}

	url := fmt.Sprintf("https://example.com/pick%d", p.next)
	if len(p.urls) > 0 {
		url = p.urls[p.next%len(p.urls)]
	}
	p.next++
	return entities.NewTrack(url, source, nil, addedBy), nil
}

type playbackFixture struct {
	registry *entities.QueueRegistry
	arbiter  *arbiter.Arbiter
	autoDJ   *services.AutoDJ
	audio    *fakeAudio
	driver   *services.PlaybackService
}

func newPlaybackFixture(picker *fakePicker) *playbackFixture {
	log := logger.New(logger.Config{Level: "error"})
	registry := entities.NewQueueRegistry()
	arb := arbiter.New(log)
	autoDJ := services.NewAutoDJ(picker, false, log)
	fake := newFakeAudio()
	driver := services.NewPlaybackService(registry, fake, arb, autoDJ, log)
	return &playbackFixture{registry: registry, arbiter: arb, autoDJ: autoDJ, audio: fake, driver: driver}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPlaybackDisconnectClearsQueue(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)

	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))
	queue.Enqueue(entities.NewTrack("urlB", valueobjects.SourceYouTube, nil, "tester"))

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	f.driver.Cleanup("guild1")

	if queue.Size() != 0 {
		t.Errorf("Disconnect must empty pending, %d tracks remain", queue.Size())
	}
	if queue.Current() != nil {
		t.Error("Disconnect must unset the current track")
	}
	if !f.audio.isDisconnected() {
		t.Error("Cleanup should drop the voice connection")
	}
	if f.arbiter.ActiveSource("guild1") != nil {
		t.Error("Cleanup should release arbiter control")
	}
}

func TestPlaybackDisconnectClearsEverySourceSlot(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})

	yt := f.registry.Get("guild1", valueobjects.SourceYouTube)
	sc := f.registry.Get("guild1", valueobjects.SourceSoundCloud)
	yt.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))
	sc.Enqueue(entities.NewTrack("urlB", valueobjects.SourceSoundCloud, nil, "tester"))

	f.driver.Cleanup("guild1")

	if yt.Size() != 0 || sc.Size() != 0 {
		t.Errorf("Every queue slot must be emptied on disconnect, got %d and %d", yt.Size(), sc.Size())
	}
}

func TestPlaybackRecordsPlays(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})

	var mu sync.Mutex
	recorded := make(map[string]int)
	f.driver.SetPlayRecorder(func(guildID string, track *entities.Track) {
		mu.Lock()
		recorded[guildID+"|"+track.SourceURL]++
		mu.Unlock()
	})

	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))
	queue.Enqueue(entities.NewTrack("urlB", valueobjects.SourceYouTube, nil, "tester"))

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)
	f.audio.finish(nil)
	f.audio.waitForPlay(t)

	waitFor(t, "both plays recorded", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return recorded["guild1|urlA"] == 1 && recorded["guild1|urlB"] == 1
	})
}

func TestPlaybackIdleTimeoutDisconnects(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	f.driver.SetIdleTimeout(50 * time.Millisecond)

	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	if f.audio.isDisconnected() {
		t.Fatal("Must not disconnect while playing")
	}

	f.audio.finish(nil)
	waitFor(t, "idle disconnect", func() bool { return f.audio.isDisconnected() })
}

func TestIsExpectedPlaybackError(t *testing.T) {
	cases := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{errors.New("signal: killed"), false},
		{errors.New("ffmpeg: exit status 1"), true},
		{errors.New("yt-dlp: exit status 255"), true},
		{errors.New("read tcp: connection reset by peer"), true},
		{errors.New("HTTP error: Server returned 403 Forbidden"), true},
		{errors.New("server returned 404 not found"), true},
		{errors.New("server returned 503"), true},
		{errors.New("no route to host"), false},
	}

	for _, tc := range cases {
		if got := services.IsExpectedPlaybackError(tc.err); got != tc.expected {
			t.Errorf("IsExpectedPlaybackError(%v) = %v, want %v", tc.err, got, tc.expected)
		}
	}
}

func TestPlaybackAutoAdvance(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)

	trackA := entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester")
	trackB := entities.NewTrack("urlB", valueobjects.SourceYouTube, nil, "tester")
	queue.Enqueue(trackA)
	queue.Enqueue(trackB)

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	if got := f.audio.waitForPlay(t); got != trackA {
		t.Fatal("First track should be trackA")
	}
	if !f.driver.IsPlaying("guild1") {
		t.Error("Driver should report playing")
	}

	f.audio.finish(nil)
	if got := f.audio.waitForPlay(t); got != trackB {
		t.Fatal("Finish should auto-advance to trackB")
	}

	f.audio.finish(nil)
	waitFor(t, "driver to idle", func() bool { return !f.driver.IsPlaying("guild1") })

	if len(queue.History()) != 2 {
		t.Errorf("Both tracks should be in history, got %d", len(queue.History()))
	}
}

func TestPlaybackExpectedErrorStillAdvances(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)

	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))
	trackB := entities.NewTrack("urlB", valueobjects.SourceYouTube, nil, "tester")
	queue.Enqueue(trackB)

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	f.audio.finish(errors.New("ffmpeg: exit status 1"))
	if got := f.audio.waitForPlay(t); got != trackB {
		t.Fatal("An expected stream error should advance normally")
	}
}

func TestPlaybackStopsAfterRepeatedFailures(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})

	var mu sync.Mutex
	var notices []string
	f.driver.SetAnnouncer(func(guildID, message string) {
		mu.Lock()
		notices = append(notices, message)
		mu.Unlock()
	})

	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)
	for i := 0; i < 5; i++ {
		queue.Enqueue(entities.NewTrack(fmt.Sprintf("url%d", i), valueobjects.SourceYouTube, nil, "tester"))
	}

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	// Three unexpected failures in a row
	f.audio.waitForPlay(t)
	f.audio.finish(errors.New("disk on fire"))
	f.audio.waitForPlay(t)
	f.audio.finish(errors.New("disk on fire"))
	f.audio.waitForPlay(t)
	f.audio.finish(errors.New("disk on fire"))

	f.audio.expectNoPlay(t)
	waitFor(t, "driver to give up", func() bool { return !f.driver.IsPlaying("guild1") })

	mu.Lock()
	defer mu.Unlock()
	found := false
	for _, notice := range notices {
		if strings.Contains(notice, "keeps failing") {
			found = true
		}
	}
	if !found {
		t.Error("Users should be told playback gave up")
	}
}

func TestPlaybackStopClearsQueueKeepsHistory(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)

	for i := 0; i < 3; i++ {
		queue.Enqueue(entities.NewTrack(fmt.Sprintf("url%d", i), valueobjects.SourceYouTube, nil, "tester"))
	}

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	if err := f.driver.Stop("guild1"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if queue.Size() != 0 {
		t.Error("Stop should clear pending tracks")
	}
	if len(queue.History()) == 0 {
		t.Error("Stop should keep history")
	}

	// The player's late finish callback must not restart playback
	f.audio.expectNoPlay(t)
	if f.driver.IsPlaying("guild1") {
		t.Error("Driver should be idle after stop")
	}
}

func TestPlaybackSkipAdvances(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)

	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))
	trackB := entities.NewTrack("urlB", valueobjects.SourceYouTube, nil, "tester")
	queue.Enqueue(trackB)

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	if err := f.driver.Skip("guild1"); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if got := f.audio.waitForPlay(t); got != trackB {
		t.Fatal("Skip should start the next pending track")
	}
}

func TestPlaybackSkipWhenIdle(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})

	if err := f.driver.Skip("guild1"); !errors.Is(err, services.ErrNotPlaying) {
		t.Errorf("Skip on an idle guild should return ErrNotPlaying, got %v", err)
	}
}

func TestPlaybackAutoDJTakesOver(t *testing.T) {
	picker := &fakePicker{}
	f := newPlaybackFixture(picker)

	f.autoDJ.SetEnabled("guild1", true)
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)
	queue.SetContinuousPlay(true)
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	f.audio.finish(nil)
	picked := f.audio.waitForPlay(t)
	if picked.AddedBy != "auto-dj" {
		t.Errorf("Auto-DJ should own the picked track, got added_by=%q", picked.AddedBy)
	}
	if queue.Current() != picked {
		t.Error("The picked track should become the queue's current track")
	}
}

func TestPlaybackAutoDJAvoidsRecentHistory(t *testing.T) {
	// Picker cycles through two URLs; the first matches recent history so
	// Auto-DJ must land on the second
	picker := &fakePicker{urls: []string{"urlA", "https://example.com/fresh"}}
	f := newPlaybackFixture(picker)

	f.autoDJ.SetEnabled("guild1", true)
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)
	queue.SetContinuousPlay(true)
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	f.audio.finish(nil)
	picked := f.audio.waitForPlay(t)
	if picked.SourceURL != "https://example.com/fresh" {
		t.Errorf("Auto-DJ must skip recently played URLs, picked %s", picked.SourceURL)
	}
}

func TestPlaybackAutoDJDisabledStaysIdle(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)
	queue.SetContinuousPlay(true)
	// Auto-DJ itself stays off
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	f.audio.finish(nil)
	f.audio.expectNoPlay(t)
	waitFor(t, "driver to idle", func() bool { return !f.driver.IsPlaying("guild1") })
}

func TestPlaybackSetVolume(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})

	if err := f.driver.SetVolume("guild1", valueobjects.SourceYouTube, 150); err != nil {
		t.Fatalf("SetVolume failed: %v", err)
	}
	if got := f.registry.Get("guild1", valueobjects.SourceYouTube).Volume(); got != 150 {
		t.Errorf("Queue volume should be 150, got %d", got)
	}

	if err := f.driver.SetVolume("guild1", valueobjects.SourceYouTube, 500); err == nil {
		t.Error("Volume above 200 should be rejected")
	}
}

func TestPlaybackControlForStopsOnlyOwnSource(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceYouTube)
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceYouTube, nil, "tester"))

	if err := f.driver.Play("guild1", valueobjects.SourceYouTube, "voice1"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	f.audio.waitForPlay(t)

	// A different source's control must not stop YouTube playback
	other := f.driver.ControlFor(valueobjects.SourceSoundCloud)
	if err := other.StopPlayback("guild1"); err != nil {
		t.Fatalf("StopPlayback failed: %v", err)
	}
	if !f.driver.IsPlaying("guild1") {
		t.Error("Another source's stop must not affect the active source")
	}

	own := f.driver.ControlFor(valueobjects.SourceYouTube)
	if err := own.StopPlayback("guild1"); err != nil {
		t.Fatalf("StopPlayback failed: %v", err)
	}
	waitFor(t, "driver to stop", func() bool { return !f.driver.IsPlaying("guild1") })
}

func TestPlaybackControlForClearQueue(t *testing.T) {
	f := newPlaybackFixture(&fakePicker{})
	queue := f.registry.Get("guild1", valueobjects.SourceSoundCloud)
	queue.Enqueue(entities.NewTrack("urlA", valueobjects.SourceSoundCloud, nil, "tester"))

	f.driver.ControlFor(valueobjects.SourceSoundCloud).ClearQueue("guild1")
	if queue.Size() != 0 {
		t.Error("ClearQueue should empty the source's queue")
	}

	// Clearing a queue that never existed must not create it
	f.driver.ControlFor(valueobjects.SourceUniversal).ClearQueue("guild2")
	if f.registry.Peek("guild2", valueobjects.SourceUniversal) != nil {
		t.Error("ClearQueue must not create queues")
	}
}
