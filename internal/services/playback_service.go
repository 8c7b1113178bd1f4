package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	apperrors "soundwave/internal/errors"
	"soundwave/internal/services/arbiter"
	"soundwave/internal/services/audio"
	"soundwave/internal/validation"
	"soundwave/pkg/logger"
)

var (
	// ErrNotPlaying is returned when no track is playing
	ErrNotPlaying = errors.New("no track is currently playing")
	// ErrAlreadyPlaying is returned when already playing
	ErrAlreadyPlaying = errors.New("already playing")
)

// ExpectedPlaybackErrors are failure modes of the yt-dlp/FFmpeg pipeline
// that count as a normal end of track rather than a real fault. Streams
// regularly die with these when the remote closes the tail of the file.
var ExpectedPlaybackErrors = []string{
	"exit status 1",
	"exit status 255",
	"connection reset by peer",
	"server returned 403",
	"server returned 404",
	"server returned 5",
}

// IsExpectedPlaybackError reports whether err matches the expected list
func IsExpectedPlaybackError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, expected := range ExpectedPlaybackErrors {
		if strings.Contains(msg, expected) {
			return true
		}
	}
	return false
}

// maxConsecutiveErrors stops auto-advance once this many tracks in a row
// fail with unexpected errors
const maxConsecutiveErrors = 3

// AudioBackend is the voice surface the driver needs; *audio.AudioService
// is the production implementation
type AudioBackend interface {
	ConnectToChannel(guildID, channelID string) error
	DisconnectFromGuild(guildID string) error
	PlayTrack(guildID string, track *entities.Track, callback audio.PlaybackCallback) error
	StopPlayback(guildID string) error
	PausePlayback(guildID string) error
	ResumePlayback(guildID string) error
	IsConnected(guildID string) bool
	IsPlaying(guildID string) bool
	IsPaused(guildID string) bool
	GetCurrentTrack(guildID string) *entities.Track
	SetVolume(guildID string, level int) error
}

// Prefetcher warms stream handles for tracks that will play soon
type Prefetcher interface {
	Warm(track *entities.Track)
}

// Announcer posts a message to the guild's music text channel
type Announcer func(guildID, message string)

// PlayRecorder persists a play for the guild's listening stats
type PlayRecorder func(guildID string, track *entities.Track)

type eventKind int

const (
	eventPlay eventKind = iota
	eventTrackFinished
	eventStop
	eventAutoplay
	eventIdleTimeout
	eventShutdown
)

type playbackEvent struct {
	kind   eventKind
	gen    int64
	err    error
	source valueobjects.Source
	reply  chan error
}

// guildActor serializes all playback transitions for one guild. The actor
// goroutine is the only writer of its mutable fields; snapshot reads from
// outside go through the small mutex.
type guildActor struct {
	guildID string
	events  chan playbackEvent

	source  valueobjects.Source
	playing bool
	gen     int64
	errRun  int

	mu sync.Mutex
}

func (a *guildActor) snapshot() (valueobjects.Source, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.source, a.playing
}

func (a *guildActor) set(source valueobjects.Source, playing bool) {
	a.mu.Lock()
	a.source = source
	a.playing = playing
	a.mu.Unlock()
}

// PlaybackService is the playback driver. One actor goroutine per guild
// owns the play/advance/finish cycle so no callback ever mutates a queue
// concurrently with a user command.
type PlaybackService struct {
	registry *entities.QueueRegistry
	audio    AudioBackend
	arbiter  *arbiter.Arbiter
	autoDJ   *AutoDJ
	prefetch   Prefetcher
	announce   Announcer
	recordPlay PlayRecorder
	logger     *logger.Logger

	idleTimeout time.Duration

	actors map[string]*guildActor
	mu     sync.RWMutex
}

// NewPlaybackService creates the playback driver
func NewPlaybackService(
	registry *entities.QueueRegistry,
	audioBackend AudioBackend,
	arb *arbiter.Arbiter,
	autoDJ *AutoDJ,
	log *logger.Logger,
) *PlaybackService {
	return &PlaybackService{
		registry: registry,
		audio:    audioBackend,
		arbiter:  arb,
		autoDJ:   autoDJ,
		logger:   log,
		actors:   make(map[string]*guildActor),
	}
}

// SetPrefetcher wires the optional stream prefetcher
func (s *PlaybackService) SetPrefetcher(p Prefetcher) {
	s.prefetch = p
}

// SetAnnouncer wires the channel announcer used for now-playing and
// Auto-DJ notices
func (s *PlaybackService) SetAnnouncer(fn Announcer) {
	s.announce = fn
}

// SetIdleTimeout makes the driver leave voice after sitting idle for d.
// Zero disables the timer.
func (s *PlaybackService) SetIdleTimeout(d time.Duration) {
	s.idleTimeout = d
}

// SetPlayRecorder wires the optional play-history sink. The recorder runs
// off the actor goroutine, so a slow database never stalls playback.
func (s *PlaybackService) SetPlayRecorder(fn PlayRecorder) {
	s.recordPlay = fn
}

// Play connects to the voice channel and starts draining the guild's queue
// for the given source. The caller must already hold control from the
// arbiter. If playback is merely paused it resumes instead.
func (s *PlaybackService) Play(guildID string, source valueobjects.Source, channelID string) error {
	if s.audio.IsPaused(guildID) {
		return s.Resume(guildID)
	}

	if err := s.audio.ConnectToChannel(guildID, channelID); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	actor := s.getOrStartActor(guildID)

	reply := make(chan error, 1)
	actor.events <- playbackEvent{kind: eventPlay, source: source, reply: reply}
	return <-reply
}

// Skip ends the current track; the finish event advances the queue under
// the usual loop rules
func (s *PlaybackService) Skip(guildID string) error {
	if !s.audio.IsPlaying(guildID) {
		return ErrNotPlaying
	}
	return s.audio.StopPlayback(guildID)
}

// Stop halts playback and clears the active source's queue. History is
// kept; the voice connection stays up.
func (s *PlaybackService) Stop(guildID string) error {
	actor := s.getActor(guildID)
	if actor == nil {
		return ErrNotPlaying
	}

	reply := make(chan error, 1)
	actor.events <- playbackEvent{kind: eventStop, reply: reply}
	return <-reply
}

// Pause pauses playback without releasing control
func (s *PlaybackService) Pause(guildID string) error {
	if err := s.audio.PausePlayback(guildID); err != nil {
		return err
	}
	if actor := s.getActor(guildID); actor != nil {
		source, _ := actor.snapshot()
		queue := s.registry.Get(guildID, source)
		s.arbiter.UpdateState(guildID, source, s.currentSummary(guildID), false, queue.Size(), queue.Volume())
	}
	return nil
}

// Resume resumes paused playback
func (s *PlaybackService) Resume(guildID string) error {
	if err := s.audio.ResumePlayback(guildID); err != nil {
		return err
	}
	if actor := s.getActor(guildID); actor != nil {
		source, _ := actor.snapshot()
		queue := s.registry.Get(guildID, source)
		s.arbiter.UpdateState(guildID, source, s.currentSummary(guildID), true, queue.Size(), queue.Volume())
	}
	return nil
}

// SetVolume sets the volume (0-200) for the guild's active queue. The new
// level applies from the next encoded track.
func (s *PlaybackService) SetVolume(guildID string, source valueobjects.Source, level int) error {
	if err := validation.ValidateVolume(level); err != nil {
		return err
	}

	s.registry.Get(guildID, source).SetVolume(level)
	if err := s.audio.SetVolume(guildID, level); err != nil && !errors.Is(err, audio.ErrGuildNotFound) {
		return err
	}
	return nil
}

// NowPlaying returns the currently playing track, nil when idle
func (s *PlaybackService) NowPlaying(guildID string) *entities.Track {
	return s.audio.GetCurrentTrack(guildID)
}

// IsPlaying reports whether the guild's driver is mid-track
func (s *PlaybackService) IsPlaying(guildID string) bool {
	actor := s.getActor(guildID)
	if actor == nil {
		return false
	}
	_, playing := actor.snapshot()
	return playing
}

// Cleanup tears down the guild's driver and voice connection
func (s *PlaybackService) Cleanup(guildID string) {
	s.logger.WithField("guild", guildID).Info("Cleaning up playback state")

	s.mu.Lock()
	actor := s.actors[guildID]
	delete(s.actors, guildID)
	s.mu.Unlock()

	if actor != nil {
		reply := make(chan error, 1)
		actor.events <- playbackEvent{kind: eventShutdown, reply: reply}
		<-reply
	}

	// Disconnect empties pending and unsets current on every queue slot;
	// history survives for Auto-DJ and /history
	for _, source := range valueobjects.AllSources() {
		if queue := s.registry.Peek(guildID, source); queue != nil {
			queue.Clear()
		}
	}

	s.audio.DisconnectFromGuild(guildID)
	s.arbiter.Release(guildID)
}

// Shutdown tears down every guild driver
func (s *PlaybackService) Shutdown() {
	s.mu.Lock()
	guilds := make([]string, 0, len(s.actors))
	for guildID := range s.actors {
		guilds = append(guilds, guildID)
	}
	s.mu.Unlock()

	for _, guildID := range guilds {
		s.Cleanup(guildID)
	}
}

// ControlFor adapts the driver to the arbiter's per-source control surface
func (s *PlaybackService) ControlFor(source valueobjects.Source) arbiter.SourceControl {
	return &sourceControl{driver: s, source: source}
}

type sourceControl struct {
	driver *PlaybackService
	source valueobjects.Source
}

func (c *sourceControl) StopPlayback(guildID string) error {
	actor := c.driver.getActor(guildID)
	if actor == nil {
		return nil
	}
	source, playing := actor.snapshot()
	if source != c.source || !playing {
		return nil
	}
	return c.driver.Stop(guildID)
}

func (c *sourceControl) PausePlayback(guildID string) error {
	actor := c.driver.getActor(guildID)
	if actor == nil {
		return ErrNotPlaying
	}
	source, _ := actor.snapshot()
	if source != c.source {
		return nil
	}
	return c.driver.Pause(guildID)
}

func (c *sourceControl) ClearQueue(guildID string) {
	if queue := c.driver.registry.Peek(guildID, c.source); queue != nil {
		queue.Clear()
	}
}

// actor plumbing

func (s *PlaybackService) getActor(guildID string) *guildActor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actors[guildID]
}

func (s *PlaybackService) getOrStartActor(guildID string) *guildActor {
	s.mu.Lock()
	defer s.mu.Unlock()

	if actor, exists := s.actors[guildID]; exists {
		return actor
	}

	actor := &guildActor{
		guildID: guildID,
		events:  make(chan playbackEvent, 16),
	}
	s.actors[guildID] = actor
	go s.runActor(actor)

	s.logger.WithField("guild", guildID).Debug("Playback driver started")
	return actor
}

// runActor is the per-guild event loop. Every state transition flows
// through here, one at a time.
func (s *PlaybackService) runActor(a *guildActor) {
	for ev := range a.events {
		switch ev.kind {
		case eventPlay:
			a.set(ev.source, false)
			var err error
			if !s.audio.IsPlaying(a.guildID) {
				err = s.startNext(a)
			}
			if ev.reply != nil {
				ev.reply <- err
			}

		case eventTrackFinished:
			if ev.gen != a.gen {
				// A stop or switch already superseded this track
				continue
			}
			a.set(a.source, false)

			if ev.err != nil && !IsExpectedPlaybackError(ev.err) {
				a.errRun++
				s.logger.WithError(ev.err).WithFields(map[string]interface{}{
					"guild":  a.guildID,
					"errors": a.errRun,
				}).Error("Playback failed, advancing")
				if a.errRun >= maxConsecutiveErrors {
					s.logger.WithField("guild", a.guildID).Warn("Too many playback failures, stopping")
					s.say(a.guildID, "⚠️ Playback keeps failing, stopping for now")
					s.goIdle(a)
					continue
				}
			} else {
				a.errRun = 0
			}

			if err := s.startNext(a); err != nil {
				s.logger.WithError(err).WithField("guild", a.guildID).Error("Failed to start next track")
				s.goIdle(a)
			}

		case eventAutoplay:
			if ev.gen != a.gen {
				continue
			}
			_, playing := a.snapshot()
			if playing {
				continue
			}
			if err := s.startNext(a); err != nil {
				s.logger.WithError(err).WithField("guild", a.guildID).Error("Autoplay retry failed")
			}

		case eventIdleTimeout:
			if ev.gen != a.gen {
				continue
			}
			if _, playing := a.snapshot(); playing {
				continue
			}
			s.logger.WithField("guild", a.guildID).Info("💤 Idle timeout reached, leaving voice")
			// Cleanup sends the shutdown event, so it must not run on
			// the actor goroutine itself
			go s.Cleanup(a.guildID)

		case eventStop:
			a.gen++
			queue := s.registry.Get(a.guildID, a.source)
			if s.audio.IsPlaying(a.guildID) {
				if err := s.audio.StopPlayback(a.guildID); err != nil {
					s.logger.WithError(err).Warn("Failed to stop audio")
				}
			}
			queue.Clear()
			s.goIdle(a)
			if ev.reply != nil {
				ev.reply <- nil
			}

		case eventShutdown:
			a.gen++
			if s.audio.IsPlaying(a.guildID) {
				s.audio.StopPlayback(a.guildID)
			}
			if ev.reply != nil {
				ev.reply <- nil
			}
			return
		}
	}
}

// startNext advances the queue and starts the resulting track, falling back
// to Auto-DJ when the queue runs out with continuous play on.
func (s *PlaybackService) startNext(a *guildActor) error {
	queue := s.registry.Get(a.guildID, a.source)

	track := queue.Advance()
	if track == nil {
		if !queue.IsContinuousPlay() || !s.autoDJ.Enabled(a.guildID) {
			s.goIdle(a)
			return nil
		}

		if wait := s.autoDJ.CooldownRemaining(a.guildID); wait > 0 {
			s.scheduleAutoplay(a, wait)
			s.goIdle(a)
			return nil
		}

		picked, err := s.autoDJ.NextTrack(a.guildID, queue)
		if err != nil {
			if errors.Is(err, apperrors.ErrAutoDJDisabled) {
				if s.autoDJ.ShouldNotifyDisabled(a.guildID) {
					s.say(a.guildID, "🎲 Auto-DJ couldn't find anything to play and turned itself off")
				}
			} else if errors.Is(err, apperrors.ErrAutoDJExhausted) {
				s.scheduleAutoplay(a, s.autoDJ.CooldownRemaining(a.guildID))
			}
			s.goIdle(a)
			return nil
		}

		queue.SetCurrent(picked)
		track = picked
	}

	a.gen++
	gen := a.gen
	events := a.events

	callback := func(finished *entities.Track, err error) {
		events <- playbackEvent{kind: eventTrackFinished, gen: gen, err: err}
	}

	if err := s.audio.PlayTrack(a.guildID, track, callback); err != nil {
		return err
	}

	track.MarkPlayed()
	if s.recordPlay != nil {
		go s.recordPlay(a.guildID, track)
	}
	a.set(a.source, true)

	s.arbiter.UpdateState(a.guildID, a.source, track.Summary(), true, queue.Size(), queue.Volume())
	s.say(a.guildID, fmt.Sprintf("▶️ Now playing: **%s** [%s]", track.DisplayName(), track.DurationFormatted()))

	s.logger.WithFields(map[string]interface{}{
		"guild": a.guildID,
		"track": track.DisplayName(),
	}).Info("▶️ Now playing")

	// Warm the stream handle of whatever plays next
	if s.prefetch != nil {
		if pending := queue.Pending(); len(pending) > 0 {
			s.prefetch.Warm(pending[0])
		}
	}

	return nil
}

func (s *PlaybackService) goIdle(a *guildActor) {
	a.set(a.source, false)
	queue := s.registry.Get(a.guildID, a.source)
	s.arbiter.UpdateState(a.guildID, a.source, nil, false, queue.Size(), queue.Volume())

	if s.idleTimeout > 0 {
		gen := a.gen
		events := a.events
		time.AfterFunc(s.idleTimeout, func() {
			events <- playbackEvent{kind: eventIdleTimeout, gen: gen}
		})
	}
}

func (s *PlaybackService) scheduleAutoplay(a *guildActor, wait time.Duration) {
	if wait <= 0 {
		wait = time.Second
	}
	gen := a.gen
	events := a.events
	time.AfterFunc(wait, func() {
		events <- playbackEvent{kind: eventAutoplay, gen: gen}
	})
}

func (s *PlaybackService) currentSummary(guildID string) *entities.TrackSummary {
	if track := s.audio.GetCurrentTrack(guildID); track != nil {
		return track.Summary()
	}
	return nil
}

func (s *PlaybackService) say(guildID, message string) {
	if s.announce != nil {
		s.announce(guildID, message)
	}
}
