package arbiter

import (
	"sync"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	"soundwave/pkg/logger"
)

// SourceControl is what the arbiter may ask of a registered source during
// conflict resolution. The arbiter itself never touches voice I/O directly.
type SourceControl interface {
	// StopPlayback halts the source's playback in a guild
	StopPlayback(guildID string) error
	// PausePlayback pauses the source's playback in a guild
	PausePlayback(guildID string) error
	// ClearQueue empties the source's queue for a guild
	ClearQueue(guildID string)
}

// GuildMusicState records which source owns a guild's voice connection and
// what it is doing. One entry per guild, created lazily, never persisted.
type GuildMusicState struct {
	ActiveSource  *valueobjects.Source
	IsPlaying     bool
	QueueSize     int
	CurrentTrack  *entities.TrackSummary
	VolumePercent int
}

// Conflict describes why control was denied: another source holds the
// guild's voice connection. It is data, not an error.
type Conflict struct {
	CurrentSource valueobjects.Source
	CurrentTrack  *entities.TrackSummary
}

// Decision is the outcome of a control request
type Decision struct {
	Granted  bool
	Conflict *Conflict
}

// Arbiter is the single authority deciding which source may drive a guild's
// voice connection. All sources must request control before starting
// playback; conflicts are surfaced for the user to resolve.
type Arbiter struct {
	states   map[string]*GuildMusicState
	controls map[valueobjects.Source]SourceControl
	logger   *logger.Logger
	mu       sync.RWMutex
}

// New creates an arbiter with no registered sources
func New(log *logger.Logger) *Arbiter {
	return &Arbiter{
		states:   make(map[string]*GuildMusicState),
		controls: make(map[valueobjects.Source]SourceControl),
		logger:   log,
	}
}

// RegisterSource registers a source's control hooks. Sources register on
// startup; an unregistered source is tolerated during switches.
func (a *Arbiter) RegisterSource(source valueobjects.Source, control SourceControl) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.controls[source] = control
}

// RequestControl grants control when no source is active for the guild or
// the same source already holds it. A paused active source still conflicts;
// only an explicit switch or release transfers ownership.
func (a *Arbiter) RequestControl(guildID string, requested valueobjects.Source) Decision {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.stateLocked(guildID)

	if state.ActiveSource == nil || *state.ActiveSource == requested {
		source := requested
		state.ActiveSource = &source
		a.logger.WithFields(map[string]interface{}{
			"guild":  guildID,
			"source": requested,
		}).Debug("Music control granted")
		return Decision{Granted: true}
	}

	a.logger.WithFields(map[string]interface{}{
		"guild":     guildID,
		"requested": requested,
		"active":    *state.ActiveSource,
	}).Info("Music control conflict")

	return Decision{
		Conflict: &Conflict{
			CurrentSource: *state.ActiveSource,
			CurrentTrack:  state.CurrentTrack,
		},
	}
}

// ForceSwitch stops the active source's playback, clears every other
// source's queue for the guild, and hands control to newSource with
// isPlaying=false. The caller still has to start playback afterwards.
// A source that fails to stop or clear is logged and skipped; a missing
// source must never block the switch.
func (a *Arbiter) ForceSwitch(guildID string, newSource valueobjects.Source) {
	a.mu.Lock()
	active := a.stateLocked(guildID).ActiveSource
	controls := make(map[valueobjects.Source]SourceControl, len(a.controls))
	for source, control := range a.controls {
		controls[source] = control
	}
	a.mu.Unlock()

	if active != nil {
		if control, ok := controls[*active]; ok {
			if err := control.StopPlayback(guildID); err != nil {
				a.logger.WithError(err).WithFields(map[string]interface{}{
					"guild":  guildID,
					"source": *active,
				}).Warn("Failed to stop active source during switch")
			}
		}
	}

	for _, source := range valueobjects.AllSources() {
		if source == newSource {
			continue
		}
		control, ok := controls[source]
		if !ok {
			a.logger.WithFields(map[string]interface{}{
				"guild":  guildID,
				"source": source,
			}).Debug("Source not registered, skipping queue clear")
			continue
		}
		control.ClearQueue(guildID)
		a.logger.WithFields(map[string]interface{}{
			"guild":  guildID,
			"source": source,
		}).Info("Queue cleared for source switch")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.stateLocked(guildID)
	source := newSource
	state.ActiveSource = &source
	state.IsPlaying = false
	state.CurrentTrack = nil
	state.QueueSize = 0

	a.logger.WithFields(map[string]interface{}{
		"guild":  guildID,
		"source": newSource,
	}).Info("Music source switched")
}

// PauseCurrent pauses the active source's playback without transferring
// control or clearing anything.
func (a *Arbiter) PauseCurrent(guildID string) error {
	a.mu.Lock()
	state := a.stateLocked(guildID)
	active := state.ActiveSource
	var control SourceControl
	if active != nil {
		control = a.controls[*active]
	}
	state.IsPlaying = false
	a.mu.Unlock()

	if control == nil {
		return nil
	}
	return control.PausePlayback(guildID)
}

// Release drops the guild's active source, typically after stop/disconnect
func (a *Arbiter) Release(guildID string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.stateLocked(guildID)
	state.ActiveSource = nil
	state.IsPlaying = false
	state.CurrentTrack = nil
	state.QueueSize = 0
}

// UpdateState records the playback status; called by the driver after every
// play/stop transition so observers never have to touch queues directly.
func (a *Arbiter) UpdateState(guildID string, source valueobjects.Source, track *entities.TrackSummary, isPlaying bool, queueSize, volume int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := a.stateLocked(guildID)
	src := source
	state.ActiveSource = &src
	state.CurrentTrack = track
	state.IsPlaying = isPlaying
	state.QueueSize = queueSize
	state.VolumePercent = volume
}

// State returns a copy of the guild's music state
func (a *Arbiter) State(guildID string) GuildMusicState {
	a.mu.RLock()
	defer a.mu.RUnlock()

	state, ok := a.states[guildID]
	if !ok {
		return GuildMusicState{VolumePercent: 100}
	}
	return *state
}

// ActiveSource returns the source currently holding the guild, nil if none
func (a *Arbiter) ActiveSource(guildID string) *valueobjects.Source {
	a.mu.RLock()
	defer a.mu.RUnlock()

	state, ok := a.states[guildID]
	if !ok || state.ActiveSource == nil {
		return nil
	}
	source := *state.ActiveSource
	return &source
}

// stateLocked returns the guild state, creating it lazily; caller holds lock
func (a *Arbiter) stateLocked(guildID string) *GuildMusicState {
	state, ok := a.states[guildID]
	if !ok {
		state = &GuildMusicState{VolumePercent: 100}
		a.states[guildID] = state
	}
	return state
}
