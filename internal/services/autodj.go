package services

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	apperrors "soundwave/internal/errors"
	"soundwave/pkg/logger"
)

const (
	// autoDJAttempts is how many candidates one selection round tries
	autoDJAttempts = 5
	// autoDJHistoryWindow is how many recent tracks a pick must avoid
	autoDJHistoryWindow = 15
	// autoDJCooldown is the pause between failed selection rounds
	autoDJCooldown = 30 * time.Second
	// autoDJMaxFailedRounds disables Auto-DJ for the guild when reached
	autoDJMaxFailedRounds = 2
)

// genericSearchTerms seed selection when there is no listening history yet
var genericSearchTerms = []string{
	"lofi hip hop radio",
	"chill music mix",
	"top hits playlist",
	"indie folk acoustic",
	"synthwave mix",
	"jazz instrumental",
	"classic rock hits",
	"electronic dance mix",
}

// TrackPicker resolves a search term into a track
type TrackPicker interface {
	Resolve(input string, source valueobjects.Source, addedBy string) (*entities.Track, error)
}

type autoDJState struct {
	enabled      bool
	notified     bool
	failedRounds int
	lastFailure  time.Time
}

// AutoDJ keeps music flowing when a guild's queue runs dry. It derives
// search terms from what just played, resolves a candidate, and rejects
// anything heard in the recent history window.
type AutoDJ struct {
	picker    TrackPicker
	logger    *logger.Logger
	rng       *rand.Rand
	states    map[string]*autoDJState
	defaultOn bool
	mu        sync.Mutex
}

// NewAutoDJ creates an Auto-DJ backed by the given picker. defaultOn is the
// starting state for guilds that never toggled it.
func NewAutoDJ(picker TrackPicker, defaultOn bool, log *logger.Logger) *AutoDJ {
	return &AutoDJ{
		picker:    picker,
		logger:    log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		states:    make(map[string]*autoDJState),
		defaultOn: defaultOn,
	}
}

// Enabled reports whether Auto-DJ may pick for the guild
func (d *AutoDJ) Enabled(guildID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked(guildID).enabled
}

// SetEnabled toggles Auto-DJ for a guild. Re-enabling clears any previous
// failure record so the next round starts fresh.
func (d *AutoDJ) SetEnabled(guildID string, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.stateLocked(guildID)
	state.enabled = enabled
	if enabled {
		state.failedRounds = 0
		state.notified = false
	}
}

// ShouldNotifyDisabled reports whether the guild should be told Auto-DJ
// turned itself off, and marks the notice as delivered.
func (d *AutoDJ) ShouldNotifyDisabled(guildID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.stateLocked(guildID)
	if state.enabled || state.notified {
		return false
	}
	state.notified = true
	return true
}

// CooldownRemaining returns how long the guild must wait before the next
// selection round, zero when eligible now.
func (d *AutoDJ) CooldownRemaining(guildID string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	state := d.stateLocked(guildID)
	if state.failedRounds == 0 {
		return 0
	}
	elapsed := time.Since(state.lastFailure)
	if elapsed >= autoDJCooldown {
		return 0
	}
	return autoDJCooldown - elapsed
}

// NextTrack runs one selection round for the guild. It tries up to five
// candidates, skipping anything in the last fifteen history entries, and
// disables itself after two failed rounds in a row.
func (d *AutoDJ) NextTrack(guildID string, queue *entities.Queue) (*entities.Track, error) {
	d.mu.Lock()
	state := d.stateLocked(guildID)
	if !state.enabled {
		d.mu.Unlock()
		return nil, apperrors.ErrAutoDJDisabled
	}
	d.mu.Unlock()

	recent := queue.RecentURLs(autoDJHistoryWindow)
	seen := make(map[string]bool, len(recent))
	for _, url := range recent {
		seen[url] = true
	}

	terms := d.searchTerms(queue.LastPlayed())

	for attempt := 0; attempt < autoDJAttempts; attempt++ {
		term := terms[attempt%len(terms)]

		track, err := d.picker.Resolve(term, queue.Source(), "auto-dj")
		if err != nil {
			d.logger.WithError(err).WithFields(map[string]interface{}{
				"guild": guildID,
				"term":  term,
			}).Debug("Auto-DJ candidate failed to resolve")
			continue
		}

		if seen[track.SourceURL] {
			d.logger.WithFields(map[string]interface{}{
				"guild": guildID,
				"track": track.DisplayName(),
			}).Debug("Auto-DJ candidate heard recently, skipping")
			continue
		}

		d.mu.Lock()
		state.failedRounds = 0
		d.mu.Unlock()

		d.logger.WithFields(map[string]interface{}{
			"guild": guildID,
			"track": track.DisplayName(),
			"term":  term,
		}).Info("🎲 Auto-DJ picked a track")
		return track, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	state.failedRounds++
	state.lastFailure = time.Now()

	if state.failedRounds >= autoDJMaxFailedRounds {
		state.enabled = false
		d.logger.WithField("guild", guildID).Warn("Auto-DJ disabled after repeated failed rounds")
		return nil, apperrors.ErrAutoDJDisabled
	}

	d.logger.WithFields(map[string]interface{}{
		"guild":  guildID,
		"rounds": state.failedRounds,
	}).Warn("Auto-DJ selection round failed")
	return nil, apperrors.ErrAutoDJExhausted
}

// searchTerms builds the candidate term rotation, smart terms first when a
// previous track is available to learn from.
func (d *AutoDJ) searchTerms(last *entities.Track) []string {
	var terms []string

	if last != nil {
		if uploader := strings.TrimSpace(last.Uploader()); uploader != "" && !strings.EqualFold(uploader, "unknown") {
			terms = append(terms, uploader+" songs", uploader+" mix")
		}
		if title := strings.TrimSpace(last.DisplayName()); title != "" {
			// First few title words keep the flavor without matching the
			// exact same upload again
			words := strings.Fields(title)
			if len(words) > 4 {
				words = words[:4]
			}
			terms = append(terms, strings.Join(words, " ")+" similar songs")
		}
	}

	d.mu.Lock()
	generic := make([]string, len(genericSearchTerms))
	copy(generic, genericSearchTerms)
	d.rng.Shuffle(len(generic), func(i, j int) {
		generic[i], generic[j] = generic[j], generic[i]
	})
	d.mu.Unlock()

	return append(terms, generic...)
}

func (d *AutoDJ) stateLocked(guildID string) *autoDJState {
	state, ok := d.states[guildID]
	if !ok {
		state = &autoDJState{enabled: d.defaultOn}
		d.states[guildID] = state
	}
	return state
}
