package entities

import (
	"math/rand"
	"sync"

	"soundwave/internal/domain/valueobjects"
)

// LoopMode defines how the queue repeats
type LoopMode string

const (
	LoopOff   LoopMode = "off"
	LoopSong  LoopMode = "song"
	LoopQueue LoopMode = "queue"
)

const maxHistory = 50

// Queue is the ordered playlist for one (guild, source) pair. At most one
// track is current at any time; pending keeps insertion order except when
// shuffled or when loop-queue re-appends the popped head.
type Queue struct {
	guildID string
	source  valueobjects.Source

	pending []*Track
	current *Track
	history []*Track

	loopMode       LoopMode
	shuffleEnabled bool
	continuousPlay bool // Auto DJ 24/7
	volumePercent  int

	mu sync.RWMutex
}

// NewQueue creates an empty queue for a guild and source slot
func NewQueue(guildID string, source valueobjects.Source) *Queue {
	return &Queue{
		guildID:       guildID,
		source:        source,
		pending:       make([]*Track, 0),
		history:       make([]*Track, 0, maxHistory),
		loopMode:      LoopOff,
		volumePercent: 100,
	}
}

// GuildID returns the owning guild
func (q *Queue) GuildID() string { return q.guildID }

// Source returns the queue's source slot
func (q *Queue) Source() valueobjects.Source { return q.source }

// Enqueue appends a track to the pending tail and returns its 1-indexed position
func (q *Queue) Enqueue(track *Track) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append(q.pending, track)
	return len(q.pending)
}

// EnqueueFront inserts a track at the pending head ("play next") without
// disturbing the current track.
func (q *Queue) EnqueueFront(track *Track) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = append([]*Track{track}, q.pending...)
}

// Advance moves the queue forward and returns the track that should play
// next, or nil when the queue is exhausted:
//  1. the current track, if any, is pushed into history (oldest evicted past 50)
//  2. loop-song returns the unchanged current track, pending untouched
//  3. otherwise the pending head is popped; loop-queue re-appends it to the tail
//  4. empty pending returns nil and unsets current
func (q *Queue) Advance() *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current != nil {
		q.pushHistory(q.current)
	}

	if q.loopMode == LoopSong && q.current != nil {
		return q.current
	}

	if len(q.pending) > 0 {
		track := q.pending[0]
		q.pending = q.pending[1:]
		if q.loopMode == LoopQueue {
			q.pending = append(q.pending, track)
		}
		q.current = track
		return track
	}

	q.current = nil
	return nil
}

// pushHistory appends with bounded eviction; caller holds the lock
func (q *Queue) pushHistory(track *Track) {
	q.history = append(q.history, track)
	if len(q.history) > maxHistory {
		q.history = q.history[len(q.history)-maxHistory:]
	}
}

// Current returns the currently playing track
func (q *Queue) Current() *Track {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current
}

// SetCurrent replaces the current track without touching pending or history.
// Used when Auto DJ injects a track that never sat in pending.
func (q *Queue) SetCurrent(track *Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = track
}

// Shuffle randomizes the pending order in place. Current and history are
// untouched; shuffling zero or one pending tracks is a no-op.
func (q *Queue) Shuffle() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) <= 1 {
		return
	}

	for i := len(q.pending) - 1; i > 0; i-- {
		j := rand.Intn(i + 1)
		q.pending[i], q.pending[j] = q.pending[j], q.pending[i]
	}
}

// Clear empties pending and unsets current. History survives so Auto DJ can
// still avoid recent repeats.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending = make([]*Track, 0)
	q.current = nil
}

// Remove removes the pending track at position (1-indexed)
func (q *Queue) Remove(position int) *Track {
	q.mu.Lock()
	defer q.mu.Unlock()

	index := position - 1
	if index < 0 || index >= len(q.pending) {
		return nil
	}

	track := q.pending[index]
	q.pending = append(q.pending[:index], q.pending[index+1:]...)
	return track
}

// Move relocates a pending track between 1-indexed positions
func (q *Queue) Move(from, to int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	fromIdx, toIdx := from-1, to-1
	if fromIdx < 0 || fromIdx >= len(q.pending) || toIdx < 0 || toIdx >= len(q.pending) {
		return false
	}

	track := q.pending[fromIdx]
	q.pending = append(q.pending[:fromIdx], q.pending[fromIdx+1:]...)
	rest := append([]*Track{track}, q.pending[toIdx:]...)
	q.pending = append(q.pending[:toIdx:toIdx], rest...)
	return true
}

// Pending returns a copy of the pending tracks
func (q *Queue) Pending() []*Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	pending := make([]*Track, len(q.pending))
	copy(pending, q.pending)
	return pending
}

// Size returns the number of pending tracks
func (q *Queue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.pending)
}

// History returns a copy of the play history, oldest first
func (q *Queue) History() []*Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	history := make([]*Track, len(q.history))
	copy(history, q.history)
	return history
}

// RecentURLs returns the canonical URLs of the last n history entries,
// newest last. Auto DJ uses this to avoid repeats.
func (q *Queue) RecentURLs(n int) []string {
	q.mu.RLock()
	defer q.mu.RUnlock()

	start := len(q.history) - n
	if start < 0 {
		start = 0
	}

	urls := make([]string, 0, len(q.history)-start)
	for _, track := range q.history[start:] {
		urls = append(urls, track.SourceURL)
	}
	return urls
}

// LastPlayed returns the most recent history entry, nil when none
func (q *Queue) LastPlayed() *Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.history) == 0 {
		return nil
	}
	return q.history[len(q.history)-1]
}

// SetLoopMode sets the loop mode
func (q *Queue) SetLoopMode(mode LoopMode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.loopMode = mode
}

// GetLoopMode returns the current loop mode
func (q *Queue) GetLoopMode() LoopMode {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.loopMode
}

// SetShuffleEnabled toggles the shuffle flag
func (q *Queue) SetShuffleEnabled(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.shuffleEnabled = enabled
}

// IsShuffleEnabled returns whether shuffle is enabled
func (q *Queue) IsShuffleEnabled() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.shuffleEnabled
}

// SetContinuousPlay toggles Auto DJ 24/7 mode
func (q *Queue) SetContinuousPlay(enabled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.continuousPlay = enabled
}

// IsContinuousPlay returns whether Auto DJ 24/7 mode is enabled
func (q *Queue) IsContinuousPlay() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.continuousPlay
}

// SetVolume sets the volume percent, clamped to 0-200
func (q *Queue) SetVolume(percent int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if percent < 0 {
		percent = 0
	}
	if percent > 200 {
		percent = 200
	}
	q.volumePercent = percent
}

// Volume returns the volume percent
func (q *Queue) Volume() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.volumePercent
}

// Stats summarizes the pending tracks per source and total duration
func (q *Queue) Stats() QueueStats {
	q.mu.RLock()
	defer q.mu.RUnlock()

	stats := QueueStats{
		TotalTracks: len(q.pending),
		BySource:    make(map[valueobjects.Source]int),
	}
	for _, track := range q.pending {
		stats.BySource[track.Source]++
		if track.Metadata != nil {
			stats.TotalDurationSeconds += track.Metadata.DurationSeconds
		}
	}
	return stats
}

// QueueStats describes the pending contents of a queue
type QueueStats struct {
	TotalTracks          int
	TotalDurationSeconds int
	BySource             map[valueobjects.Source]int
}
