package entities

import (
	"sync"

	"soundwave/internal/domain/valueobjects"
)

// QueueRegistry owns every queue in the process, keyed by guild and source
// slot. It replaces the per-cog guild dictionaries of earlier designs: one
// injected service instead of ambient globals.
type QueueRegistry struct {
	queues        map[string]map[valueobjects.Source]*Queue
	defaultVolume int
	mu            sync.RWMutex
}

// NewQueueRegistry creates an empty registry
func NewQueueRegistry() *QueueRegistry {
	return &QueueRegistry{
		queues: make(map[string]map[valueobjects.Source]*Queue),
	}
}

// SetDefaultVolume sets the starting volume for queues created from now on.
// Zero leaves the queue's own default in place.
func (r *QueueRegistry) SetDefaultVolume(level int) {
	r.mu.Lock()
	r.defaultVolume = level
	r.mu.Unlock()
}

// Get returns the queue for a guild and source slot, creating it lazily
func (r *QueueRegistry) Get(guildID string, source valueobjects.Source) *Queue {
	r.mu.RLock()
	if guild, ok := r.queues[guildID]; ok {
		if queue, ok := guild[source]; ok {
			r.mu.RUnlock()
			return queue
		}
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	guild, ok := r.queues[guildID]
	if !ok {
		guild = make(map[valueobjects.Source]*Queue)
		r.queues[guildID] = guild
	}
	if queue, ok := guild[source]; ok {
		return queue
	}

	queue := NewQueue(guildID, source)
	if r.defaultVolume > 0 {
		queue.SetVolume(r.defaultVolume)
	}
	guild[source] = queue
	return queue
}

// Peek returns the queue if it already exists, nil otherwise
func (r *QueueRegistry) Peek(guildID string, source valueobjects.Source) *Queue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if guild, ok := r.queues[guildID]; ok {
		return guild[source]
	}
	return nil
}

// ClearOthers empties every queue of the guild except the one belonging to
// keep. Used by the arbiter during a force-switch.
func (r *QueueRegistry) ClearOthers(guildID string, keep valueobjects.Source) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for source, queue := range r.queues[guildID] {
		if source != keep {
			queue.Clear()
		}
	}
}

// Guilds returns the IDs of every guild with at least one queue
func (r *QueueRegistry) Guilds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	guilds := make([]string, 0, len(r.queues))
	for guildID := range r.queues {
		guilds = append(guilds, guildID)
	}
	return guilds
}
