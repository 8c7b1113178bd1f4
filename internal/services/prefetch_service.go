package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"soundwave/internal/domain/entities"
	"soundwave/pkg/logger"
)

var (
	// ErrPrefetchStopped is returned when the service is stopped
	ErrPrefetchStopped = errors.New("prefetch service stopped")
	// ErrPrefetchQueueFull is returned when the task queue is full
	ErrPrefetchQueueFull = errors.New("prefetch queue is full")
)

// streamExpiry is how old a stream handle may be before re-extraction
const streamExpiry = 4 * time.Hour

// StreamResolver extracts a fresh stream URL for a track
type StreamResolver interface {
	StreamURL(track *entities.Track) (string, error)
}

// PrefetchStats tracks prefetch statistics
type PrefetchStats struct {
	Warmed  int64
	Failed  int64
	Pending int64
}

// PrefetchService warms stream handles ahead of playback with a small
// worker pool, so the encoder never waits on yt-dlp extraction for a track
// the queue already knows is next.
type PrefetchService struct {
	resolver StreamResolver
	logger   *logger.Logger
	queue    chan *entities.Track
	workers  int
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	inFlight map[string]bool // track ID -> queued or being warmed
	stats    PrefetchStats
	mu       sync.RWMutex
}

// NewPrefetchService creates a prefetch service
func NewPrefetchService(resolver StreamResolver, workers int, queueSize int, log *logger.Logger) *PrefetchService {
	ctx, cancel := context.WithCancel(context.Background())

	return &PrefetchService{
		resolver: resolver,
		logger:   log,
		queue:    make(chan *entities.Track, queueSize),
		workers:  workers,
		ctx:      ctx,
		cancel:   cancel,
		inFlight: make(map[string]bool),
	}
}

// Start starts the worker pool
func (s *PrefetchService) Start() {
	s.logger.WithField("workers", s.workers).Info("Starting prefetch service...")

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.logger.Info("✅ Prefetch service started")
}

// Stop stops the worker pool gracefully
func (s *PrefetchService) Stop() {
	s.logger.Info("Stopping prefetch service...")
	s.cancel()
	close(s.queue)
	s.wg.Wait()
	s.logger.Info("✅ Prefetch service stopped")
}

// Warm queues a track for stream handle extraction. Tracks with a fresh
// handle and duplicates already in flight are skipped silently; a full
// queue drops the request, playback re-extracts on demand anyway.
func (s *PrefetchService) Warm(track *entities.Track) {
	if track == nil || !track.IsStreamExpired(streamExpiry) {
		return
	}

	s.mu.Lock()
	if s.inFlight[track.ID] {
		s.mu.Unlock()
		return
	}
	s.inFlight[track.ID] = true
	s.mu.Unlock()

	select {
	case s.queue <- track:
		s.mu.Lock()
		s.stats.Pending++
		s.mu.Unlock()
		s.logger.WithField("track", track.DisplayName()).Debug("Track queued for prefetch")
	case <-s.ctx.Done():
		s.mu.Lock()
		delete(s.inFlight, track.ID)
		s.mu.Unlock()
	default:
		s.mu.Lock()
		delete(s.inFlight, track.ID)
		s.mu.Unlock()
		s.logger.WithFields(map[string]interface{}{
			"track":      track.DisplayName(),
			"queue_size": len(s.queue),
		}).Warn("Prefetch queue full, skipping")
	}
}

// worker warms tracks from the queue
func (s *PrefetchService) worker(id int) {
	defer s.wg.Done()

	s.logger.WithField("worker_id", id).Debug("Prefetch worker started")

	for {
		select {
		case track, ok := <-s.queue:
			if !ok {
				s.logger.WithField("worker_id", id).Debug("Prefetch worker stopping - queue closed")
				return
			}
			s.warmTrack(track, id)

		case <-s.ctx.Done():
			s.logger.WithField("worker_id", id).Debug("Prefetch worker stopping - context cancelled")
			return
		}
	}
}

func (s *PrefetchService) warmTrack(track *entities.Track, workerID int) {
	defer func() {
		s.mu.Lock()
		delete(s.inFlight, track.ID)
		s.stats.Pending--
		s.mu.Unlock()
	}()

	s.logger.WithFields(map[string]interface{}{
		"worker_id": workerID,
		"track":     track.DisplayName(),
	}).Debug("Warming stream handle...")

	if _, err := s.resolver.StreamURL(track); err != nil {
		s.logger.WithError(err).WithField("track", track.DisplayName()).Warn("Prefetch failed")
		s.updateStats(false)
		return
	}

	s.updateStats(true)
}

func (s *PrefetchService) updateStats(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if success {
		s.stats.Warmed++
	} else {
		s.stats.Failed++
	}
}

// GetStats returns prefetch statistics
func (s *PrefetchService) GetStats() PrefetchStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// QueueSize returns current queue size
func (s *PrefetchService) QueueSize() int {
	return len(s.queue)
}
