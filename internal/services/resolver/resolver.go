package resolver

import (
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	"soundwave/internal/utils"
	"soundwave/internal/validation"
	"soundwave/pkg/logger"
)

var (
	// ErrYtDlpNotFound is returned when yt-dlp is not installed
	ErrYtDlpNotFound = errors.New("yt-dlp not found in PATH")
)

// PlaylistCap bounds how many entries a playlist expansion may enqueue
const PlaylistCap = 50

// Reason classifies why a resolution failed
type Reason string

const (
	// ReasonNotFound means the backend returned zero results
	ReasonNotFound Reason = "not_found"
	// ReasonUnavailable means the backend or network failed
	ReasonUnavailable Reason = "unavailable"
)

// ResolutionError is returned when a search term or URL cannot be resolved.
// The resolver never retries; any retry is the caller's policy.
type ResolutionError struct {
	Reason Reason
	Input  string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolution failed (%s) for %q: %v", e.Reason, e.Input, e.Err)
	}
	return fmt.Sprintf("resolution failed (%s) for %q", e.Reason, e.Input)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a zero-results resolution error
func IsNotFound(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr) && resErr.Reason == ReasonNotFound
}

// trackInfo mirrors the JSON fields yt-dlp dumps per entry
type trackInfo struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Duration   int    `json:"duration"`
	Uploader   string `json:"uploader"`
	Thumbnail  string `json:"thumbnail"`
	WebpageURL string `json:"webpage_url"`
	URL        string `json:"url,omitempty"`
	Type       string `json:"_type,omitempty"`
}

// canonicalURL prefers the webpage URL; flat playlist entries only carry url
func (info *trackInfo) canonicalURL() string {
	if info.WebpageURL != "" {
		return info.WebpageURL
	}
	return info.URL
}

// Resolver turns a search term or URL into playable tracks by shelling out
// to yt-dlp. It has no queue awareness and performs no retries.
type Resolver struct {
	cache     *utils.SmartCache
	logger    *logger.Logger
	ytDlpPath string
}

// New creates a resolver, verifying yt-dlp is installed. Stream URLs expire
// server-side, so keep cacheTTL short.
func New(log *logger.Logger, cacheSize int, cacheTTL time.Duration) (*Resolver, error) {
	ytDlpPath, err := exec.LookPath("yt-dlp")
	if err != nil {
		return nil, fmt.Errorf("%w: please install yt-dlp", ErrYtDlpNotFound)
	}

	cache := utils.NewSmartCache(cacheSize, cacheTTL)

	log.WithField("ytdlp_path", ytDlpPath).Info("Track resolver initialized")

	return &Resolver{
		cache:     cache,
		logger:    log,
		ytDlpPath: ytDlpPath,
	}, nil
}

// Resolve resolves a search term or URL for the given source into a single
// track. Multi-result responses (searches) collapse to the first entry.
// Metadata is cached per (source, input) so repeated plays and playlist
// loads skip the subprocess; each hit still yields a fresh Track.
func (r *Resolver) Resolve(input string, source valueobjects.Source, addedBy string) (*entities.Track, error) {
	cacheKey := resolveCacheKey(input, source)
	if cached, ok := r.cache.Get(cacheKey); ok {
		info := cached.(trackInfo)
		return r.toTrack(&info, source, addedBy), nil
	}

	target := input
	if !validation.IsURL(input) {
		target = searchTarget(input, source, 1)
	}

	infos, err := r.dumpJSON(target, "--no-playlist")
	if err != nil {
		return nil, &ResolutionError{Reason: ReasonUnavailable, Input: input, Err: err}
	}
	if len(infos) == 0 {
		return nil, &ResolutionError{Reason: ReasonNotFound, Input: input}
	}

	r.cache.Set(cacheKey, infos[0])
	return r.toTrack(&infos[0], source, addedBy), nil
}

func resolveCacheKey(input string, source valueobjects.Source) string {
	return "resolve:" + string(source) + ":" + input
}

// ResolvePlaylist expands a playlist URL into its entries, capped at
// PlaylistCap to bound enqueue cost.
func (r *Resolver) ResolvePlaylist(url string, source valueobjects.Source, addedBy string) ([]*entities.Track, error) {
	infos, err := r.dumpJSON(url, "--flat-playlist", "--playlist-end", fmt.Sprintf("%d", PlaylistCap))
	if err != nil {
		return nil, &ResolutionError{Reason: ReasonUnavailable, Input: url, Err: err}
	}
	if len(infos) == 0 {
		return nil, &ResolutionError{Reason: ReasonNotFound, Input: url}
	}

	if len(infos) > PlaylistCap {
		infos = infos[:PlaylistCap]
	}

	tracks := make([]*entities.Track, 0, len(infos))
	for i := range infos {
		tracks = append(tracks, r.toTrack(&infos[i], source, addedBy))
	}

	r.logger.WithFields(map[string]interface{}{
		"url":   url,
		"count": len(tracks),
	}).Info("Playlist expanded")

	return tracks, nil
}

// StreamURL resolves the best-audio stream URL for a track, refreshing the
// handle when the cached one has expired.
func (r *Resolver) StreamURL(track *entities.Track) (string, error) {
	if url := track.GetStreamURL(); url != "" && !track.IsStreamExpired(5*time.Minute) {
		return url, nil
	}

	cacheKey := "stream:" + track.SourceURL
	if cached, ok := r.cache.Get(cacheKey); ok {
		url := cached.(string)
		track.SetStreamHandle(url)
		return url, nil
	}

	args := []string{
		"--get-url",
		"--format", "bestaudio/best",
		"--no-playlist",
		"--no-check-certificate",
		"--geo-bypass",
		track.SourceURL,
	}

	output, err := exec.Command(r.ytDlpPath, args...).CombinedOutput()
	if err != nil {
		r.logger.WithError(err).WithField("url", track.SourceURL).Error("Failed to get stream URL")
		return "", &ResolutionError{Reason: ReasonUnavailable, Input: track.SourceURL, Err: err}
	}

	streamURL := strings.TrimSpace(string(output))
	if streamURL == "" {
		return "", &ResolutionError{Reason: ReasonNotFound, Input: track.SourceURL}
	}

	r.cache.Set(cacheKey, streamURL)
	track.SetStreamHandle(streamURL)
	return streamURL, nil
}

// dumpJSON runs yt-dlp --dump-json and parses one JSON object per line
func (r *Resolver) dumpJSON(target string, extraArgs ...string) ([]trackInfo, error) {
	args := []string{
		"--dump-json",
		"--no-check-certificate",
		"--geo-bypass",
	}
	args = append(args, extraArgs...)
	args = append(args, target)

	output, err := exec.Command(r.ytDlpPath, args...).CombinedOutput()
	if err != nil {
		r.logger.WithError(err).WithField("target", target).Error("yt-dlp extraction failed")
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}

	var infos []trackInfo
	for _, line := range strings.Split(string(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var info trackInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			r.logger.WithError(err).Warn("Failed to parse yt-dlp entry")
			continue
		}
		infos = append(infos, info)
	}

	return infos, nil
}

// toTrack normalizes a yt-dlp entry into a Track
func (r *Resolver) toTrack(info *trackInfo, source valueobjects.Source, addedBy string) *entities.Track {
	metadata := &valueobjects.TrackMetadata{
		Title:           info.Title,
		Uploader:        info.Uploader,
		DurationSeconds: info.Duration,
		ThumbnailURL:    info.Thumbnail,
	}
	return entities.NewTrack(info.canonicalURL(), source, metadata, addedBy)
}

// searchTarget builds the yt-dlp search expression for a non-URL input
func searchTarget(query string, source valueobjects.Source, limit int) string {
	switch source {
	case valueobjects.SourceSoundCloud:
		return fmt.Sprintf("scsearch%d:%s", limit, query)
	default:
		return fmt.Sprintf("ytsearch%d:%s", limit, query)
	}
}

// CacheStats returns cache statistics
func (r *Resolver) CacheStats() (hits, misses, evictions int64, size int) {
	return r.cache.Stats()
}

// ClearCache clears the resolution cache
func (r *Resolver) ClearCache() {
	r.cache.Clear()
	r.logger.Info("Resolver cache cleared")
}
