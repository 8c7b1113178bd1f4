package valueobjects

// Source identifies which media backend a track (or queue) belongs to.
// Universal is not a real backend: it tags the mixed queue that may hold
// tracks from either concrete source.
type Source string

const (
	SourceYouTube    Source = "youtube"
	SourceSoundCloud Source = "soundcloud"
	SourceUniversal  Source = "universal"
)

// String returns the string representation
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is one the arbiter knows about
func (s Source) IsValid() bool {
	switch s {
	case SourceYouTube, SourceSoundCloud, SourceUniversal:
		return true
	}
	return false
}

// IsConcrete reports whether the source is a real media backend a track can
// originate from.
func (s Source) IsConcrete() bool {
	return s == SourceYouTube || s == SourceSoundCloud
}

// Emoji returns the display emoji used in queue listings
func (s Source) Emoji() string {
	switch s {
	case SourceYouTube:
		return "🔴"
	case SourceSoundCloud:
		return "🟠"
	default:
		return "🎵"
	}
}

// DisplayName returns the human readable name used in embeds
func (s Source) DisplayName() string {
	switch s {
	case SourceYouTube:
		return "YouTube"
	case SourceSoundCloud:
		return "SoundCloud"
	case SourceUniversal:
		return "Universal"
	}
	return string(s)
}

// ConcreteSources lists the real media backends in clearing order.
func ConcreteSources() []Source {
	return []Source{SourceYouTube, SourceSoundCloud}
}

// AllSources lists every queue slot, the two backends plus the universal
// mixed queue.
func AllSources() []Source {
	return []Source{SourceYouTube, SourceSoundCloud, SourceUniversal}
}
