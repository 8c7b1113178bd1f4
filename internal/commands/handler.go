package commands

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/config"
	"soundwave/internal/database"
	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	"soundwave/internal/services"
	"soundwave/internal/services/arbiter"
	"soundwave/internal/services/audio"
	"soundwave/internal/services/resolver"
	"soundwave/pkg/logger"
)

// TopPlayFetcher returns a guild's most played tracks for the stats view
type TopPlayFetcher func(guildID string, limit int) ([]database.PlayStatRow, error)

// pendingPlay remembers a play request blocked by a source conflict so the
// conflict buttons can finish it
type pendingPlay struct {
	Query     string
	Source    valueobjects.Source
	ChannelID string
	UserID    string
}

// Handler manages all bot commands
type Handler struct {
	session  *discordgo.Session
	playback *services.PlaybackService
	playlist *services.PlaylistService
	resolver *resolver.Resolver
	audio    *audio.AudioService
	arbiter  *arbiter.Arbiter
	autoDJ   *services.AutoDJ
	registry *entities.QueueRegistry
	logger   *logger.Logger
	config   *config.Config

	topPlays TopPlayFetcher // nil without a database

	pending   map[string]*pendingPlay // guildID -> blocked request
	pendingMu sync.Mutex

	announceChannels map[string]string // guildID -> last command text channel
	announceMu       sync.RWMutex
}

// NewHandler creates a new command handler
func NewHandler(
	session *discordgo.Session,
	playback *services.PlaybackService,
	playlist *services.PlaylistService,
	trackResolver *resolver.Resolver,
	audioService *audio.AudioService,
	arb *arbiter.Arbiter,
	autoDJ *services.AutoDJ,
	registry *entities.QueueRegistry,
	log *logger.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		session:  session,
		playback: playback,
		playlist: playlist,
		resolver: trackResolver,
		audio:    audioService,
		arbiter:  arb,
		autoDJ:   autoDJ,
		registry: registry,
		logger:   log,
		config:   cfg,
		pending:  make(map[string]*pendingPlay),

		announceChannels: make(map[string]string),
	}
}

// SetTopPlayFetcher wires the play-history lookup used by /stats. Without
// it the stats embed simply omits the most-played section.
func (h *Handler) SetTopPlayFetcher(fn TopPlayFetcher) {
	h.topPlays = fn
}

// RegisterCommands registers all slash commands with Discord
func (h *Handler) RegisterCommands() error {
	commands := GetCommands()

	_, err := h.session.ApplicationCommandBulkOverwrite(h.session.State.User.ID, "", commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	h.logger.WithField("count", len(commands)).Info("✅ All commands registered")
	return nil
}

// HandleInteraction routes incoming interactions to appropriate handlers
func (h *Handler) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			h.logger.WithField("panic", r).Error("Recovered from panic in command handler")
			_ = respondError(s, i, "An internal error occurred")
		}
	}()

	if i.Type == discordgo.InteractionMessageComponent {
		h.handleButtonInteraction(s, i)
		return
	}

	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()

	// Remember where to post now-playing announcements for this guild
	if i.GuildID != "" && i.ChannelID != "" {
		h.announceMu.Lock()
		h.announceChannels[i.GuildID] = i.ChannelID
		h.announceMu.Unlock()
	}

	h.logger.WithFields(map[string]interface{}{
		"command": data.Name,
		"guild":   i.GuildID,
		"user":    i.Member.User.Username,
	}).Info("Command received")

	var err error
	switch data.Name {
	// Playback commands
	case "play":
		err = h.handlePlay(s, i, valueobjects.SourceYouTube)
	case "scplay":
		err = h.handlePlay(s, i, valueobjects.SourceSoundCloud)
	case "mplay":
		err = h.handleUniversalPlay(s, i)
	case "pause":
		err = h.handlePause(s, i)
	case "resume":
		err = h.handleResume(s, i)
	case "skip":
		err = h.handleSkip(s, i)
	case "stop":
		err = h.handleStop(s, i)
	case "volume":
		err = h.handleVolume(s, i)
	case "autodj":
		err = h.handleAutoDJ(s, i)

	// Queue commands
	case "queue":
		err = h.handleQueue(s, i)
	case "nowplaying":
		err = h.handleNowPlaying(s, i)
	case "shuffle":
		err = h.handleShuffle(s, i)
	case "loop":
		err = h.handleLoop(s, i)
	case "clear":
		err = h.handleClear(s, i)
	case "remove":
		err = h.handleRemove(s, i)
	case "move":
		err = h.handleMove(s, i)
	case "history":
		err = h.handleHistory(s, i)

	// Music manager commands
	case "music":
		err = h.handleMusic(s, i)

	// Playlist commands
	case "playlist":
		err = h.handlePlaylistSubcommand(s, i)

	// Utility commands
	case "join":
		err = h.handleJoin(s, i)
	case "leave":
		err = h.handleLeave(s, i)
	case "stats":
		err = h.handleStats(s, i)
	case "help":
		err = h.handleHelp(s, i)

	default:
		err = respondError(s, i, "Unknown command")
	}

	if err != nil {
		h.logger.WithError(err).WithField("command", data.Name).Error("Command handler failed")
	}
}

// activeSource returns the source currently controlling the guild's music,
// defaulting to YouTube when nothing is active
func (h *Handler) activeSource(guildID string) valueobjects.Source {
	if source := h.arbiter.ActiveSource(guildID); source != nil {
		return *source
	}
	return valueobjects.SourceYouTube
}

// activeQueue returns the active source's queue for the guild
func (h *Handler) activeQueue(guildID string) *entities.Queue {
	return h.registry.Get(guildID, h.activeSource(guildID))
}

// getUserVoiceChannel gets the user's current voice channel
func (h *Handler) getUserVoiceChannel(s *discordgo.Session, guildID, userID string) (string, error) {
	guild, err := s.State.Guild(guildID)
	if err != nil {
		return "", err
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID {
			return vs.ChannelID, nil
		}
	}

	return "", fmt.Errorf("user not in voice channel")
}

// AnnounceChannel returns the text channel the guild last used a command in,
// or empty when the guild has not run a command yet
func (h *Handler) AnnounceChannel(guildID string) string {
	h.announceMu.RLock()
	defer h.announceMu.RUnlock()
	return h.announceChannels[guildID]
}

func (h *Handler) setPending(guildID string, request *pendingPlay) {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	h.pending[guildID] = request
}

func (h *Handler) takePending(guildID string) *pendingPlay {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	request := h.pending[guildID]
	delete(h.pending, guildID)
	return request
}
