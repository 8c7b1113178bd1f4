package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/commands"
	"soundwave/internal/config"
	"soundwave/internal/database"
	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/repositories"
	"soundwave/internal/domain/valueobjects"
	"soundwave/internal/infrastructure/persistence"
	"soundwave/internal/services"
	"soundwave/internal/services/arbiter"
	"soundwave/internal/services/audio"
	"soundwave/internal/services/resolver"
	"soundwave/pkg/logger"
)

// MusicBot wires the resolver, queues, arbiter, and playback driver into a
// running Discord bot
type MusicBot struct {
	config          *config.Config
	logger          *logger.Logger
	session         *discordgo.Session
	db              *database.DB
	registry        *entities.QueueRegistry
	trackResolver   *resolver.Resolver
	arbiter         *arbiter.Arbiter
	autoDJ          *services.AutoDJ
	audioService    *audio.AudioService
	prefetchService *services.PrefetchService
	playbackService *services.PlaybackService
	playlistService *services.PlaylistService
	cmdHandler      *commands.Handler
}

// New creates a new MusicBot instance
func New(cfg *config.Config, log *logger.Logger) (*MusicBot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Setup intents
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	session.StateEnabled = true

	// Initialize database if configured
	var db *database.DB
	if cfg.UseDatabase {
		ctx := context.Background()
		dbCfg := database.DefaultConfig(cfg.DatabaseURL)
		db, err = database.Connect(ctx, dbCfg, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		if err := db.RunMigrations(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	// Initialize track resolver
	trackResolver, err := resolver.New(log, cfg.CacheSize, time.Duration(cfg.CacheTTLMinutes)*time.Minute)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("failed to create track resolver: %w", err)
	}

	registry := entities.NewQueueRegistry()
	registry.SetDefaultVolume(cfg.DefaultVolume)
	arb := arbiter.New(log)
	autoDJ := services.NewAutoDJ(trackResolver, cfg.AutoDJDefault, log)

	// Initialize audio service
	audioService := audio.NewAudioService(session, log)

	// Initialize playback driver
	playbackService := services.NewPlaybackService(registry, audioService, arb, autoDJ, log)
	if !cfg.StayConnected247 && cfg.IdleTimeoutMin > 0 {
		playbackService.SetIdleTimeout(time.Duration(cfg.IdleTimeoutMin) * time.Minute)
	}

	// Every queue slot answers to the arbiter so a force switch can stop it
	// and clear its queue
	for _, source := range valueobjects.AllSources() {
		arb.RegisterSource(source, playbackService.ControlFor(source))
	}

	// Initialize prefetch service with config values
	prefetchService := services.NewPrefetchService(trackResolver, cfg.WorkerCount, cfg.PrefetchQueueSize, log)
	playbackService.SetPrefetcher(prefetchService)

	// Initialize playlist storage (with or without database)
	var playlistRepo repositories.PlaylistRepository
	if cfg.UseDatabase && db != nil {
		playlistRepo = repositories.NewDatabasePlaylistRepository(db)
		log.Info("Using database for playlist storage")
	} else {
		playlistRepo, err = persistence.NewPlaylistRepository(cfg.PlaylistDir)
		if err != nil {
			if db != nil {
				db.Close()
			}
			return nil, fmt.Errorf("failed to create playlist storage: %w", err)
		}
		log.Info("Using file-based playlist storage")
	}
	playlistService := services.NewPlaylistService(playlistRepo, trackResolver, log)

	// Initialize command handler
	cmdHandler := commands.NewHandler(session, playbackService, playlistService, trackResolver, audioService, arb, autoDJ, registry, log, cfg)

	// With a database, every track start lands in play_history and /stats
	// can show the guild's most played tracks
	if db != nil {
		queries := db.Queries
		playbackService.SetPlayRecorder(func(guildID string, track *entities.Track) {
			recCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := queries.RecordPlay(recCtx, guildID, track.SourceURL, track.DisplayName()); err != nil {
				log.WithError(err).WithField("guild", guildID).Warning("Failed to record play")
			}
		})
		cmdHandler.SetTopPlayFetcher(func(guildID string, limit int) ([]database.PlayStatRow, error) {
			topCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return queries.TopPlays(topCtx, guildID, limit)
		})
	}

	// Now-playing and Auto-DJ notices go to the text channel the guild last
	// ran a command in
	playbackService.SetAnnouncer(func(guildID, message string) {
		channelID := cmdHandler.AnnounceChannel(guildID)
		if channelID == "" {
			return
		}
		if _, err := session.ChannelMessageSend(channelID, message); err != nil {
			log.WithError(err).WithField("guild", guildID).Warning("Failed to send announcement")
		}
	})

	bot := &MusicBot{
		config:          cfg,
		logger:          log,
		session:         session,
		db:              db,
		registry:        registry,
		trackResolver:   trackResolver,
		arbiter:         arb,
		autoDJ:          autoDJ,
		audioService:    audioService,
		prefetchService: prefetchService,
		playbackService: playbackService,
		playlistService: playlistService,
		cmdHandler:      cmdHandler,
	}

	// Register event handlers
	session.AddHandler(bot.onReady)
	session.AddHandler(cmdHandler.HandleInteraction)
	session.AddHandler(bot.onVoiceStateUpdate)

	return bot, nil
}

// Start starts the bot
func (b *MusicBot) Start(ctx context.Context) error {
	b.logger.Info("Starting services...")

	b.prefetchService.Start()

	b.logger.Info("Opening Discord connection...")
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	b.logger.Info("Registering slash commands...")
	if err := b.cmdHandler.RegisterCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	return nil
}

// Stop stops the bot gracefully
func (b *MusicBot) Stop() {
	b.logger.Info("Shutting down services...")

	b.playbackService.Shutdown()
	b.prefetchService.Stop()
	b.audioService.CleanupAll()

	if b.db != nil {
		b.db.Close()
	}

	b.logger.Info("Closing Discord connection...")
	if err := b.session.Close(); err != nil {
		b.logger.WithError(err).Error("Failed to close Discord session")
	}
}

// onReady is called when the bot is ready
func (b *MusicBot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.Infof("✅ Bot is ready! Logged in as %s#%s", event.User.Username, event.User.Discriminator)
	b.logger.Infof("📊 Connected to %d guilds", len(event.Guilds))
	b.logger.Infof("🔧 24/7 Mode: %v", b.config.StayConnected247)

	if err := s.UpdateGameStatus(0, "🎵 /play • /help"); err != nil {
		b.logger.WithError(err).Warn("Failed to update status")
	}
}

// onVoiceStateUpdate auto-disconnects when the bot's voice channel empties
// out, unless 24/7 mode keeps it around
func (b *MusicBot) onVoiceStateUpdate(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if b.config.StayConnected247 {
		return
	}

	// Skip if the event is about the bot itself
	if event.UserID == s.State.User.ID {
		return
	}

	guildID := event.GuildID

	botChannelID := b.audioService.GetVoiceChannelID(guildID)
	if botChannelID == "" {
		return
	}

	// BeforeUpdate is nil when a user joins rather than leaves
	if event.BeforeUpdate == nil {
		return
	}

	// Only care if the user was in the bot's channel before
	if event.BeforeUpdate.ChannelID != botChannelID {
		return
	}

	// Count non-bot users still in the channel
	guild, err := s.State.Guild(guildID)
	if err != nil {
		b.logger.WithError(err).Warn("Failed to get guild state")
		return
	}

	userCount := 0
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == botChannelID && vs.UserID != s.State.User.ID {
			member, err := s.GuildMember(guildID, vs.UserID)
			if err != nil {
				continue
			}
			if member.User != nil && !member.User.Bot {
				userCount++
			}
		}
	}

	if userCount == 0 {
		b.logger.WithFields(map[string]interface{}{
			"guild":   guildID,
			"channel": botChannelID,
		}).Info("No users in voice channel, disconnecting...")

		// Cleanup also stops playback and releases arbiter control
		b.playbackService.Cleanup(guildID)
	}
}
