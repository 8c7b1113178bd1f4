package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/validation"
)

// handleJoin connects the bot to the caller's voice channel
func (h *Handler) handleJoin(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	channelID, err := h.getUserVoiceChannel(s, i.GuildID, i.Member.User.ID)
	if err != nil {
		return respondError(s, i, "You need to be in a voice channel first")
	}

	if err := h.audio.ConnectToChannel(i.GuildID, channelID); err != nil {
		h.logger.WithError(err).WithField("guild", i.GuildID).Error("Failed to join voice channel")
		return respondError(s, i, "Failed to join your voice channel")
	}

	return respondSuccess(s, i, "🔊 Joined your voice channel")
}

// handleLeave stops playback for the guild and disconnects
func (h *Handler) handleLeave(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if !h.audio.IsConnected(i.GuildID) {
		return respondError(s, i, "I'm not in a voice channel")
	}

	h.playback.Cleanup(i.GuildID)
	return respondSuccess(s, i, "👋 Left the voice channel")
}

// handleStats shows runtime statistics across all guilds
func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	audioStats := h.audio.GetStats()
	hits, misses, evictions, size := h.resolver.CacheStats()

	hitRate := 0.0
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	builder := NewEmbed().
		Title("📊 Bot Statistics").
		Color(ColorInfo).
		Field("Voice Connections", fmt.Sprintf("%v", audioStats["total_connections"]), true).
		Field("Active Players", fmt.Sprintf("%v", audioStats["active_players"]), true).
		Field("Guilds With Queues", fmt.Sprintf("%d", len(h.registry.Guilds())), true).
		Field("Resolver Cache", fmt.Sprintf("%d entries, %.1f%% hit rate", size, hitRate), true).
		Field("Cache Evictions", fmt.Sprintf("%d", evictions), true)

	if top := h.topPlaysField(i.GuildID); top != "" {
		builder = builder.Field("Most Played Here", top, false)
	}

	embed := builder.
		Footer(fmt.Sprintf("%s v%s", h.config.BotName, h.config.Version)).
		Build()

	return respondEmbed(s, i, embed)
}

// topPlaysField renders the guild's play-history leaderboard, empty when no
// database is wired or nothing has played yet
func (h *Handler) topPlaysField(guildID string) string {
	if h.topPlays == nil {
		return ""
	}

	plays, err := h.topPlays(guildID, 5)
	if err != nil {
		h.logger.WithError(err).WithField("guild", guildID).Warn("Failed to fetch top plays")
		return ""
	}
	if len(plays) == 0 {
		return ""
	}

	var sb strings.Builder
	for n, play := range plays {
		sb.WriteString(fmt.Sprintf("%d. %s (%d plays)\n", n+1, validation.TruncateString(play.Title, 40), play.PlayCount))
	}
	return sb.String()
}

// handleHelp lists every command grouped by what it does
func (h *Handler) handleHelp(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	var sb strings.Builder

	sb.WriteString("**Playback**\n")
	sb.WriteString("`/play` Play from YouTube • `/scplay` Play from SoundCloud • `/mplay` Play from any source\n")
	sb.WriteString("`/pause` `/resume` `/skip` `/stop` `/volume` `/autodj`\n\n")

	sb.WriteString("**Queue**\n")
	sb.WriteString("`/queue` Show the queue • `/nowplaying` Current track\n")
	sb.WriteString("`/shuffle` `/loop` `/clear` `/remove` `/move` `/history`\n\n")

	sb.WriteString("**Sources**\n")
	sb.WriteString("`/music status` Who controls music • `/music switch` Force a source switch\n\n")

	sb.WriteString("**Playlists**\n")
	sb.WriteString("`/playlist save` `/playlist load` `/playlist list` `/playlist show` `/playlist add` `/playlist delete`\n\n")

	sb.WriteString("**Other**\n")
	sb.WriteString("`/join` `/leave` `/stats` `/help`")

	embed := NewEmbed().
		Title(fmt.Sprintf("🎶 %s Commands", h.config.BotName)).
		Description(sb.String()).
		Color(ColorInfo).
		Build()

	return respondEmbed(s, i, embed)
}
