package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/domain/valueobjects"
)

// handleMusic routes the /music subcommands
func (h *Handler) handleMusic(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(s, i, "Missing subcommand")
	}

	switch options[0].Name {
	case "status":
		return h.handleMusicStatus(s, i)
	case "switch":
		return h.handleMusicSwitch(s, i, options[0].Options)
	default:
		return respondError(s, i, "Unknown subcommand")
	}
}

// handleMusicStatus shows which source owns the guild's music right now
func (h *Handler) handleMusicStatus(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	state := h.arbiter.State(i.GuildID)

	embed := NewEmbed().
		Title("🎛️ Music Status").
		Color(ColorInfo)

	if state.ActiveSource == nil {
		embed.Description("No source is controlling music in this server")
		return respondEmbed(s, i, embed.Build())
	}

	source := *state.ActiveSource
	status := "⏸️ Paused"
	if state.IsPlaying {
		status = "▶️ Playing"
	}

	embed.Field("Active Source", fmt.Sprintf("%s %s", source.Emoji(), source.DisplayName()), true)
	embed.Field("Status", status, true)
	embed.Field("Volume", fmt.Sprintf("%d%%", state.VolumePercent), true)

	if state.CurrentTrack != nil {
		embed.Field("Current Track", state.CurrentTrack.Title, false)
	}
	embed.Field("Queue Size", fmt.Sprintf("%d tracks", state.QueueSize), true)

	return respondEmbed(s, i, embed.Build())
}

// handleMusicSwitch hands control to another source, stopping whatever is
// active and clearing every other source's queue
func (h *Handler) handleMusicSwitch(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	if len(options) == 0 {
		return respondError(s, i, "Missing source")
	}

	source := valueobjects.Source(options[0].StringValue())
	if !source.IsValid() {
		return respondError(s, i, "Unknown source")
	}

	current := h.arbiter.ActiveSource(i.GuildID)
	if current != nil && *current == source {
		return respondInfo(s, i, fmt.Sprintf("%s %s already controls music", source.Emoji(), source.DisplayName()))
	}

	h.arbiter.ForceSwitch(i.GuildID, source)

	h.logger.WithFields(map[string]interface{}{
		"guild":  i.GuildID,
		"source": source,
	}).Info("🔀 Music source switched")

	return respondSuccess(s, i, fmt.Sprintf("Switched music control to %s **%s**. Other queues were cleared", source.Emoji(), source.DisplayName()))
}
