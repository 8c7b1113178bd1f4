package commands

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/domain/entities"
)

// handleQueue handles the queue command
func (h *Handler) handleQueue(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	queue := h.activeQueue(i.GuildID)

	page := 1
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	embed, components := h.buildQueuePage(queue, page)
	if components == nil {
		return respondEmbed(s, i, embed)
	}
	return respondEmbedWithButtons(s, i, embed, components)
}

// handleNowPlaying handles the nowplaying command
func (h *Handler) handleNowPlaying(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	track := h.playback.NowPlaying(i.GuildID)
	if track == nil {
		return respondError(s, i, "Nothing is playing right now")
	}

	queue := h.activeQueue(i.GuildID)
	state := h.arbiter.State(i.GuildID)

	status := "▶️ Playing"
	if !state.IsPlaying {
		status = "⏸️ Paused"
	}

	builder := NewEmbed().
		Title("🎵 Now Playing").
		Description(fmt.Sprintf("**%s**", track.DisplayName())).
		Color(ColorPrimary).
		Field("Status", status, true).
		Field("Duration", track.DurationFormatted(), true).
		Field("Source", fmt.Sprintf("%s %s", track.Source.Emoji(), track.Source), true).
		Field("Uploader", track.Uploader(), true).
		Field("Loop", string(queue.GetLoopMode()), true).
		Field("Volume", fmt.Sprintf("%d%%", queue.Volume()), true).
		Footer(fmt.Sprintf("%d tracks in queue", queue.Size()))

	if track.Metadata != nil {
		builder.Thumbnail(track.Metadata.ThumbnailURL)
	}

	return respondEmbed(s, i, builder.Build())
}

// handleShuffle handles the shuffle command
func (h *Handler) handleShuffle(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	queue := h.activeQueue(i.GuildID)

	if queue.Size() < 2 {
		return respondError(s, i, "Need at least 2 pending tracks to shuffle")
	}

	queue.Shuffle()

	embed := NewEmbed().
		Title("🔀 Queue Shuffled").
		Description(fmt.Sprintf("Shuffled **%d** pending tracks", queue.Size())).
		Color(ColorSuccess).
		Build()

	return respondEmbed(s, i, embed)
}

// handleLoop handles the loop command
func (h *Handler) handleLoop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	mode := i.ApplicationCommandData().Options[0].StringValue()
	queue := h.activeQueue(i.GuildID)

	var loopMode entities.LoopMode
	var description string
	switch mode {
	case "song":
		loopMode = entities.LoopSong
		description = "🔂 Looping the current track"
	case "queue":
		loopMode = entities.LoopQueue
		description = "🔁 Looping the entire queue"
	default:
		loopMode = entities.LoopOff
		description = "➡️ Loop disabled"
	}

	queue.SetLoopMode(loopMode)
	return respondInfo(s, i, description)
}

// handleClear handles the clear command
func (h *Handler) handleClear(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	queue := h.activeQueue(i.GuildID)
	cleared := queue.Size()
	queue.Clear()

	embed := NewEmbed().
		Title("🗑️ Queue Cleared").
		Description(fmt.Sprintf("Removed **%d** tracks. History is kept", cleared)).
		Color(ColorWarning).
		Build()

	return respondEmbed(s, i, embed)
}

// handleRemove handles the remove command
func (h *Handler) handleRemove(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	position := int(i.ApplicationCommandData().Options[0].IntValue())
	queue := h.activeQueue(i.GuildID)

	removed := queue.Remove(position)
	if removed == nil {
		return respondError(s, i, fmt.Sprintf("No track at position %d (queue has %d)", position, queue.Size()))
	}

	return respondSuccess(s, i, fmt.Sprintf("Removed **%s** from the queue", removed.DisplayName()))
}

// handleMove handles the move command
func (h *Handler) handleMove(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	options := i.ApplicationCommandData().Options
	from := int(options[0].IntValue())
	to := int(options[1].IntValue())

	queue := h.activeQueue(i.GuildID)
	if !queue.Move(from, to) {
		return respondError(s, i, fmt.Sprintf("Invalid positions (queue has %d tracks)", queue.Size()))
	}

	return respondSuccess(s, i, fmt.Sprintf("Moved track from #%d to #%d", from, to))
}

// handleHistory handles the history command
func (h *Handler) handleHistory(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	queue := h.activeQueue(i.GuildID)
	history := queue.History()

	if len(history) == 0 {
		return respondError(s, i, "No playback history yet")
	}

	// Newest first, capped at 15 lines
	var description string
	shown := 0
	for idx := len(history) - 1; idx >= 0 && shown < 15; idx-- {
		track := history[idx]
		description += fmt.Sprintf("`%2d.` %s **%s** [%s]\n",
			shown+1, track.Source.Emoji(), track.DisplayName(), track.DurationFormatted())
		shown++
	}

	embed := NewEmbed().
		Title("📜 Recently Played").
		Description(description).
		Color(ColorInfo).
		Footer(fmt.Sprintf("%d tracks in history", len(history))).
		Build()

	return respondEmbed(s, i, embed)
}
