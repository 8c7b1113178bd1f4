package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	apperrors "soundwave/internal/errors"
)

// handleButtonInteraction routes message component interactions
func (h *Handler) handleButtonInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	h.logger.WithFields(map[string]interface{}{
		"button": customID,
		"guild":  i.GuildID,
	}).Debug("Button pressed")

	var err error
	switch {
	case customID == "music_switch":
		err = h.handleConflictSwitch(s, i)
	case customID == "music_pause":
		err = h.handleConflictPause(s, i)
	case customID == "music_cancel":
		err = h.handleConflictCancel(s, i)
	case strings.HasPrefix(customID, "queue:page:"):
		err = h.handleQueuePageButton(s, i, customID)
	case strings.HasPrefix(customID, "playlist:"):
		err = h.handlePlaylistPageButton(s, i, customID)
	}

	if err != nil {
		h.logger.WithError(err).WithField("button", customID).Error("Button handler failed")
	}
}

// handleConflictSwitch stops the active source, clears the other queues,
// and finishes the play request that hit the conflict
func (h *Handler) handleConflictSwitch(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	pending := h.takePending(i.GuildID)
	if pending == nil {
		return respondError(s, i, "That request expired. Run the command again")
	}

	if err := deferResponse(s, i); err != nil {
		return err
	}

	h.arbiter.ForceSwitch(i.GuildID, pending.Source)

	decision := h.arbiter.RequestControl(i.GuildID, pending.Source)
	if !decision.Granted {
		// Only possible if another switch raced this one
		return followUpError(s, i, apperrors.GetUserMessage(apperrors.ErrSourceConflict))
	}

	return h.resolveAndPlay(s, i, pending.Query, pending.Source, pending.ChannelID, pending.UserID)
}

// handleConflictPause pauses the active source. Control is not transferred;
// a paused source still owns the voice connection.
func (h *Handler) handleConflictPause(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	h.takePending(i.GuildID)

	if err := h.arbiter.PauseCurrent(i.GuildID); err != nil {
		return respondError(s, i, "Failed to pause the current source")
	}

	return respondInfo(s, i, "⏸️ Paused the current source. It still controls music; use **Switch & Play** to take over")
}

// handleConflictCancel drops the blocked request
func (h *Handler) handleConflictCancel(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	h.takePending(i.GuildID)
	return respondInfo(s, i, "Request cancelled")
}

// handleQueuePageButton re-renders the queue at the requested page
func (h *Handler) handleQueuePageButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) error {
	page, err := strconv.Atoi(strings.TrimPrefix(customID, "queue:page:"))
	if err != nil {
		return fmt.Errorf("bad page in %q: %w", customID, err)
	}

	embed, components := h.buildQueuePage(h.activeQueue(i.GuildID), page)
	return updateMessage(s, i, embed, components)
}

// handlePlaylistPageButton re-renders a playlist page. CustomID layout is
// playlist:<name>:page:<n>.
func (h *Handler) handlePlaylistPageButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) error {
	parts := strings.Split(customID, ":")
	if len(parts) != 4 || parts[2] != "page" {
		return nil
	}
	name := parts[1]
	page, err := strconv.Atoi(parts[3])
	if err != nil {
		return fmt.Errorf("bad page in %q: %w", customID, err)
	}

	playlist, err := h.playlist.Load(i.Member.User.ID, name)
	if err != nil {
		return respondError(s, i, "Playlist not found")
	}

	embed, components := buildPlaylistPage(playlist, page)
	return updateMessage(s, i, embed, components)
}

// updateMessage edits the message the button belongs to
func updateMessage(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if components != nil {
		data.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: components},
		}
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
}
