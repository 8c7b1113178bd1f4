package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	apperrors "soundwave/internal/errors"
	"soundwave/internal/validation"
)

// handlePlaylistSubcommand routes the /playlist subcommands
func (h *Handler) handlePlaylistSubcommand(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(s, i, "Missing subcommand")
	}

	sub := options[0]
	switch sub.Name {
	case "save":
		return h.handlePlaylistSave(s, i, sub.Options)
	case "load":
		return h.handlePlaylistLoad(s, i, sub.Options)
	case "list":
		return h.handlePlaylistList(s, i)
	case "show":
		return h.handlePlaylistShow(s, i, sub.Options)
	case "add":
		return h.handlePlaylistAdd(s, i, sub.Options)
	case "delete":
		return h.handlePlaylistDelete(s, i, sub.Options)
	default:
		return respondError(s, i, "Unknown subcommand")
	}
}

func (h *Handler) handlePlaylistSave(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	name, err := playlistNameOption(options)
	if err != nil {
		return respondError(s, i, err.Error())
	}

	queue := h.activeQueue(i.GuildID)
	playlist, err := h.playlist.SaveQueue(i.Member.User.ID, name, queue)
	if err != nil {
		return respondError(s, i, apperrors.GetUserMessage(err))
	}

	return respondSuccess(s, i, fmt.Sprintf("💾 Saved **%d tracks** as `%s`", playlist.TotalTracks(), playlist.Name))
}

func (h *Handler) handlePlaylistLoad(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	name, err := playlistNameOption(options)
	if err != nil {
		return respondError(s, i, err.Error())
	}

	// Re-resolving every entry can take a while
	if err := deferResponse(s, i); err != nil {
		return err
	}

	queue := h.activeQueue(i.GuildID)
	added, failed, err := h.playlist.LoadIntoQueue(i.Member.User.ID, name, queue, i.Member.User.Username)
	if err != nil {
		return followUpError(s, i, apperrors.GetUserMessage(err))
	}

	message := fmt.Sprintf("📥 Loaded **%d tracks** from `%s`", added, name)
	if failed > 0 {
		message += fmt.Sprintf(" (%d could not be resolved)", failed)
	}

	if channelID, vcErr := h.getUserVoiceChannel(s, i.GuildID, i.Member.User.ID); vcErr == nil && added > 0 {
		if decision := h.arbiter.RequestControl(i.GuildID, queue.Source()); decision.Granted {
			if err := h.ensurePlaying(i.GuildID, queue.Source(), channelID); err != nil {
				h.logger.WithError(err).WithField("guild", i.GuildID).Warning("Failed to start playback after playlist load")
			}
		}
	}

	return followUpSuccess(s, i, message)
}

func (h *Handler) handlePlaylistList(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	names, err := h.playlist.List(i.Member.User.ID)
	if err != nil {
		return respondError(s, i, apperrors.GetUserMessage(err))
	}
	if len(names) == 0 {
		return respondInfo(s, i, "You have no saved playlists. Use `/playlist save` to create one")
	}

	var sb strings.Builder
	for idx, name := range names {
		fmt.Fprintf(&sb, "`%d.` %s\n", idx+1, name)
	}

	embed := NewEmbed().
		Title("📚 Your Playlists").
		Description(sb.String()).
		Color(ColorInfo).
		Footer(fmt.Sprintf("%d playlists", len(names))).
		Build()
	return respondEmbed(s, i, embed)
}

func (h *Handler) handlePlaylistShow(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	name, err := playlistNameOption(options)
	if err != nil {
		return respondError(s, i, err.Error())
	}

	playlist, err := h.playlist.Load(i.Member.User.ID, name)
	if err != nil {
		return respondError(s, i, apperrors.GetUserMessage(err))
	}

	embed, components := buildPlaylistPage(playlist, 1)
	if components != nil {
		return respondEmbedWithButtons(s, i, embed, components)
	}
	return respondEmbed(s, i, embed)
}

func (h *Handler) handlePlaylistAdd(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	name, err := playlistNameOption(options)
	if err != nil {
		return respondError(s, i, err.Error())
	}

	var query string
	for _, opt := range options {
		if opt.Name == "query" {
			query = validation.SanitizeInput(opt.StringValue())
		}
	}

	if query == "" {
		// No query means snapshot whatever is playing right now
		track := h.playback.NowPlaying(i.GuildID)
		if track == nil {
			return respondError(s, i, "Nothing is playing. Give a URL or search query instead")
		}
		if err := h.playlist.AddTrack(i.Member.User.ID, name, track); err != nil {
			return respondError(s, i, apperrors.GetUserMessage(err))
		}
		return respondSuccess(s, i, fmt.Sprintf("➕ Added **%s** to `%s`", track.DisplayName(), name))
	}

	if err := deferResponse(s, i); err != nil {
		return err
	}

	track, err := h.resolver.Resolve(query, h.activeSource(i.GuildID), i.Member.User.Username)
	if err != nil {
		return followUpError(s, i, resolutionMessage(err))
	}
	if err := h.playlist.AddTrack(i.Member.User.ID, name, track); err != nil {
		return followUpError(s, i, apperrors.GetUserMessage(err))
	}
	return followUpSuccess(s, i, fmt.Sprintf("➕ Added **%s** to `%s`", track.DisplayName(), name))
}

func (h *Handler) handlePlaylistDelete(s *discordgo.Session, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) error {
	name, err := playlistNameOption(options)
	if err != nil {
		return respondError(s, i, err.Error())
	}

	if err := h.playlist.Delete(i.Member.User.ID, name); err != nil {
		return respondError(s, i, apperrors.GetUserMessage(err))
	}
	return respondSuccess(s, i, fmt.Sprintf("🗑️ Deleted playlist `%s`", name))
}

func playlistNameOption(options []*discordgo.ApplicationCommandInteractionDataOption) (string, error) {
	for _, opt := range options {
		if opt.Name == "name" {
			name := validation.SanitizeInput(opt.StringValue())
			if err := validation.ValidatePlaylistName(name); err != nil {
				return "", err
			}
			return name, nil
		}
	}
	return "", fmt.Errorf("missing playlist name")
}
