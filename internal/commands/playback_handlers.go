package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/domain/entities"
	"soundwave/internal/domain/valueobjects"
	apperrors "soundwave/internal/errors"
	"soundwave/internal/services/arbiter"
	"soundwave/internal/services/resolver"
	"soundwave/internal/validation"
)

// handlePlay handles /play and /scplay: resolve, enqueue, start playback
func (h *Handler) handlePlay(s *discordgo.Session, i *discordgo.InteractionCreate, source valueobjects.Source) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	query := i.ApplicationCommandData().Options[0].StringValue()
	return h.startPlayRequest(s, i, query, source)
}

// handleUniversalPlay handles /mplay: the universal queue mixes sources, so
// the concrete source is detected per track
func (h *Handler) handleUniversalPlay(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := deferResponse(s, i); err != nil {
		return err
	}

	query := i.ApplicationCommandData().Options[0].StringValue()
	return h.startPlayRequest(s, i, query, valueobjects.SourceUniversal)
}

// startPlayRequest runs the shared play flow: voice check, control request,
// resolution, enqueue, and driver start
func (h *Handler) startPlayRequest(s *discordgo.Session, i *discordgo.InteractionCreate, query string, source valueobjects.Source) error {
	query = validation.SanitizeInput(query)
	userID := i.Member.User.ID

	channelID, err := h.getUserVoiceChannel(s, i.GuildID, userID)
	if err != nil {
		return followUpError(s, i, "You must be in a voice channel to play music")
	}

	decision := h.arbiter.RequestControl(i.GuildID, source)
	if !decision.Granted {
		h.setPending(i.GuildID, &pendingPlay{
			Query:     query,
			Source:    source,
			ChannelID: channelID,
			UserID:    userID,
		})
		return h.respondConflict(s, i, source, decision.Conflict)
	}

	return h.resolveAndPlay(s, i, query, source, channelID, userID)
}

// resolveAndPlay resolves the query (single track or playlist), enqueues,
// and starts the driver if idle
func (h *Handler) resolveAndPlay(s *discordgo.Session, i *discordgo.InteractionCreate, query string, source valueobjects.Source, channelID, userID string) error {
	queue := h.registry.Get(i.GuildID, source)

	resolveSource := source
	if source == valueobjects.SourceUniversal {
		resolveSource = h.universalResolveSource(i, query)
	}

	if validation.IsURL(query) && isPlaylistURL(query) {
		tracks, err := h.resolver.ResolvePlaylist(query, resolveSource, userID)
		if err != nil {
			return followUpError(s, i, resolutionMessage(err))
		}

		for _, track := range tracks {
			queue.Enqueue(track)
		}

		if err := h.ensurePlaying(i.GuildID, source, channelID); err != nil {
			return followUpError(s, i, apperrors.GetUserMessage(err))
		}

		embed := NewEmbed().
			Title(fmt.Sprintf("%s Playlist Loaded", source.Emoji())).
			Description(fmt.Sprintf("Added **%d** tracks to the queue", len(tracks))).
			Color(ColorSuccess).
			Footer("Use /queue to view the queue").
			Build()
		return followUpEmbed(s, i, embed)
	}

	track, err := h.resolver.Resolve(query, resolveSource, userID)
	if err != nil {
		return followUpError(s, i, resolutionMessage(err))
	}

	position := queue.Enqueue(track)

	if err := h.ensurePlaying(i.GuildID, source, channelID); err != nil {
		return followUpError(s, i, apperrors.GetUserMessage(err))
	}

	embed := NewEmbed().
		Title(fmt.Sprintf("%s Added to Queue", source.Emoji())).
		Description(fmt.Sprintf("**%s**", track.DisplayName())).
		Color(ColorSuccess).
		Field("Position", fmt.Sprintf("#%d", position), true).
		Field("Duration", track.DurationFormatted(), true).
		Footer("Use /queue to view the queue").
		Build()
	if track.Metadata != nil {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.Metadata.ThumbnailURL}
	}

	return followUpEmbed(s, i, embed)
}

// universalResolveSource picks the concrete source for a universal play:
// the explicit option wins, then URL detection, then YouTube
func (h *Handler) universalResolveSource(i *discordgo.InteractionCreate, query string) valueobjects.Source {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "source" {
			if source := valueobjects.Source(opt.StringValue()); source.IsConcrete() {
				return source
			}
		}
	}
	if validation.IsURL(query) {
		return validation.DetectSource(query)
	}
	return valueobjects.SourceYouTube
}

// ensurePlaying starts the driver unless it is already mid-track
func (h *Handler) ensurePlaying(guildID string, source valueobjects.Source, channelID string) error {
	if h.playback.IsPlaying(guildID) {
		return nil
	}
	return h.playback.Play(guildID, source, channelID)
}

// respondConflict shows the conflict view with resolution buttons
func (h *Handler) respondConflict(s *discordgo.Session, i *discordgo.InteractionCreate, requested valueobjects.Source, conflict *arbiter.Conflict) error {
	description := fmt.Sprintf("%s **%s** currently controls music in this server.",
		conflict.CurrentSource.Emoji(), conflict.CurrentSource)
	if conflict.CurrentTrack != nil {
		description += fmt.Sprintf("\nNow playing: **%s**", conflict.CurrentTrack.Title)
	}

	embed := NewEmbed().
		Title("🎵 Music Source Conflict").
		Description(description).
		Color(ColorWarning).
		Field("Requested", fmt.Sprintf("%s %s", requested.Emoji(), requested), true).
		Footer("Pick how to resolve the conflict").
		Build()

	buttons := []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "Switch & Play",
			Style:    discordgo.DangerButton,
			CustomID: "music_switch",
		},
		discordgo.Button{
			Label:    "Pause Current",
			Style:    discordgo.SecondaryButton,
			CustomID: "music_pause",
		},
		discordgo.Button{
			Label:    "Cancel",
			Style:    discordgo.SecondaryButton,
			CustomID: "music_cancel",
		},
	}

	_, err := s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: buttons},
		},
	})
	return err
}

// handlePause handles the pause command
func (h *Handler) handlePause(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.playback.Pause(i.GuildID); err != nil {
		return respondError(s, i, "No active playback to pause")
	}

	embed := NewEmbed().
		Title("⏸️ Playback Paused").
		Description("Use `/resume` to continue playing").
		Color(ColorWarning).
		Build()

	return respondEmbed(s, i, embed)
}

// handleResume handles the resume command
func (h *Handler) handleResume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.playback.Resume(i.GuildID); err != nil {
		return respondError(s, i, "No paused playback to resume")
	}

	embed := NewEmbed().
		Title("▶️ Playback Resumed").
		Description("Music is now playing").
		Color(ColorSuccess).
		Build()

	return respondEmbed(s, i, embed)
}

// handleSkip handles the skip command
func (h *Handler) handleSkip(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.playback.Skip(i.GuildID); err != nil {
		return respondError(s, i, "No track to skip")
	}

	queue := h.activeQueue(i.GuildID)
	builder := NewEmbed().
		Title("⏭️ Skipped").
		Color(ColorInfo)

	if next := queue.Pending(); len(next) > 0 {
		builder.Description(fmt.Sprintf("Up next: **%s**", next[0].DisplayName()))
	} else if queue.GetLoopMode() != entities.LoopOff {
		builder.Description("Looping continues")
	} else {
		builder.Description("No more tracks in queue")
	}

	return respondEmbed(s, i, builder.Build())
}

// handleStop handles the stop command
func (h *Handler) handleStop(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := h.playback.Stop(i.GuildID); err != nil {
		return respondError(s, i, "No active playback to stop")
	}

	embed := NewEmbed().
		Title("⏹️ Playback Stopped").
		Description("Playback has been stopped and the queue has been cleared").
		Color(ColorError).
		Build()

	return respondEmbed(s, i, embed)
}

// handleVolume handles the volume command
func (h *Handler) handleVolume(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	level := int(i.ApplicationCommandData().Options[0].IntValue())

	source := h.activeSource(i.GuildID)
	if err := h.playback.SetVolume(i.GuildID, source, level); err != nil {
		return respondError(s, i, apperrors.GetUserMessage(err))
	}

	// Visual volume bar, full bar is 200%
	bars := level / 20
	var sb strings.Builder
	for j := 0; j < 10; j++ {
		if j < bars {
			sb.WriteString("█")
		} else {
			sb.WriteString("░")
		}
	}

	embed := NewEmbed().
		Title("🔊 Volume Adjusted").
		Description(fmt.Sprintf("%s **%d%%**", sb.String(), level)).
		Color(ColorInfo).
		Footer("Applies from the next track").
		Build()

	return respondEmbed(s, i, embed)
}

// handleAutoDJ handles the autodj command
func (h *Handler) handleAutoDJ(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	state := i.ApplicationCommandData().Options[0].StringValue()
	enabled := state == "on"

	h.autoDJ.SetEnabled(i.GuildID, enabled)
	h.activeQueue(i.GuildID).SetContinuousPlay(enabled)

	if enabled {
		return respondSuccess(s, i, "Auto-DJ is on. I'll keep picking tracks when the queue runs out")
	}
	return respondSuccess(s, i, "Auto-DJ is off")
}

// isPlaylistURL reports whether a URL points at a playlist rather than a
// single track
func isPlaylistURL(url string) bool {
	return strings.Contains(url, "list=") || strings.Contains(url, "/sets/")
}

// resolutionMessage maps resolver failures to user-facing text
func resolutionMessage(err error) string {
	if resolver.IsNotFound(err) {
		return "No results found. Try a different search or URL"
	}
	var resErr *resolver.ResolutionError
	if errors.As(err, &resErr) {
		return "That track is unavailable right now"
	}
	return apperrors.GetUserMessage(err)
}
