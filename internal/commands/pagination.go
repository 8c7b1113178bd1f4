package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"soundwave/internal/domain/entities"
	"soundwave/internal/validation"
)

const itemsPerPage = 10

// createPaginationButtons creates navigation buttons for pagination.
// Pages are 1-based throughout.
func createPaginationButtons(page, totalPages int, customIDPrefix string) []discordgo.MessageComponent {
	if totalPages <= 1 {
		return nil
	}

	return []discordgo.MessageComponent{
		discordgo.Button{
			Label:    "◀️",
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s:page:%d", customIDPrefix, page-1),
			Disabled: page <= 1,
		},
		discordgo.Button{
			Label:    fmt.Sprintf("Page %d/%d", page, totalPages),
			Style:    discordgo.SecondaryButton,
			CustomID: fmt.Sprintf("%s:current", customIDPrefix),
			Disabled: true,
		},
		discordgo.Button{
			Label:    "▶️",
			Style:    discordgo.PrimaryButton,
			CustomID: fmt.Sprintf("%s:page:%d", customIDPrefix, page+1),
			Disabled: page >= totalPages,
		},
	}
}

// buildQueuePage builds a paginated queue display
func (h *Handler) buildQueuePage(queue *entities.Queue, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	current := queue.Current()
	pending := queue.Pending()

	if current == nil && len(pending) == 0 {
		return NewEmbed().
			Title(fmt.Sprintf("%s Queue", queue.Source().Emoji())).
			Description("The queue is empty. Use `/play` to add tracks!").
			Color(ColorInfo).
			Build(), nil
	}

	totalPages := (len(pending) + itemsPerPage - 1) / itemsPerPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	builder := NewEmbed().
		Title(fmt.Sprintf("%s Queue (Page %d/%d)", queue.Source().Emoji(), page, totalPages)).
		Color(ColorPrimary)

	var sb strings.Builder
	if current != nil {
		sb.WriteString(fmt.Sprintf("► **%s** `[%s]`\n\n", current.DisplayName(), current.DurationFormatted()))
	}

	start := (page - 1) * itemsPerPage
	end := start + itemsPerPage
	if end > len(pending) {
		end = len(pending)
	}

	for idx := start; idx < end; idx++ {
		track := pending[idx]
		title := validation.TruncateString(track.DisplayName(), 50)
		sb.WriteString(fmt.Sprintf("`%2d.` %s **%s** `[%s]`\n",
			idx+1, track.Source.Emoji(), title, track.DurationFormatted()))
	}

	builder.Description(sb.String())

	loopIcon := "➡️"
	switch queue.GetLoopMode() {
	case entities.LoopSong:
		loopIcon = "🔂"
	case entities.LoopQueue:
		loopIcon = "🔁"
	}
	shuffleIcon := ""
	if queue.IsShuffleEnabled() {
		shuffleIcon = " • 🔀 shuffle"
	}

	stats := queue.Stats()
	builder.Footer(fmt.Sprintf("%d tracks • %s total • Loop: %s%s",
		stats.TotalTracks, formatTotalDuration(stats.TotalDurationSeconds), loopIcon, shuffleIcon))

	return builder.Build(), createPaginationButtons(page, totalPages, "queue")
}

// buildPlaylistPage builds a paginated playlist display
func buildPlaylistPage(playlist *entities.Playlist, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	if playlist.TotalTracks() == 0 {
		return NewEmbed().
			Title(fmt.Sprintf("📋 %s", playlist.Name)).
			Description("This playlist is empty").
			Color(ColorInfo).
			Footer("Use /playlist add to add tracks").
			Build(), nil
	}

	total := playlist.TotalTracks()
	totalPages := (total + itemsPerPage - 1) / itemsPerPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	builder := NewEmbed().
		Title(fmt.Sprintf("📋 %s (Page %d/%d)", playlist.Name, page, totalPages)).
		Color(ColorPrimary)

	start := (page - 1) * itemsPerPage
	end := start + itemsPerPage
	if end > total {
		end = total
	}

	var sb strings.Builder
	for idx := start; idx < end; idx++ {
		entry := playlist.Tracks[idx]
		title := validation.TruncateString(entry.Title, 50)
		sb.WriteString(fmt.Sprintf("`%2d.` %s **%s**\n", idx+1, entry.Source.Emoji(), title))
	}

	builder.Description(sb.String())
	builder.Footer(fmt.Sprintf("%d tracks • Use /playlist load %s to play", total, playlist.Name))

	return builder.Build(), createPaginationButtons(page, totalPages, "playlist:"+playlist.Name)
}

// formatTotalDuration renders a second count as h m or m s
func formatTotalDuration(seconds int) string {
	if seconds <= 0 {
		return "0m"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds%60)
}
