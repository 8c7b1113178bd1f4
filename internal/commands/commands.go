package commands

import "github.com/bwmarrin/discordgo"

func minValue(v float64) *float64 { return &v }

// GetCommands returns all slash command definitions
func GetCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		// Playback commands
		{
			Name:        "play",
			Description: "Play music from YouTube (URL, playlist, or search query)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "YouTube URL or search query",
					Required:    true,
				},
			},
		},
		{
			Name:        "scplay",
			Description: "Play music from SoundCloud (URL or search query)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "SoundCloud URL or search query",
					Required:    true,
				},
			},
		},
		{
			Name:        "mplay",
			Description: "Play through the universal queue (mixes sources)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "URL or search query",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "source",
					Description: "Where to search (defaults to YouTube, URLs auto-detect)",
					Required:    false,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "YouTube", Value: "youtube"},
						{Name: "SoundCloud", Value: "soundcloud"},
					},
				},
			},
		},
		{
			Name:        "pause",
			Description: "Pause the current playback",
		},
		{
			Name:        "resume",
			Description: "Resume paused playback",
		},
		{
			Name:        "skip",
			Description: "Skip to the next track",
		},
		{
			Name:        "stop",
			Description: "Stop playback and clear the queue",
		},
		{
			Name:        "volume",
			Description: "Adjust playback volume (0-200%)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume level (0-200, 100 is normal)",
					Required:    true,
					MinValue:    minValue(0),
					MaxValue:    200,
				},
			},
		},
		{
			Name:        "autodj",
			Description: "Toggle Auto-DJ (keeps picking tracks when the queue is empty)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "state",
					Description: "Turn Auto-DJ on or off",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "On", Value: "on"},
						{Name: "Off", Value: "off"},
					},
				},
			},
		},

		// Queue commands
		{
			Name:        "queue",
			Description: "Display the current queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page to show",
					Required:    false,
					MinValue:    minValue(1),
				},
			},
		},
		{
			Name:        "nowplaying",
			Description: "Show information about the currently playing track",
		},
		{
			Name:        "shuffle",
			Description: "Shuffle the pending tracks in the queue",
		},
		{
			Name:        "loop",
			Description: "Configure loop mode for playback",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "mode",
					Description: "Loop mode",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "Off", Value: "off"},
						{Name: "Single Track", Value: "song"},
						{Name: "Entire Queue", Value: "queue"},
					},
				},
			},
		},
		{
			Name:        "clear",
			Description: "Clear the queue (history is kept)",
		},
		{
			Name:        "remove",
			Description: "Remove a track from the queue by position",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "position",
					Description: "Queue position (1-based)",
					Required:    true,
					MinValue:    minValue(1),
				},
			},
		},
		{
			Name:        "move",
			Description: "Move a track to another position in the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "from",
					Description: "Current position (1-based)",
					Required:    true,
					MinValue:    minValue(1),
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "to",
					Description: "New position (1-based)",
					Required:    true,
					MinValue:    minValue(1),
				},
			},
		},
		{
			Name:        "history",
			Description: "Show recently played tracks",
		},

		// Music manager commands
		{
			Name:        "music",
			Description: "Inspect or switch the active music source",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "status",
					Description: "Show which source controls music right now",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "switch",
					Description: "Force-switch control to another source",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "source",
							Description: "Source to hand control to",
							Required:    true,
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "YouTube", Value: "youtube"},
								{Name: "SoundCloud", Value: "soundcloud"},
								{Name: "Universal", Value: "universal"},
							},
						},
					},
				},
			},
		},

		// Playlist commands
		{
			Name:        "playlist",
			Description: "Manage your saved playlists",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "save",
					Description: "Save the current queue as a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Playlist name (overwrites an existing one)",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "load",
					Description: "Load a playlist into the queue",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Playlist name to load",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List your playlists",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "show",
					Description: "Display playlist contents",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Playlist name to display",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add the current track (or a URL) to a playlist",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Playlist name",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "query",
							Description: "URL or search (empty for the current track)",
							Required:    false,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "delete",
					Description: "Delete one of your playlists",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "name",
							Description: "Playlist name to delete",
							Required:    true,
						},
					},
				},
			},
		},

		// Utility commands
		{
			Name:        "join",
			Description: "Join your current voice channel",
		},
		{
			Name:        "leave",
			Description: "Leave voice channel and clear all state",
		},
		{
			Name:        "stats",
			Description: "Display bot statistics and status",
		},
		{
			Name:        "help",
			Description: "Show all available commands and usage",
		},
	}
}
