package bot

import (
	"github.com/bwmarrin/discordgo"
)

// Slash command names dispatched to the lifecycle service.
const (
	CommandSetup       = "ticket-setup"
	CommandAddAdmin    = "ticket-admin"
	CommandRemoveAdmin = "ticket-remove-admin"
	CommandPostPrompt  = "ticket-message"
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        CommandSetup,
		Description: "Setup the ticket system (Owner only)",
	},
	{
		Name:        CommandAddAdmin,
		Description: "Add a role as ticket admin",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Role to add as ticket admin",
				Required:    true,
			},
		},
	},
	{
		Name:        CommandRemoveAdmin,
		Description: "Remove a role from ticket admins",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionRole,
				Name:        "role",
				Description: "Role to remove from ticket admin",
				Required:    true,
			},
		},
	},
	{
		Name:        CommandPostPrompt,
		Description: "Send the ticket embed message",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Channel to send the embed",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "content",
				Description: "Embed content",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "button_label",
				Description: "Button label",
				Required:    true,
			},
		},
	},
}

// RegisterCommands upserts the slash commands. guildID scopes registration
// to one guild for fast propagation; empty registers globally.
func RegisterCommands(session *discordgo.Session, guildID string) error {
	appID := session.State.User.ID
	for _, command := range commands {
		if _, err := session.ApplicationCommandCreate(appID, guildID, command); err != nil {
			return err
		}
	}
	return nil
}
