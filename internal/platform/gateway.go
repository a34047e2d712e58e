package platform

import (
	"context"
	"io"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// Guild is the platform view of a community.
type Guild struct {
	ID      string
	OwnerID string
}

// Category is a channel grouping inside a guild.
type Category struct {
	ID   string
	Name string
}

// Channel is a text channel with its current overwrite table.
type Channel struct {
	ID         string
	GuildID    string
	Name       string
	CategoryID string
	Overwrites []domain.Overwrite
}

// Member is a guild member. Handle is the normalized (lower-cased) username
// used for ticket channel naming.
type Member struct {
	ID          string
	Handle      string
	DisplayName string
	RoleIDs     []string
}

// Role is a guild role.
type Role struct {
	ID   string
	Name string
}

// ButtonStyle selects the visual style of a button directive.
type ButtonStyle int

const (
	ButtonPrimary ButtonStyle = iota
	ButtonSuccess
	ButtonDanger
)

// Button is a message control the platform renders for follow-up actions.
type Button struct {
	Label    string
	CustomID string
	Style    ButtonStyle
}

// Embed is a rich notice directive.
type Embed struct {
	Title       string
	Description string
	Color       int
}

// FileAttachment carries a transcript artifact to a delivery target.
type FileAttachment struct {
	Name   string
	Reader io.Reader
}

// Message is an outbound message directive.
type Message struct {
	Content string
	Embed   *Embed
	Buttons []Button
	File    *FileAttachment
}

// Gateway is the chat-platform collaborator the core invokes. Calls block
// until the platform responds; the core does not retry failures, it
// propagates them as operation failures.
type Gateway interface {
	Guild(ctx context.Context, guildID string) (Guild, error)
	Categories(ctx context.Context, guildID string) ([]Category, error)
	ChannelsInCategory(ctx context.Context, guildID, categoryID string) ([]Channel, error)
	ChannelByName(ctx context.Context, guildID, name string) (Channel, bool, error)
	Channel(ctx context.Context, channelID string) (Channel, error)
	Member(ctx context.Context, guildID, memberID string) (Member, error)
	MemberByHandle(ctx context.Context, guildID, handle string) (Member, error)
	Role(ctx context.Context, guildID, roleID string) (Role, error)

	CreateCategory(ctx context.Context, guildID, name string) (Category, error)
	CreateChannel(ctx context.Context, guildID, categoryID, name string) (Channel, error)
	// ReplaceOverwrites swaps the channel's whole overwrite table. The core
	// never patches overwrites incrementally.
	ReplaceOverwrites(ctx context.Context, channelID string, overwrites []domain.Overwrite) error
	DeleteChannel(ctx context.Context, channelID string) error

	SendMessage(ctx context.Context, channelID string, msg Message) error
	SendDirectMessage(ctx context.Context, userID string, msg Message) error

	// History returns the channel's full message history, oldest first,
	// unbounded. May block for the duration of a paginated fetch.
	History(ctx context.Context, channelID string) ([]domain.ChannelMessage, error)

	// BotID identifies the bot's own member principal.
	BotID() string
}
