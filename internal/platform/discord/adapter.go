package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

const historyPageSize = 100

// Adapter implements platform.Gateway on top of a discordgo session.
type Adapter struct {
	session *discordgo.Session
	logger  *zap.Logger
}

// NewAdapter wraps an opened discordgo session.
func NewAdapter(session *discordgo.Session, logger *zap.Logger) *Adapter {
	return &Adapter{session: session, logger: logger}
}

// BotID returns the bot's own user ID.
func (a *Adapter) BotID() string {
	if a.session.State != nil && a.session.State.User != nil {
		return a.session.State.User.ID
	}
	return ""
}

// Ping verifies the REST API is reachable; used by the readiness probe.
func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.session.User("@me", discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) Guild(ctx context.Context, guildID string) (platform.Guild, error) {
	guild, err := a.session.Guild(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Guild{}, err
	}
	return platform.Guild{ID: guild.ID, OwnerID: guild.OwnerID}, nil
}

func (a *Adapter) Categories(ctx context.Context, guildID string) ([]platform.Category, error) {
	channels, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	categories := make([]platform.Category, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			categories = append(categories, platform.Category{ID: ch.ID, Name: ch.Name})
		}
	}
	return categories, nil
}

func (a *Adapter) ChannelsInCategory(ctx context.Context, guildID, categoryID string) ([]platform.Channel, error) {
	channels, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	result := make([]platform.Channel, 0, len(channels))
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.ParentID == categoryID {
			result = append(result, a.toChannel(ch))
		}
	}
	return result, nil
}

func (a *Adapter) ChannelByName(ctx context.Context, guildID, name string) (platform.Channel, bool, error) {
	channels, err := a.session.GuildChannels(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, false, err
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			return a.toChannel(ch), true, nil
		}
	}
	return platform.Channel{}, false, nil
}

func (a *Adapter) Channel(ctx context.Context, channelID string) (platform.Channel, error) {
	ch, err := a.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, err
	}
	return a.toChannel(ch), nil
}

func (a *Adapter) Member(ctx context.Context, guildID, memberID string) (platform.Member, error) {
	member, err := a.session.GuildMember(guildID, memberID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Member{}, err
	}
	return toMember(member), nil
}

func (a *Adapter) MemberByHandle(ctx context.Context, guildID, handle string) (platform.Member, error) {
	handle = strings.ToLower(handle)
	members, err := a.session.GuildMembersSearch(guildID, handle, historyPageSize, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Member{}, err
	}
	for _, member := range members {
		if member.User != nil && strings.ToLower(member.User.Username) == handle {
			return toMember(member), nil
		}
	}
	return platform.Member{}, fmt.Errorf("no member with handle %q", handle)
}

func (a *Adapter) Role(ctx context.Context, guildID, roleID string) (platform.Role, error) {
	roles, err := a.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Role{}, err
	}
	for _, role := range roles {
		if role.ID == roleID {
			return platform.Role{ID: role.ID, Name: role.Name}, nil
		}
	}
	return platform.Role{}, fmt.Errorf("role %s not found", roleID)
}

func (a *Adapter) CreateCategory(ctx context.Context, guildID, name string) (platform.Category, error) {
	ch, err := a.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Category{}, err
	}
	return platform.Category{ID: ch.ID, Name: ch.Name}, nil
}

func (a *Adapter) CreateChannel(ctx context.Context, guildID, categoryID, name string) (platform.Channel, error) {
	ch, err := a.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: categoryID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Channel{}, err
	}
	return a.toChannel(ch), nil
}

func (a *Adapter) ReplaceOverwrites(ctx context.Context, channelID string, overwrites []domain.Overwrite) error {
	ch, err := a.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	converted := make([]*discordgo.PermissionOverwrite, 0, len(overwrites))
	for _, ow := range overwrites {
		converted = append(converted, toPermissionOverwrite(ow, ch.GuildID))
	}
	_, err = a.session.ChannelEditComplex(channelID, &discordgo.ChannelEdit{
		PermissionOverwrites: converted,
	}, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	_, err := a.session.ChannelDelete(channelID, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) SendMessage(ctx context.Context, channelID string, msg platform.Message) error {
	_, err := a.session.ChannelMessageSendComplex(channelID, toMessageSend(msg), discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) SendDirectMessage(ctx context.Context, userID string, msg platform.Message) error {
	dm, err := a.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	_, err = a.session.ChannelMessageSendComplex(dm.ID, toMessageSend(msg), discordgo.WithContext(ctx))
	return err
}

// History pages backwards through the channel and returns the full history
// oldest first.
func (a *Adapter) History(ctx context.Context, channelID string) ([]domain.ChannelMessage, error) {
	var collected []*discordgo.Message
	beforeID := ""
	for {
		page, err := a.session.ChannelMessages(channelID, historyPageSize, beforeID, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		collected = append(collected, page...)
		beforeID = page[len(page)-1].ID
		if len(page) < historyPageSize {
			break
		}
	}

	// Pages arrive newest first; reverse into chronological order.
	history := make([]domain.ChannelMessage, 0, len(collected))
	for i := len(collected) - 1; i >= 0; i-- {
		msg := collected[i]
		history = append(history, domain.ChannelMessage{
			Timestamp:         msg.Timestamp,
			AuthorDisplayName: displayName(msg),
			Content:           msg.Content,
		})
	}
	return history, nil
}

func (a *Adapter) toChannel(ch *discordgo.Channel) platform.Channel {
	overwrites := make([]domain.Overwrite, 0, len(ch.PermissionOverwrites))
	for _, ow := range ch.PermissionOverwrites {
		overwrites = append(overwrites, fromPermissionOverwrite(ow, ch.GuildID, a.BotID()))
	}
	return platform.Channel{
		ID:         ch.ID,
		GuildID:    ch.GuildID,
		Name:       ch.Name,
		CategoryID: ch.ParentID,
		Overwrites: overwrites,
	}
}

func toMember(member *discordgo.Member) platform.Member {
	m := platform.Member{
		ID:      member.User.ID,
		Handle:  strings.ToLower(member.User.Username),
		RoleIDs: member.Roles,
	}
	switch {
	case member.Nick != "":
		m.DisplayName = member.Nick
	case member.User.GlobalName != "":
		m.DisplayName = member.User.GlobalName
	default:
		m.DisplayName = member.User.Username
	}
	return m
}

func displayName(msg *discordgo.Message) string {
	if msg.Member != nil && msg.Member.Nick != "" {
		return msg.Member.Nick
	}
	if msg.Author == nil {
		return "unknown"
	}
	if msg.Author.GlobalName != "" {
		return msg.Author.GlobalName
	}
	return msg.Author.Username
}

func toPermissionOverwrite(ow domain.Overwrite, guildID string) *discordgo.PermissionOverwrite {
	var allow, deny int64
	for _, right := range []struct {
		access domain.Access
		bit    int64
	}{
		{ow.View, discordgo.PermissionViewChannel},
		{ow.Send, discordgo.PermissionSendMessages},
		{ow.Attach, discordgo.PermissionAttachFiles},
	} {
		switch right.access {
		case domain.AccessAllow:
			allow |= right.bit
		case domain.AccessDeny:
			deny |= right.bit
		}
	}

	result := &discordgo.PermissionOverwrite{Allow: allow, Deny: deny}
	switch ow.Principal.Kind {
	case domain.PrincipalEveryone:
		// The everyone principal is the guild's implicit role.
		result.ID = guildID
		result.Type = discordgo.PermissionOverwriteTypeRole
	case domain.PrincipalRole:
		result.ID = ow.Principal.ID
		result.Type = discordgo.PermissionOverwriteTypeRole
	default:
		result.ID = ow.Principal.ID
		result.Type = discordgo.PermissionOverwriteTypeMember
	}
	return result
}

func fromPermissionOverwrite(ow *discordgo.PermissionOverwrite, guildID, botID string) domain.Overwrite {
	principal := domain.Principal{ID: ow.ID}
	switch {
	case ow.Type == discordgo.PermissionOverwriteTypeRole && ow.ID == guildID:
		principal = domain.Principal{Kind: domain.PrincipalEveryone}
	case ow.Type == discordgo.PermissionOverwriteTypeRole:
		principal.Kind = domain.PrincipalRole
	case ow.ID == botID && botID != "":
		principal.Kind = domain.PrincipalBot
	default:
		principal.Kind = domain.PrincipalMember
	}
	return domain.Overwrite{
		Principal: principal,
		View:      accessFromBits(ow.Allow, ow.Deny, discordgo.PermissionViewChannel),
		Send:      accessFromBits(ow.Allow, ow.Deny, discordgo.PermissionSendMessages),
		Attach:    accessFromBits(ow.Allow, ow.Deny, discordgo.PermissionAttachFiles),
	}
}

func accessFromBits(allow, deny, bit int64) domain.Access {
	switch {
	case allow&bit != 0:
		return domain.AccessAllow
	case deny&bit != 0:
		return domain.AccessDeny
	default:
		return domain.AccessUnset
	}
}

func toMessageSend(msg platform.Message) *discordgo.MessageSend {
	send := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		send.Embeds = []*discordgo.MessageEmbed{{
			Title:       msg.Embed.Title,
			Description: msg.Embed.Description,
			Color:       msg.Embed.Color,
		}}
	}
	if len(msg.Buttons) > 0 {
		buttons := make([]discordgo.MessageComponent, 0, len(msg.Buttons))
		for _, b := range msg.Buttons {
			buttons = append(buttons, discordgo.Button{
				Label:    b.Label,
				CustomID: b.CustomID,
				Style:    toButtonStyle(b.Style),
			})
		}
		send.Components = []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
	}
	if msg.File != nil {
		send.Files = []*discordgo.File{{Name: msg.File.Name, Reader: msg.File.Reader}}
	}
	return send
}

func toButtonStyle(style platform.ButtonStyle) discordgo.ButtonStyle {
	switch style {
	case platform.ButtonSuccess:
		return discordgo.SuccessButton
	case platform.ButtonDanger:
		return discordgo.DangerButton
	default:
		return discordgo.PrimaryButton
	}
}
