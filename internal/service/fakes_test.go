package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// fakeGateway is an in-memory platform.Gateway for service tests.
type fakeGateway struct {
	guild      platform.Guild
	botID      string
	categories []platform.Category
	channels   map[string]*platform.Channel
	members    map[string]platform.Member
	roles      map[string]platform.Role
	history    map[string][]domain.ChannelMessage

	sent    map[string][]platform.Message
	dms     map[string][]platform.Message
	deleted []string

	nextChannelID int

	failSendTo  map[string]bool
	failDM      bool
	failHistory bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		guild:      platform.Guild{ID: "g1", OwnerID: "u-owner"},
		botID:      "u-bot",
		channels:   map[string]*platform.Channel{},
		members:    map[string]platform.Member{},
		roles:      map[string]platform.Role{},
		history:    map[string][]domain.ChannelMessage{},
		sent:       map[string][]platform.Message{},
		dms:        map[string][]platform.Message{},
		failSendTo: map[string]bool{},
	}
}

func (g *fakeGateway) addMember(id, handle string, roleIDs ...string) {
	g.members[id] = platform.Member{ID: id, Handle: handle, DisplayName: handle, RoleIDs: roleIDs}
}

func (g *fakeGateway) addCategory(id, name string) platform.Category {
	category := platform.Category{ID: id, Name: name}
	g.categories = append(g.categories, category)
	return category
}

func (g *fakeGateway) addTextChannel(id, name, categoryID string) *platform.Channel {
	channel := &platform.Channel{ID: id, GuildID: g.guild.ID, Name: name, CategoryID: categoryID}
	g.channels[id] = channel
	return channel
}

func (g *fakeGateway) Guild(ctx context.Context, guildID string) (platform.Guild, error) {
	return g.guild, nil
}

func (g *fakeGateway) Categories(ctx context.Context, guildID string) ([]platform.Category, error) {
	return append([]platform.Category(nil), g.categories...), nil
}

func (g *fakeGateway) ChannelsInCategory(ctx context.Context, guildID, categoryID string) ([]platform.Channel, error) {
	var result []platform.Channel
	for _, channel := range g.channels {
		if channel.CategoryID == categoryID {
			result = append(result, *channel)
		}
	}
	return result, nil
}

func (g *fakeGateway) ChannelByName(ctx context.Context, guildID, name string) (platform.Channel, bool, error) {
	for _, channel := range g.channels {
		if channel.Name == name {
			return *channel, true, nil
		}
	}
	return platform.Channel{}, false, nil
}

func (g *fakeGateway) Channel(ctx context.Context, channelID string) (platform.Channel, error) {
	channel, ok := g.channels[channelID]
	if !ok {
		return platform.Channel{}, fmt.Errorf("channel %s not found", channelID)
	}
	return *channel, nil
}

func (g *fakeGateway) Member(ctx context.Context, guildID, memberID string) (platform.Member, error) {
	member, ok := g.members[memberID]
	if !ok {
		return platform.Member{}, fmt.Errorf("member %s not found", memberID)
	}
	return member, nil
}

func (g *fakeGateway) MemberByHandle(ctx context.Context, guildID, handle string) (platform.Member, error) {
	for _, member := range g.members {
		if member.Handle == strings.ToLower(handle) {
			return member, nil
		}
	}
	return platform.Member{}, fmt.Errorf("no member with handle %q", handle)
}

func (g *fakeGateway) Role(ctx context.Context, guildID, roleID string) (platform.Role, error) {
	role, ok := g.roles[roleID]
	if !ok {
		return platform.Role{}, fmt.Errorf("role %s not found", roleID)
	}
	return role, nil
}

func (g *fakeGateway) CreateCategory(ctx context.Context, guildID, name string) (platform.Category, error) {
	return g.addCategory(fmt.Sprintf("cat-%d", len(g.categories)+1), name), nil
}

func (g *fakeGateway) CreateChannel(ctx context.Context, guildID, categoryID, name string) (platform.Channel, error) {
	g.nextChannelID++
	channel := g.addTextChannel(fmt.Sprintf("ch-%d", g.nextChannelID), name, categoryID)
	return *channel, nil
}

func (g *fakeGateway) ReplaceOverwrites(ctx context.Context, channelID string, overwrites []domain.Overwrite) error {
	channel, ok := g.channels[channelID]
	if !ok {
		return fmt.Errorf("channel %s not found", channelID)
	}
	channel.Overwrites = append([]domain.Overwrite(nil), overwrites...)
	return nil
}

func (g *fakeGateway) DeleteChannel(ctx context.Context, channelID string) error {
	if _, ok := g.channels[channelID]; !ok {
		return fmt.Errorf("channel %s not found", channelID)
	}
	delete(g.channels, channelID)
	g.deleted = append(g.deleted, channelID)
	return nil
}

func (g *fakeGateway) SendMessage(ctx context.Context, channelID string, msg platform.Message) error {
	if g.failSendTo[channelID] {
		return errors.New("send failed")
	}
	if _, ok := g.channels[channelID]; !ok {
		return fmt.Errorf("channel %s not found", channelID)
	}
	g.sent[channelID] = append(g.sent[channelID], msg)
	return nil
}

func (g *fakeGateway) SendDirectMessage(ctx context.Context, userID string, msg platform.Message) error {
	if g.failDM {
		return errors.New("dm failed")
	}
	g.dms[userID] = append(g.dms[userID], msg)
	return nil
}

func (g *fakeGateway) History(ctx context.Context, channelID string) ([]domain.ChannelMessage, error) {
	if g.failHistory {
		return nil, errors.New("history failed")
	}
	return append([]domain.ChannelMessage(nil), g.history[channelID]...), nil
}

func (g *fakeGateway) BotID() string {
	return g.botID
}

// fakeConfigRepo is an in-memory GuildConfigRepository.
type fakeConfigRepo struct {
	store   map[string][]string
	failure error
	puts    int
}

func newFakeConfigRepo() *fakeConfigRepo {
	return &fakeConfigRepo{store: map[string][]string{}}
}

func (r *fakeConfigRepo) GetAdminRoles(ctx context.Context, guildID string) ([]string, error) {
	if r.failure != nil {
		return nil, r.failure
	}
	roles, ok := r.store[guildID]
	if !ok {
		return []string{}, nil
	}
	return append([]string(nil), roles...), nil
}

func (r *fakeConfigRepo) PutAdminRoles(ctx context.Context, guildID string, roleIDs []string) error {
	if r.failure != nil {
		return r.failure
	}
	r.store[guildID] = append([]string(nil), roleIDs...)
	r.puts++
	return nil
}
