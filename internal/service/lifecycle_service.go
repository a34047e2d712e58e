package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/platform"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

// Button custom IDs shared with the interaction dispatch layer.
const (
	ButtonIDOpenTicket   = "open_ticket"
	ButtonIDCloseTicket  = "close_ticket"
	ButtonIDReopenTicket = "reopen_ticket"
	ButtonIDDeleteTicket = "delete_ticket"
)

// Channel names created by setup. The log channel name doubles as the
// transcript delivery target on deletion.
const (
	SetupCategoryName = "🎟️ Tickets"
	PromptChannelName = "🎫│tickets"
	LogChannelName    = "🧾│ticket-log"
)

const (
	colorBlue   = 0x3498db
	colorGreen  = 0x2ecc71
	colorOrange = 0xe67e22
	colorRed    = 0xe74c3c
)

// Ack is the ephemeral, actor-only acknowledgement of an inbound action.
type Ack struct {
	Message string
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Gateway     platform.Gateway
	Config      *ConfigService
	Directory   *Directory
	Transcripts *TranscriptService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// LifecycleService owns the ticket state machine: it validates each
// transition, enforces actor authorization, recomputes the channel's
// overwrite table wholesale and triggers transcript materialization on
// deletion.
type LifecycleService struct {
	gateway     platform.Gateway
	config      *ConfigService
	directory   *Directory
	transcripts *TranscriptService
	dispatcher  events.Dispatcher
	logger      *zap.Logger

	// ownerLocks serializes the open-ticket check-and-create sequence per
	// owner, so two concurrent opens from the same member cannot both pass
	// the uniqueness check.
	ownerLocks *keyedMutex
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		gateway:     deps.Gateway,
		config:      deps.Config,
		directory:   deps.Directory,
		transcripts: deps.Transcripts,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
		ownerLocks:  newKeyedMutex(),
	}
}

// OpenTicket creates a private ticket channel for the actor. Any member may
// open a ticket; at most one open ticket per owner per category.
func (s *LifecycleService) OpenTicket(ctx context.Context, guildID, actorID string) (*Ack, error) {
	member, err := s.gateway.Member(ctx, guildID, actorID)
	if err != nil {
		return nil, util.NewUpstreamFailure("could not resolve your membership", err)
	}

	category, found, err := s.directory.FindCategory(ctx, guildID)
	if err != nil {
		return nil, util.NewUpstreamFailure("could not list the server categories", err)
	}
	if !found {
		return nil, util.NewNotFound("Ticket category not found. Please run /ticket-setup again.", nil)
	}

	lockKey := guildID + ":" + member.Handle
	s.ownerLocks.Lock(lockKey)
	defer s.ownerLocks.Unlock(lockKey)

	open, err := s.directory.HasOpenTicket(ctx, guildID, category, member.Handle)
	if err != nil {
		return nil, util.NewUpstreamFailure("could not check your existing tickets", err)
	}
	if open {
		return nil, util.NewConflict("You already have an open ticket.", nil)
	}

	sequence, err := s.directory.NextSequenceNumber(ctx, guildID, category)
	if err != nil {
		return nil, util.NewUpstreamFailure("could not number the ticket", err)
	}

	channel, err := s.gateway.CreateChannel(ctx, guildID, category.ID, domain.TicketChannelName(member.Handle, sequence))
	if err != nil {
		return nil, util.NewUpstreamFailure("could not create the ticket channel", err)
	}

	adminRoles, err := s.config.GetAdminRoles(ctx, guildID)
	if err != nil {
		s.cleanupChannel(ctx, channel.ID)
		return nil, err
	}
	overwrites := ComputeOverwrites(member.ID, s.gateway.BotID(), adminRoles, domain.TicketStateOpen)
	if err := s.gateway.ReplaceOverwrites(ctx, channel.ID, overwrites); err != nil {
		s.cleanupChannel(ctx, channel.ID)
		return nil, util.NewUpstreamFailure("could not configure the ticket channel", err)
	}

	welcome := platform.Message{
		Embed: &platform.Embed{
			Title:       "🎫 Ticket Opened",
			Description: fmt.Sprintf("Welcome <@%s>! Our team will assist you shortly.", member.ID),
			Color:       colorOrange,
		},
		Buttons: []platform.Button{{Label: "Close Ticket", CustomID: ButtonIDCloseTicket, Style: platform.ButtonDanger}},
	}
	if err := s.gateway.SendMessage(ctx, channel.ID, welcome); err != nil {
		// Ticket state is already correct; re-announcing is manual and safe.
		s.logger.Warn("welcome message failed", zap.String("channel_id", channel.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketOpened,
		GuildID:   guildID,
		ChannelID: channel.ID,
		ActorID:   actorID,
		Payload: events.TicketOpenedPayload{
			OwnerID:        member.ID,
			ChannelName:    channel.Name,
			SequenceNumber: sequence,
		},
	})
	return &Ack{Message: fmt.Sprintf("✅ Ticket created: <#%s>", channel.ID)}, nil
}

// CloseTicket moves an open ticket to Closed. Allowed for the ticket owner
// or an admin.
func (s *LifecycleService) CloseTicket(ctx context.Context, guildID, actorID, channelID string) (*Ack, error) {
	ticket, channel, err := s.resolveTicket(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}
	if ticket.State == domain.TicketStateClosed {
		return nil, util.NewConflict("This ticket is already closed.", nil)
	}

	if ticket.OwnerID != actorID {
		admin, err := s.isAdminActor(ctx, guildID, actorID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, util.NewUnauthorized("Only the ticket owner or a ticket admin can close this ticket.")
		}
	}

	adminRoles, err := s.config.GetAdminRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	overwrites := ComputeOverwrites(ticket.OwnerID, s.gateway.BotID(), adminRoles, domain.TicketStateClosed)
	if err := s.gateway.ReplaceOverwrites(ctx, channel.ID, overwrites); err != nil {
		return nil, util.NewUpstreamFailure("could not close the ticket", err)
	}

	notice := platform.Message{
		Embed: &platform.Embed{
			Title:       "🔒 Ticket Closed",
			Description: "This ticket has been closed. Only admins can see it now.",
			Color:       colorRed,
		},
		Buttons: []platform.Button{
			{Label: "🔓 Open", CustomID: ButtonIDReopenTicket, Style: platform.ButtonSuccess},
			{Label: "🗑️ Delete", CustomID: ButtonIDDeleteTicket, Style: platform.ButtonDanger},
		},
	}
	if err := s.gateway.SendMessage(ctx, channel.ID, notice); err != nil {
		s.logger.Warn("closure notice failed", zap.String("channel_id", channel.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketClosed,
		GuildID:   guildID,
		ChannelID: channel.ID,
		ActorID:   actorID,
		Payload:   events.TicketClosedPayload{OwnerID: ticket.OwnerID},
	})
	return &Ack{Message: "✅ Ticket closed."}, nil
}

// ReopenTicket restores the owner's view and send rights (without attach)
// on a closed ticket. Admin only.
func (s *LifecycleService) ReopenTicket(ctx context.Context, guildID, actorID, channelID string) (*Ack, error) {
	ticket, channel, err := s.resolveTicket(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}
	admin, err := s.isAdminActor(ctx, guildID, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, util.NewUnauthorized("Only ticket admins can reopen the ticket.")
	}
	if ticket.State != domain.TicketStateClosed {
		return nil, util.NewConflict("This ticket is not closed.", nil)
	}

	adminRoles, err := s.config.GetAdminRoles(ctx, guildID)
	if err != nil {
		return nil, err
	}
	overwrites := ComputeOverwrites(ticket.OwnerID, s.gateway.BotID(), adminRoles, domain.TicketStateReopened)
	if err := s.gateway.ReplaceOverwrites(ctx, channel.ID, overwrites); err != nil {
		return nil, util.NewUpstreamFailure("could not reopen the ticket", err)
	}

	reopenNotice := platform.Message{Content: fmt.Sprintf("<@%s>, your ticket has been reopened!", ticket.OwnerID)}
	if err := s.gateway.SendMessage(ctx, channel.ID, reopenNotice); err != nil {
		s.logger.Warn("reopen notice failed", zap.String("channel_id", channel.ID), zap.Error(err))
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketReopened,
		GuildID:   guildID,
		ChannelID: channel.ID,
		ActorID:   actorID,
		Payload:   events.TicketReopenedPayload{OwnerID: ticket.OwnerID},
	})
	return &Ack{Message: "✅ Ticket reopened."}, nil
}

// DeleteTicket materializes the transcript, delivers it best-effort to the
// log channel and the owner's DMs, destroys the channel, then releases the
// local artifact. Admin only, and only from Closed.
func (s *LifecycleService) DeleteTicket(ctx context.Context, guildID, actorID, channelID string) (*Ack, error) {
	ticket, channel, err := s.resolveTicket(ctx, guildID, channelID)
	if err != nil {
		return nil, err
	}
	admin, err := s.isAdminActor(ctx, guildID, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, util.NewUnauthorized("Only ticket admins can delete the ticket.")
	}
	if ticket.State != domain.TicketStateClosed {
		return nil, util.NewConflict("Close the ticket before deleting it.", nil)
	}

	artifact, err := s.transcripts.Generate(ctx, channel)
	if err != nil {
		return nil, err
	}
	// The local copy is released whether or not delivery succeeds.
	defer artifact.Remove()

	notice := platform.Embed{
		Title:       "🗑️ Ticket Deleted",
		Description: fmt.Sprintf("Ticket by <@%s> deleted by <@%s>", ticket.OwnerID, actorID),
		Color:       colorRed,
	}
	degraded := s.deliverTranscript(ctx, guildID, ticket.OwnerID, notice, artifact)
	if len(degraded) > 0 {
		s.logger.Warn("transcript delivery degraded",
			zap.String("channel", channel.Name),
			zap.Error(util.NewDeliveryDegraded(degraded, nil)))
		s.publish(ctx, events.Event{
			Type:      events.EventTranscriptDeliveryDegraded,
			GuildID:   guildID,
			ChannelID: channel.ID,
			ActorID:   actorID,
			Payload: events.TranscriptDeliveryDegradedPayload{
				TranscriptName: artifact.Name,
				Targets:        degraded,
			},
		})
	}

	// Deletion is irreversible and must complete regardless of delivery.
	if err := s.gateway.DeleteChannel(ctx, channel.ID); err != nil {
		return nil, util.NewUpstreamFailure("could not delete the ticket channel", err)
	}

	s.publish(ctx, events.Event{
		Type:      events.EventTicketDeleted,
		GuildID:   guildID,
		ChannelID: channel.ID,
		ActorID:   actorID,
		Payload: events.TicketDeletedPayload{
			OwnerID:         ticket.OwnerID,
			TranscriptName:  artifact.Name,
			DegradedTargets: degraded,
		},
	})
	return &Ack{Message: "Deleting this ticket..."}, nil
}

// SetAdminRole adds or removes a ticket admin role. Owner-equivalent
// actors only (the community owner).
func (s *LifecycleService) SetAdminRole(ctx context.Context, guildID, actorID, roleID string, add bool) (*Ack, error) {
	if err := s.requireGuildOwner(ctx, guildID, actorID); err != nil {
		return nil, err
	}
	role, err := s.gateway.Role(ctx, guildID, roleID)
	if err != nil {
		return nil, util.NewNotFound("That role does not exist in this server.", map[string]any{"role_id": roleID})
	}

	if add {
		added, err := s.config.AddAdminRole(ctx, guildID, roleID)
		if err != nil {
			return nil, err
		}
		if !added {
			return &Ack{Message: "That role is already a ticket admin."}, nil
		}
		s.publish(ctx, events.Event{
			Type:    events.EventAdminRoleAdded,
			GuildID: guildID,
			ActorID: actorID,
			Payload: events.AdminRoleChangedPayload{RoleID: roleID},
		})
		return &Ack{Message: fmt.Sprintf("✅ %s added as ticket admin.", role.Name)}, nil
	}

	removed, err := s.config.RemoveAdminRole(ctx, guildID, roleID)
	if err != nil {
		return nil, err
	}
	if !removed {
		return &Ack{Message: "That role is not in the ticket admin list."}, nil
	}
	s.publish(ctx, events.Event{
		Type:    events.EventAdminRoleRemoved,
		GuildID: guildID,
		ActorID: actorID,
		Payload: events.AdminRoleChangedPayload{RoleID: roleID},
	})
	return &Ack{Message: fmt.Sprintf("🗑️ %s removed from ticket admins.", role.Name)}, nil
}

// SetupTicketSystem creates the ticket category with its prompt and log
// channels, hidden from everyone but the bot. Owner only.
func (s *LifecycleService) SetupTicketSystem(ctx context.Context, guildID, actorID, originChannelID string) (*Ack, error) {
	if err := s.requireGuildOwner(ctx, guildID, actorID); err != nil {
		return nil, err
	}

	category, err := s.gateway.CreateCategory(ctx, guildID, SetupCategoryName)
	if err != nil {
		return nil, util.NewUpstreamFailure("could not create the ticket category", err)
	}

	base := baseOverwrites(s.gateway.BotID())
	for _, name := range []string{PromptChannelName, LogChannelName} {
		channel, err := s.gateway.CreateChannel(ctx, guildID, category.ID, name)
		if err != nil {
			return nil, util.NewUpstreamFailure("could not create the ticket channels", err)
		}
		if err := s.gateway.ReplaceOverwrites(ctx, channel.ID, base); err != nil {
			return nil, util.NewUpstreamFailure("could not configure the ticket channels", err)
		}
	}

	if originChannelID != "" {
		info := platform.Message{Embed: &platform.Embed{
			Title:       "📌 Ticket System Setup",
			Description: "Use `/ticket-admin <role>` to add ticket managers.\nUse `/ticket-message` to post the ticket creation message.\nAdmins can manage opened tickets.",
			Color:       colorBlue,
		}}
		if err := s.gateway.SendMessage(ctx, originChannelID, info); err != nil {
			s.logger.Warn("setup info message failed", zap.String("channel_id", originChannelID), zap.Error(err))
		}
	}

	return &Ack{Message: "✅ Ticket channels created.\nPlease configure the permissions and use `/ticket-message` to send the ticket embed."}, nil
}

// PostTicketPrompt posts the ticket prompt embed with an open-ticket button
// to the target channel. Owner only.
func (s *LifecycleService) PostTicketPrompt(ctx context.Context, guildID, actorID, targetChannelID, promptText, buttonLabel string) (*Ack, error) {
	if err := s.requireGuildOwner(ctx, guildID, actorID); err != nil {
		return nil, err
	}
	if buttonLabel == "" {
		buttonLabel = "Open Ticket"
	}
	prompt := platform.Message{
		Embed: &platform.Embed{
			Title:       "📩 Need Help?",
			Description: promptText,
			Color:       colorGreen,
		},
		Buttons: []platform.Button{{Label: buttonLabel, CustomID: ButtonIDOpenTicket, Style: platform.ButtonPrimary}},
	}
	if err := s.gateway.SendMessage(ctx, targetChannelID, prompt); err != nil {
		return nil, util.NewUpstreamFailure("could not post the ticket message", err)
	}
	return &Ack{Message: fmt.Sprintf("✅ Ticket message sent to <#%s>", targetChannelID)}, nil
}

// resolveTicket derives the ticket view for a target channel: the owner is
// parsed back out of the channel name and the state out of the live
// overwrite table.
func (s *LifecycleService) resolveTicket(ctx context.Context, guildID, channelID string) (domain.Ticket, platform.Channel, error) {
	channel, err := s.gateway.Channel(ctx, channelID)
	if err != nil {
		return domain.Ticket{}, platform.Channel{}, util.NewUpstreamFailure("could not fetch the channel", err)
	}
	handle, ok := domain.OwnerHandleFromChannelName(channel.Name)
	if !ok {
		return domain.Ticket{}, platform.Channel{}, util.NewNotFound("This channel is not a ticket.", nil)
	}
	owner, err := s.gateway.MemberByHandle(ctx, guildID, handle)
	if err != nil {
		return domain.Ticket{}, platform.Channel{}, util.NewUpstreamFailure("could not resolve the ticket owner", err)
	}
	ticket := domain.Ticket{
		OwnerID:     owner.ID,
		OwnerHandle: handle,
		ChannelID:   channel.ID,
		CategoryID:  channel.CategoryID,
		State:       StateFromOverwrites(channel.Overwrites, owner.ID),
	}
	return ticket, channel, nil
}

// isAdminActor reports whether the actor holds an admin role or owns the
// community.
func (s *LifecycleService) isAdminActor(ctx context.Context, guildID, actorID string) (bool, error) {
	guild, err := s.gateway.Guild(ctx, guildID)
	if err != nil {
		return false, util.NewUpstreamFailure("could not fetch the server", err)
	}
	if guild.OwnerID == actorID {
		return true, nil
	}
	member, err := s.gateway.Member(ctx, guildID, actorID)
	if err != nil {
		return false, util.NewUpstreamFailure("could not resolve your membership", err)
	}
	adminRoles, err := s.config.GetAdminRoles(ctx, guildID)
	if err != nil {
		return false, err
	}
	for _, roleID := range member.RoleIDs {
		for _, adminRoleID := range adminRoles {
			if roleID == adminRoleID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *LifecycleService) requireGuildOwner(ctx context.Context, guildID, actorID string) error {
	guild, err := s.gateway.Guild(ctx, guildID)
	if err != nil {
		return util.NewUpstreamFailure("could not fetch the server", err)
	}
	if guild.OwnerID != actorID {
		return util.NewUnauthorized("Only the server owner can run this command.")
	}
	return nil
}

// deliverTranscript sends the deletion notice and the transcript file to
// the log channel and the owner's DMs. Best effort: each failed target is
// reported, none blocks deletion.
func (s *LifecycleService) deliverTranscript(ctx context.Context, guildID, ownerID string, notice platform.Embed, artifact Artifact) []string {
	var degraded []string

	logChannel, found, err := s.gateway.ChannelByName(ctx, guildID, LogChannelName)
	if err != nil || !found {
		degraded = append(degraded, "log-channel")
	} else if err := s.sendWithTranscript(ctx, artifact, notice, func(msg platform.Message) error {
		return s.gateway.SendMessage(ctx, logChannel.ID, msg)
	}); err != nil {
		degraded = append(degraded, "log-channel")
	}

	if err := s.sendWithTranscript(ctx, artifact, notice, func(msg platform.Message) error {
		return s.gateway.SendDirectMessage(ctx, ownerID, msg)
	}); err != nil {
		degraded = append(degraded, "owner-dm")
	}

	return degraded
}

func (s *LifecycleService) sendWithTranscript(ctx context.Context, artifact Artifact, notice platform.Embed, send func(platform.Message) error) error {
	file, err := artifact.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	return send(platform.Message{
		Embed: &notice,
		File:  &platform.FileAttachment{Name: artifact.Name, Reader: file},
	})
}

func (s *LifecycleService) cleanupChannel(ctx context.Context, channelID string) {
	if err := s.gateway.DeleteChannel(ctx, channelID); err != nil {
		s.logger.Warn("cleanup of half-configured channel failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// baseOverwrites hides a channel from everyone while keeping the bot able
// to operate it.
func baseOverwrites(botID string) []domain.Overwrite {
	return []domain.Overwrite{
		{Principal: domain.Principal{Kind: domain.PrincipalEveryone}, View: domain.AccessDeny},
		{Principal: domain.Principal{Kind: domain.PrincipalBot, ID: botID}, View: domain.AccessAllow, Send: domain.AccessAllow},
	}
}

func (s *LifecycleService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
