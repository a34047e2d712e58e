package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/observability"
	"github.com/spec-kit/ticket-bot/internal/service"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

const defaultActionTimeout = 30 * time.Second

// Handler routes inbound interactions (slash commands and buttons) to the
// lifecycle service and replies with ephemeral acknowledgements. It owns no
// lifecycle logic.
type Handler struct {
	lifecycle *service.LifecycleService
	logger    *zap.Logger
	metrics   *observability.Metrics
	timeout   time.Duration
}

// NewHandler constructs the interaction handler.
func NewHandler(lifecycle *service.LifecycleService, logger *zap.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		lifecycle: lifecycle,
		logger:    logger,
		metrics:   metrics,
		timeout:   defaultActionTimeout,
	}
}

// Register attaches the handler to the session.
func (h *Handler) Register(session *discordgo.Session) {
	session.AddHandler(h.onInteractionCreate)
}

func (h *Handler) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	var (
		action string
		ack    *service.Ack
		err    error
	)

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		action = data.Name
		ack, err = h.dispatchCommand(ctx, i, data)
	case discordgo.InteractionMessageComponent:
		action = i.MessageComponentData().CustomID
		ack, err = h.dispatchButton(ctx, i, action)
	default:
		return
	}
	if err == nil && ack == nil {
		// Not one of ours.
		return
	}

	if err != nil {
		domainErr := util.ToDomainError(err)
		h.metrics.RecordError(action, domainErr.Code)
		if domainErr.Code == util.CodeUpstreamFailure || domainErr.Code == util.CodeInternal {
			h.logger.Error("action failed",
				zap.String("action", action),
				zap.String("guild_id", i.GuildID),
				zap.Error(domainErr))
		}
		h.respond(s, i, domainErr.Message)
		return
	}
	h.respond(s, i, ack.Message)
}

func (h *Handler) dispatchCommand(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) (*service.Ack, error) {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		options[opt.Name] = opt
	}

	switch data.Name {
	case CommandSetup:
		return h.lifecycle.SetupTicketSystem(ctx, i.GuildID, actorID(i), i.ChannelID)
	case CommandAddAdmin:
		return h.lifecycle.SetAdminRole(ctx, i.GuildID, actorID(i), roleOption(options, "role"), true)
	case CommandRemoveAdmin:
		return h.lifecycle.SetAdminRole(ctx, i.GuildID, actorID(i), roleOption(options, "role"), false)
	case CommandPostPrompt:
		return h.lifecycle.PostTicketPrompt(ctx, i.GuildID, actorID(i),
			channelOption(options, "channel"),
			stringOption(options, "content"),
			stringOption(options, "button_label"))
	default:
		return nil, nil
	}
}

func (h *Handler) dispatchButton(ctx context.Context, i *discordgo.InteractionCreate, customID string) (*service.Ack, error) {
	switch customID {
	case service.ButtonIDOpenTicket:
		return h.lifecycle.OpenTicket(ctx, i.GuildID, actorID(i))
	case service.ButtonIDCloseTicket:
		return h.lifecycle.CloseTicket(ctx, i.GuildID, actorID(i), i.ChannelID)
	case service.ButtonIDReopenTicket:
		return h.lifecycle.ReopenTicket(ctx, i.GuildID, actorID(i), i.ChannelID)
	case service.ButtonIDDeleteTicket:
		return h.lifecycle.DeleteTicket(ctx, i.GuildID, actorID(i), i.ChannelID)
	default:
		return nil, nil
	}
}

// respond sends the ephemeral, actor-only acknowledgement.
func (h *Handler) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		h.logger.Warn("interaction response failed", zap.Error(err))
	}
}

func actorID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func stringOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := options[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func roleOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := options[name]; ok {
		if role, ok := opt.Value.(string); ok {
			return role
		}
	}
	return ""
}

func channelOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := options[name]; ok {
		if channel, ok := opt.Value.(string); ok {
			return channel
		}
	}
	return ""
}
