package service

import (
	"context"
	"strings"

	"github.com/spec-kit/ticket-bot/internal/domain"
	"github.com/spec-kit/ticket-bot/internal/platform"
)

// Directory answers derived-view queries over the guild's live channel
// list: which category holds tickets, whether an owner already has one
// open, and the next naming sequence number. It is not a true index; see
// the keyed lock in LifecycleService for the check-then-act race.
type Directory struct {
	gateway platform.Gateway
}

// NewDirectory constructs the directory over a gateway.
func NewDirectory(gateway platform.Gateway) *Directory {
	return &Directory{gateway: gateway}
}

// FindCategory locates the ticket category by case-insensitive substring
// match on the category name. found is false when setup has never run or
// the category was renamed.
func (d *Directory) FindCategory(ctx context.Context, guildID string) (platform.Category, bool, error) {
	categories, err := d.gateway.Categories(ctx, guildID)
	if err != nil {
		return platform.Category{}, false, err
	}
	for _, category := range categories {
		if strings.Contains(strings.ToLower(category.Name), domain.TicketCategoryMarker) {
			return category, true, nil
		}
	}
	return platform.Category{}, false, nil
}

// HasOpenTicket reports whether the owner already has a ticket channel in
// the category, keyed on the channel-name prefix for the owner's
// normalized handle.
func (d *Directory) HasOpenTicket(ctx context.Context, guildID string, category platform.Category, ownerHandle string) (bool, error) {
	channels, err := d.gateway.ChannelsInCategory(ctx, guildID, category.ID)
	if err != nil {
		return false, err
	}
	prefix := domain.TicketOwnerPrefix(ownerHandle)
	for _, channel := range channels {
		if strings.HasPrefix(channel.Name, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// NextSequenceNumber counts existing ticket channels and returns count+1.
// Not a durable counter: concurrent creations can produce the same number,
// which only affects channel naming.
func (d *Directory) NextSequenceNumber(ctx context.Context, guildID string, category platform.Category) (int, error) {
	channels, err := d.gateway.ChannelsInCategory(ctx, guildID, category.ID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, channel := range channels {
		if domain.IsTicketChannelName(channel.Name) {
			count++
		}
	}
	return count + 1, nil
}
