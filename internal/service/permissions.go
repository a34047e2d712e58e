package service

import (
	"sort"

	"github.com/spec-kit/ticket-bot/internal/domain"
)

// ComputeOverwrites derives the complete overwrite table for a ticket
// channel from the owner, the bot, the current admin role set and the
// lifecycle state. It is pure and total: identical inputs always yield an
// identical, deterministically ordered set, so callers replace the
// channel's overwrite table wholesale instead of patching it.
//
// Rules:
//   - everyone: view denied
//   - bot: view and send allowed in every state
//   - owner: Open grants view+send+attach; Closed explicitly denies
//     view+send (denied, not removed); Reopened restores view+send
//     without attach
//   - each admin role: view and send allowed in all non-terminal states
func ComputeOverwrites(ownerID, botID string, adminRoleIDs []string, state domain.TicketState) []domain.Overwrite {
	overwrites := []domain.Overwrite{
		{
			Principal: domain.Principal{Kind: domain.PrincipalEveryone},
			View:      domain.AccessDeny,
		},
		{
			Principal: domain.Principal{Kind: domain.PrincipalBot, ID: botID},
			View:      domain.AccessAllow,
			Send:      domain.AccessAllow,
		},
	}

	owner := domain.Overwrite{Principal: domain.Principal{Kind: domain.PrincipalMember, ID: ownerID}}
	switch state {
	case domain.TicketStateOpen:
		owner.View = domain.AccessAllow
		owner.Send = domain.AccessAllow
		owner.Attach = domain.AccessAllow
	case domain.TicketStateReopened:
		owner.View = domain.AccessAllow
		owner.Send = domain.AccessAllow
	case domain.TicketStateClosed:
		owner.View = domain.AccessDeny
		owner.Send = domain.AccessDeny
	}
	overwrites = append(overwrites, owner)

	roleIDs := append([]string(nil), adminRoleIDs...)
	sort.Strings(roleIDs)
	for _, roleID := range roleIDs {
		overwrites = append(overwrites, domain.Overwrite{
			Principal: domain.Principal{Kind: domain.PrincipalRole, ID: roleID},
			View:      domain.AccessAllow,
			Send:      domain.AccessAllow,
		})
	}
	return overwrites
}

// StateFromOverwrites re-derives the ticket state from a channel's live
// overwrite table: an owner whose view right is explicitly denied holds a
// closed ticket, anything else reads as open.
func StateFromOverwrites(overwrites []domain.Overwrite, ownerID string) domain.TicketState {
	for _, ow := range overwrites {
		if ow.Principal.Kind == domain.PrincipalMember && ow.Principal.ID == ownerID {
			if ow.View == domain.AccessDeny {
				return domain.TicketStateClosed
			}
			return domain.TicketStateOpen
		}
	}
	return domain.TicketStateOpen
}
