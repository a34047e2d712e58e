package domain

import (
	"fmt"
	"strings"
)

// TicketState enumerates lifecycle states for tickets. State is never
// persisted: it is re-derived from the channel's live owner overwrite.
// Deleted is a terminal transition, not a stored state.
type TicketState string

const (
	TicketStateOpen     TicketState = "OPEN"
	TicketStateClosed   TicketState = "CLOSED"
	TicketStateReopened TicketState = "REOPENED"
)

// TicketChannelPrefix prefixes every ticket channel name.
const TicketChannelPrefix = "ticket-"

// TicketCategoryMarker identifies the ticket category by case-insensitive
// substring match on the category name.
const TicketCategoryMarker = "tickets"

// Ticket is the derived view of a support ticket. Its existence follows from
// a channel's name and category membership; there is no separate record.
type Ticket struct {
	OwnerID        string
	OwnerHandle    string
	SequenceNumber int
	ChannelID      string
	CategoryID     string
	State          TicketState
}

// TicketChannelName builds the channel name for an owner's ticket. The
// handle is normalized to lower case so the open-ticket uniqueness check can
// key on a stable prefix.
func TicketChannelName(ownerHandle string, sequence int) string {
	return fmt.Sprintf("%s%s_%d", TicketChannelPrefix, strings.ToLower(ownerHandle), sequence)
}

// TicketOwnerPrefix is the channel-name prefix shared by all of one owner's
// tickets.
func TicketOwnerPrefix(ownerHandle string) string {
	return TicketChannelPrefix + strings.ToLower(ownerHandle)
}

// OwnerHandleFromChannelName parses the normalized owner handle back out of
// a ticket channel name. ok is false when the name is not ticket-shaped.
func OwnerHandleFromChannelName(name string) (handle string, ok bool) {
	rest, found := strings.CutPrefix(name, TicketChannelPrefix)
	if !found || rest == "" {
		return "", false
	}
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return "", false
	}
	return rest[:idx], true
}

// IsTicketChannelName reports whether a channel name follows the ticket
// naming convention.
func IsTicketChannelName(name string) bool {
	return strings.HasPrefix(name, TicketChannelPrefix)
}
