package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketChannelName(t *testing.T) {
	assert.Equal(t, "ticket-alice_1", TicketChannelName("alice", 1))
	// Handles are normalized to lower case.
	assert.Equal(t, "ticket-alice_12", TicketChannelName("Alice", 12))
}

func TestOwnerHandleFromChannelName_RoundTrip(t *testing.T) {
	for _, handle := range []string{"alice", "Bob", "user_with_underscores"} {
		name := TicketChannelName(handle, 3)
		parsed, ok := OwnerHandleFromChannelName(name)
		require.True(t, ok, name)
		assert.Equal(t, TicketOwnerPrefix(handle), TicketChannelPrefix+parsed)
	}
}

func TestOwnerHandleFromChannelName_Rejects(t *testing.T) {
	for _, name := range []string{
		"general",
		"ticket-",
		"ticket-_1",
		"ticket-noseq",
		"🧾│ticket-log",
	} {
		_, ok := OwnerHandleFromChannelName(name)
		assert.False(t, ok, name)
	}
}

func TestIsTicketChannelName(t *testing.T) {
	assert.True(t, IsTicketChannelName("ticket-alice_1"))
	assert.False(t, IsTicketChannelName("🧾│ticket-log"))
	assert.False(t, IsTicketChannelName("general"))
}
