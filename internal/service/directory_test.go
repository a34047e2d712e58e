package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectory_FindCategory(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addCategory("cat-general", "General")
	wanted := gateway.addCategory("cat-tickets", "🎟️ Tickets")

	directory := NewDirectory(gateway)
	category, found, err := directory.FindCategory(context.Background(), "g1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, wanted.ID, category.ID)
}

func TestDirectory_FindCategory_NotFound(t *testing.T) {
	gateway := newFakeGateway()
	gateway.addCategory("cat-general", "General")

	directory := NewDirectory(gateway)
	_, found, err := directory.FindCategory(context.Background(), "g1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDirectory_HasOpenTicket(t *testing.T) {
	gateway := newFakeGateway()
	category := gateway.addCategory("cat-tickets", "🎟️ Tickets")
	gateway.addTextChannel("ch-1", "ticket-alice_1", category.ID)
	gateway.addTextChannel("ch-2", "🧾│ticket-log", category.ID)

	directory := NewDirectory(gateway)

	open, err := directory.HasOpenTicket(context.Background(), "g1", category, "Alice")
	require.NoError(t, err)
	assert.True(t, open, "handle matching is case-insensitive")

	open, err = directory.HasOpenTicket(context.Background(), "g1", category, "bob")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestDirectory_NextSequenceNumber(t *testing.T) {
	gateway := newFakeGateway()
	category := gateway.addCategory("cat-tickets", "🎟️ Tickets")
	directory := NewDirectory(gateway)

	sequence, err := directory.NextSequenceNumber(context.Background(), "g1", category)
	require.NoError(t, err)
	assert.Equal(t, 1, sequence)

	gateway.addTextChannel("ch-1", "ticket-alice_1", category.ID)
	gateway.addTextChannel("ch-2", "ticket-bob_2", category.ID)
	gateway.addTextChannel("ch-3", "🧾│ticket-log", category.ID)

	sequence, err = directory.NextSequenceNumber(context.Background(), "g1", category)
	require.NoError(t, err)
	assert.Equal(t, 3, sequence, "log channel does not count as a ticket")
}
