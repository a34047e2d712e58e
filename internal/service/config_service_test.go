package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfigService(repo *fakeConfigRepo) *ConfigService {
	return NewConfigService(repo, nil, zap.NewNop())
}

func TestConfigService_FirstAccessIsEmpty(t *testing.T) {
	svc := newConfigService(newFakeConfigRepo())

	roles, err := svc.GetAdminRoles(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestConfigService_AddIsIdempotent(t *testing.T) {
	repo := newFakeConfigRepo()
	svc := newConfigService(repo)
	ctx := context.Background()

	added, err := svc.AddAdminRole(ctx, "g1", "r-admin")
	require.NoError(t, err)
	assert.True(t, added)

	// Adding a present role is a no-op that reports "already present".
	added, err = svc.AddAdminRole(ctx, "g1", "r-admin")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, repo.puts, "no durable write for the no-op")
}

func TestConfigService_RemoveAbsentIsNoOp(t *testing.T) {
	svc := newConfigService(newFakeConfigRepo())

	removed, err := svc.RemoveAdminRole(context.Background(), "g1", "r-ghost")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestConfigService_AddThenRemoveRestoresOriginalSet(t *testing.T) {
	svc := newConfigService(newFakeConfigRepo())
	ctx := context.Background()

	_, err := svc.AddAdminRole(ctx, "g1", "r-base")
	require.NoError(t, err)
	before, err := svc.GetAdminRoles(ctx, "g1")
	require.NoError(t, err)

	added, err := svc.AddAdminRole(ctx, "g1", "r-temp")
	require.NoError(t, err)
	require.True(t, added)
	removed, err := svc.RemoveAdminRole(ctx, "g1", "r-temp")
	require.NoError(t, err)
	require.True(t, removed)

	after, err := svc.GetAdminRoles(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestConfigService_ReadAfterWrite(t *testing.T) {
	svc := newConfigService(newFakeConfigRepo())
	ctx := context.Background()

	_, err := svc.AddAdminRole(ctx, "g1", "r-admin")
	require.NoError(t, err)

	roles, err := svc.GetAdminRoles(ctx, "g1")
	require.NoError(t, err)
	assert.Contains(t, roles, "r-admin")
}
