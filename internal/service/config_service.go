package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/persistence"
	"github.com/spec-kit/ticket-bot/internal/repository"
	"github.com/spec-kit/ticket-bot/pkg/util"
)

const adminRolesCacheTTL = 5 * time.Minute

// ConfigService serves and mutates the per-guild admin role set. Every
// mutation is a synchronous durable write; the Redis cache is written
// through on mutation so a read immediately after a write in the same
// process observes it. The cache is best effort and never authoritative.
type ConfigService struct {
	repo   repository.GuildConfigRepository
	cache  *persistence.Redis
	logger *zap.Logger
}

// NewConfigService constructs the service. cache may be nil.
func NewConfigService(repo repository.GuildConfigRepository, cache *persistence.Redis, logger *zap.Logger) *ConfigService {
	return &ConfigService{repo: repo, cache: cache, logger: logger}
}

// GetAdminRoles returns the guild's admin role set. A guild never
// configured reads as an empty set.
func (s *ConfigService) GetAdminRoles(ctx context.Context, guildID string) ([]string, error) {
	if cached, ok := s.cacheGet(ctx, guildID); ok {
		return cached, nil
	}
	roles, err := s.repo.GetAdminRoles(ctx, guildID)
	if err != nil {
		return nil, util.NewUpstreamFailure("could not load the ticket configuration", err)
	}
	s.cacheSet(ctx, guildID, roles)
	return roles, nil
}

// AddAdminRole adds a role to the set. Idempotent: adding a present role
// reports added=false without erroring.
func (s *ConfigService) AddAdminRole(ctx context.Context, guildID, roleID string) (added bool, err error) {
	roles, err := s.repo.GetAdminRoles(ctx, guildID)
	if err != nil {
		return false, util.NewUpstreamFailure("could not load the ticket configuration", err)
	}
	for _, id := range roles {
		if id == roleID {
			return false, nil
		}
	}
	roles = append(roles, roleID)
	if err := s.repo.PutAdminRoles(ctx, guildID, roles); err != nil {
		return false, util.NewUpstreamFailure("could not save the ticket configuration", err)
	}
	s.cacheSet(ctx, guildID, roles)
	return true, nil
}

// RemoveAdminRole removes a role from the set. Removing an absent role
// reports removed=false without erroring.
func (s *ConfigService) RemoveAdminRole(ctx context.Context, guildID, roleID string) (removed bool, err error) {
	roles, err := s.repo.GetAdminRoles(ctx, guildID)
	if err != nil {
		return false, util.NewUpstreamFailure("could not load the ticket configuration", err)
	}
	kept := make([]string, 0, len(roles))
	for _, id := range roles {
		if id == roleID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	if !removed {
		return false, nil
	}
	if err := s.repo.PutAdminRoles(ctx, guildID, kept); err != nil {
		return false, util.NewUpstreamFailure("could not save the ticket configuration", err)
	}
	s.cacheSet(ctx, guildID, kept)
	return true, nil
}

func (s *ConfigService) cacheKey(guildID string) string {
	return "ticket:admin_roles:" + guildID
}

func (s *ConfigService) cacheGet(ctx context.Context, guildID string) ([]string, bool) {
	if s.cache == nil || s.cache.Client == nil {
		return nil, false
	}
	raw, err := s.cache.Client.Get(ctx, s.cacheKey(guildID)).Result()
	if err != nil {
		return nil, false
	}
	var roles []string
	if err := json.Unmarshal([]byte(raw), &roles); err != nil {
		return nil, false
	}
	return roles, true
}

func (s *ConfigService) cacheSet(ctx context.Context, guildID string, roles []string) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(roles)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, s.cacheKey(guildID), raw, adminRolesCacheTTL).Err(); err != nil {
		s.logger.Warn("admin role cache write failed", zap.String("guild_id", guildID), zap.Error(err))
	}
}
