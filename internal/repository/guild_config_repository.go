package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GuildConfigRepository encapsulates the per-guild configuration record.
// A guild with no record yet reads as an empty admin set, never an error.
type GuildConfigRepository interface {
	GetAdminRoles(ctx context.Context, guildID string) ([]string, error)
	PutAdminRoles(ctx context.Context, guildID string, roleIDs []string) error
}

type guildConfigRepository struct {
	pool *pgxpool.Pool
}

// NewGuildConfigRepository instantiates repository.
func NewGuildConfigRepository(pool *pgxpool.Pool) GuildConfigRepository {
	return &guildConfigRepository{pool: pool}
}

func (r *guildConfigRepository) GetAdminRoles(ctx context.Context, guildID string) ([]string, error) {
	const query = `SELECT admin_role_ids FROM guild_configs WHERE guild_id=$1`
	var roleIDs []string
	if err := r.pool.QueryRow(ctx, query, guildID).Scan(&roleIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []string{}, nil
		}
		return nil, err
	}
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return roleIDs, nil
}

func (r *guildConfigRepository) PutAdminRoles(ctx context.Context, guildID string, roleIDs []string) error {
	const query = `
        INSERT INTO guild_configs (guild_id, admin_role_ids)
        VALUES ($1, $2)
        ON CONFLICT (guild_id) DO UPDATE SET admin_role_ids=$2, updated_at=NOW()`
	_, err := r.pool.Exec(ctx, query, guildID, roleIDs)
	return err
}
