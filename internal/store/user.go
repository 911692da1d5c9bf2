package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dbh-bot/dbh/types"
)

// UserRepository handles persistence for guild users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindOne(ctx context.Context, guildID, id string) (types.User, error) {
	const query = `
		SELECT id, guild_id, name, role, bot, private, stats
		FROM users
		WHERE guild_id = $1 AND id = $2`
	var user types.User
	var statsJSON []byte
	err := r.db.QueryRowContext(ctx, query, guildID, id).Scan(
		&user.ID,
		&user.GuildID,
		&user.Name,
		&user.Role,
		&user.Bot,
		&user.Private,
		&statsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	if err := json.Unmarshal(statsJSON, &user.Stats); err != nil {
		return types.User{}, fmt.Errorf("decode user stats: %w", err)
	}
	return user, nil
}

// Save writes the whole record, inserting it if it does not exist yet.
func (r *UserRepository) Save(ctx context.Context, user *types.User) error {
	statsJSON, err := json.Marshal(user.Stats)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO users (id, guild_id, name, role, bot, private, stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (guild_id, id) DO UPDATE
		SET name = EXCLUDED.name,
			role = EXCLUDED.role,
			bot = EXCLUDED.bot,
			private = EXCLUDED.private,
			stats = EXCLUDED.stats`
	_, err = r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.GuildID,
		user.Name,
		user.Role,
		user.Bot,
		user.Private,
		statsJSON,
	)
	return translate(err)
}
