package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dbh-bot/dbh/types"
)

// GuildRepository handles persistence for guild settings.
type GuildRepository struct {
	db *sql.DB
}

func NewGuildRepository(db *sql.DB) *GuildRepository {
	return &GuildRepository{db: db}
}

func (r *GuildRepository) FindOne(ctx context.Context, id string) (types.Guild, error) {
	const query = `
		SELECT id, name, prefix, private, commands
		FROM guilds
		WHERE id = $1`
	var guild types.Guild
	var commandsJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&guild.ID,
		&guild.Name,
		&guild.Prefix,
		&guild.Private,
		&commandsJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Guild{}, ErrNotFound
		}
		return types.Guild{}, err
	}

	if err := json.Unmarshal(commandsJSON, &guild.Commands); err != nil {
		return types.Guild{}, fmt.Errorf("decode guild commands: %w", err)
	}
	return guild, nil
}

func (r *GuildRepository) Save(ctx context.Context, guild *types.Guild) error {
	commandsJSON, err := json.Marshal(guild.Commands)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO guilds (id, name, prefix, private, commands)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			prefix = EXCLUDED.prefix,
			private = EXCLUDED.private,
			commands = EXCLUDED.commands`
	_, err = r.db.ExecContext(ctx, query, guild.ID, guild.Name, guild.Prefix, guild.Private, commandsJSON)
	return translate(err)
}
