package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dbh-bot/dbh/types"
)

// RedirectRepository handles persistence for redirect links.
type RedirectRepository struct {
	db *sql.DB
}

func NewRedirectRepository(db *sql.DB) *RedirectRepository {
	return &RedirectRepository{db: db}
}

func (r *RedirectRepository) FindOne(ctx context.Context, id string) (types.RedirectLink, error) {
	const query = `
		SELECT id, url, message, redirected
		FROM redirect_links
		WHERE id = $1`
	var link types.RedirectLink
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&link.ID,
		&link.URL,
		&link.Message,
		&link.Redirected,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.RedirectLink{}, ErrNotFound
		}
		return types.RedirectLink{}, err
	}
	return link, nil
}

// Save writes the whole record. The stored counter never moves backwards.
func (r *RedirectRepository) Save(ctx context.Context, link *types.RedirectLink) error {
	const query = `
		INSERT INTO redirect_links (id, url, message, redirected)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET url = EXCLUDED.url,
			message = EXCLUDED.message,
			redirected = GREATEST(redirect_links.redirected, EXCLUDED.redirected)`
	_, err := r.db.ExecContext(ctx, query, link.ID, link.URL, link.Message, link.Redirected)
	return translate(err)
}
