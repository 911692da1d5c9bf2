package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dbh-bot/dbh/types"
)

// AccountRepository handles persistence for web accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByIdentifier matches identifier against both login and email.
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (types.WebAccount, error) {
	const query = `
		SELECT id, login, COALESCE(email, ''), password_hash
		FROM web_accounts
		WHERE login = $1 OR email = $1
		ORDER BY id
		LIMIT 1`
	var account types.WebAccount
	err := r.db.QueryRowContext(ctx, query, identifier).Scan(
		&account.ID,
		&account.Login,
		&account.Email,
		&account.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.WebAccount{}, ErrNotFound
		}
		return types.WebAccount{}, err
	}
	return account, nil
}

// Exists reports whether any account already uses login or email. An empty
// email matches nothing.
func (r *AccountRepository) Exists(ctx context.Context, login, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM web_accounts WHERE login = $1 OR ($2 <> '' AND email = $2))`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, login, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Save inserts a new account and sets its ID, or rewrites an existing one.
func (r *AccountRepository) Save(ctx context.Context, account *types.WebAccount) error {
	if account.ID == 0 {
		const query = `
			INSERT INTO web_accounts (login, email, password_hash)
			VALUES ($1, NULLIF($2, ''), $3)
			RETURNING id`
		err := r.db.QueryRowContext(ctx, query, account.Login, account.Email, account.PasswordHash).Scan(&account.ID)
		return translate(err)
	}

	const query = `
		UPDATE web_accounts
		SET login = $1,
			email = NULLIF($2, ''),
			password_hash = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, account.Login, account.Email, account.PasswordHash, account.ID)
	if err != nil {
		return translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
