package services

import (
	"context"
	"fmt"

	"github.com/dbh-bot/dbh/types"
)

// AuthorFetcher looks authors up in the presence service. Unknown authors
// are reported as ErrAuthorNotFound.
type AuthorFetcher interface {
	FetchAuthor(ctx context.Context, authorID string) (types.Author, error)
}

// Admin carries the administrative commands.
type Admin struct {
	users   *UserService
	authors AuthorFetcher
	roles   RoleTable
}

func NewAdmin(users *UserService, authors AuthorFetcher, roles RoleTable) *Admin {
	return &Admin{users: users, authors: authors, roles: roles}
}

func (a *Admin) Help() string {
	return "help\n" +
		"setrole <guild-id> <author-id> <role>\n"
}

// SetRole assigns role to the author's user in guildID and persists the
// user immediately.
func (a *Admin) SetRole(ctx context.Context, guildID, authorID, role string) (string, error) {
	if _, ok := a.roles.Role(role); !ok {
		return "", &Error{Code: CodeUnknownRole, Reason: role}
	}
	author, err := a.authors.FetchAuthor(ctx, authorID)
	if err != nil {
		return "", err
	}
	user, err := a.users.Resolve(ctx, guildID, author)
	if err != nil {
		return "", err
	}
	if err := a.users.Update(ctx, user, func(u *types.User) { u.Role = role }); err != nil {
		return "", fmt.Errorf("save user: %w", err)
	}
	name := a.users.cache.snapshot(user).Name
	return fmt.Sprintf("set %q for %q in %q", role, name, guildID), nil
}
