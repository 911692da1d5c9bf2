// Package presence fetches authors from the Discord API.
package presence

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/dbh-bot/dbh/internal/services"
	"github.com/dbh-bot/dbh/types"
)

// UserGetter is the part of *discordgo.Session used here.
type UserGetter interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// Discord looks authors up through a bot session.
type Discord struct {
	session UserGetter
}

func NewDiscord(session UserGetter) *Discord {
	return &Discord{session: session}
}

// Open creates a REST-only bot session for token.
func Open(token string) (*Discord, error) {
	if token == "" {
		return nil, errors.New("discord token is required")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return NewDiscord(session), nil
}

func (d *Discord) FetchAuthor(ctx context.Context, authorID string) (types.Author, error) {
	user, err := d.session.User(authorID, discordgo.WithContext(ctx))
	if err != nil {
		var restErr *discordgo.RESTError
		if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
			return types.Author{}, services.ErrAuthorNotFound
		}
		return types.Author{}, fmt.Errorf("fetch author %s: %w", authorID, err)
	}
	if user == nil {
		return types.Author{}, services.ErrAuthorNotFound
	}
	return types.Author{ID: user.ID, Username: user.Username, Bot: user.Bot}, nil
}
