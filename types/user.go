package types

// DefaultRole is assigned to every user created on first sight.
const DefaultRole = "user"

// Author is the upstream (presence service) view of a guild member.
// It is the source of truth for volatile user attributes.
type Author struct {
	// ID is the upstream user id.
	ID string `json:"id"`

	// Username is the current display name.
	Username string `json:"username"`

	// Bot marks automated accounts.
	Bot bool `json:"bot"`
}

// UserStats holds per-guild usage counters. All counters are non-negative.
type UserStats struct {
	Messages     int64 `json:"messages"`
	VoiceTime    int64 `json:"voiceTime"`
	Commands     int64 `json:"commands"`
	Interactions int64 `json:"interactions"`
}

// User is a member of a single guild.
// Identity is the (GuildID, ID) pair.
type User struct {
	// ID is the upstream author id.
	ID string `json:"id" db:"id"`

	// GuildID is the guild this record belongs to.
	GuildID string `json:"guildId" db:"guild_id"`

	// Name is the display name, resynchronized from the presence service on every read.
	Name string `json:"name" db:"name"`

	// Role is a key into the static role table (e.g., "user", "admin").
	// It is looked up, never enforced, by this package.
	Role string `json:"role" db:"role"`

	// Bot marks automated accounts.
	Bot bool `json:"bot" db:"bot"`

	// Private hides the user from public statistics.
	Private bool `json:"private" db:"private"`

	// Stats holds usage counters, stored as a JSON document.
	Stats UserStats `json:"stats" db:"stats"`
}

// NewUser builds a user with default role and zeroed statistics.
func NewUser(guildID string, author Author) *User {
	return &User{
		ID:      author.ID,
		GuildID: guildID,
		Name:    author.Username,
		Role:    DefaultRole,
		Bot:     author.Bot,
	}
}
