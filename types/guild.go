package types

// DiscordGuild is the upstream view of a guild.
type DiscordGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GuildCommands toggles optional command groups for a guild.
type GuildCommands struct {
	Debug bool `json:"debug"`
	Games bool `json:"games"`
	Main  bool `json:"main"`
	Music bool `json:"music"`
}

// Guild holds per-guild bot settings.
type Guild struct {
	// ID is the upstream guild id.
	ID string `json:"id" db:"id"`

	// Name is resynchronized from the upstream guild on every read.
	Name string `json:"name" db:"name"`

	// Prefix is the command prefix used in this guild.
	Prefix string `json:"prefix" db:"prefix"`

	// Private hides the guild from public listings.
	Private bool `json:"private" db:"private"`

	// Commands is stored as a JSON document.
	Commands GuildCommands `json:"commands" db:"commands"`
}

// NewGuild builds a public guild with the given prefix and every command group disabled.
func NewGuild(guild DiscordGuild, prefix string) *Guild {
	return &Guild{
		ID:     guild.ID,
		Name:   guild.Name,
		Prefix: prefix,
	}
}
