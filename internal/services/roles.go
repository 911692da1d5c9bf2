package services

import "github.com/dbh-bot/dbh/types"

// RoleTable is the static role configuration. It is read-only after startup.
type RoleTable map[string]types.Role

// DefaultRoles returns the built-in role table.
func DefaultRoles() RoleTable {
	return RoleTable{
		"user":      {Name: "user", Level: 0},
		"moderator": {Name: "moderator", Level: 50},
		"admin":     {Name: "admin", Level: 90},
		"owner":     {Name: "owner", Level: 100},
	}
}

// Role looks up a role by name.
func (t RoleTable) Role(name string) (types.Role, bool) {
	role, ok := t[name]
	return role, ok
}
