package types

// Role describes a named permission tier from the static role table.
type Role struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}
