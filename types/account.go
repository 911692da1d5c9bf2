package types

// WebAccount is a login for the web dashboard.
// Login and Email are each unique across accounts.
type WebAccount struct {
	// ID is the storage identifier, assigned on first save.
	ID int64 `json:"id" db:"id"`

	Login string `json:"login" db:"login"`
	Email string `json:"email" db:"email"`

	// PasswordHash is a bcrypt hash. It is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`
}
