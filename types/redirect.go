package types

// RedirectLink is a short link that forwards to URL.
type RedirectLink struct {
	// ID is the opaque link id.
	ID string `json:"id" db:"id"`

	// URL is the redirect target.
	URL string `json:"url" db:"url"`

	// Message is shown alongside the link when it is posted.
	Message string `json:"message" db:"message"`

	// Redirected counts followed redirects. It never decreases.
	Redirected int64 `json:"redirected" db:"redirected"`
}
