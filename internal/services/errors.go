package services

import "errors"

// Code classifies the expected failures callers branch on.
type Code int

const (
	CodeUnknown Code = iota
	CodeNotFound
	CodeTokenExpired
	CodeTokenInvalid
	CodeMissingCredential
	CodeCredentialTaken
	CodeAccountNotFound
	CodeAuthorNotFound
	CodeUnknownRole
)

var codeNames = map[Code]string{
	CodeUnknown:           "unknown",
	CodeNotFound:          "not found",
	CodeTokenExpired:      "token expired",
	CodeTokenInvalid:      "invalid token",
	CodeMissingCredential: "missing credential",
	CodeCredentialTaken:   "credential already taken",
	CodeAccountNotFound:   "account not found",
	CodeAuthorNotFound:    "author not found",
	CodeUnknownRole:       "unknown role",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[CodeUnknown]
}

// Error is a tagged service failure. Two Errors match under errors.Is when
// their codes are equal, so callers compare against the sentinels below.
type Error struct {
	Code Code
	// Kind names the entity kind for CodeNotFound.
	Kind string
	// Reason carries the underlying failure name for CodeTokenInvalid.
	Reason string
}

func (e *Error) Error() string {
	msg := e.Code.String()
	if e.Kind != "" {
		msg = e.Kind + " " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

var (
	ErrNotFound          = &Error{Code: CodeNotFound}
	ErrTokenExpired      = &Error{Code: CodeTokenExpired}
	ErrTokenInvalid      = &Error{Code: CodeTokenInvalid}
	ErrMissingCredential = &Error{Code: CodeMissingCredential}
	ErrCredentialTaken   = &Error{Code: CodeCredentialTaken}
	ErrAccountNotFound   = &Error{Code: CodeAccountNotFound}
	ErrAuthorNotFound    = &Error{Code: CodeAuthorNotFound}
	ErrUnknownRole       = &Error{Code: CodeUnknownRole}
)

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

func notFound(kind string) error {
	return &Error{Code: CodeNotFound, Kind: kind}
}

func tokenInvalid(reason string) error {
	return &Error{Code: CodeTokenInvalid, Reason: reason}
}
