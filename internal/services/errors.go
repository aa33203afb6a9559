package services

import (
	"errors"
	"strings"
)

// Error kinds. Handlers map these onto status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidInput    = errors.New("invalid input")
)

// Error pairs a kind with the message shown to API clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

var (
	ErrUsernameTaken      = &Error{Kind: ErrConflict, Message: "Username already taken."}
	ErrEmailTaken         = &Error{Kind: ErrConflict, Message: "Email already taken."}
	ErrUserNotFound       = &Error{Kind: ErrNotFound, Message: "User not found"}
	ErrPostNotFound       = &Error{Kind: ErrNotFound, Message: "Post not found"}
	ErrEditForbidden      = &Error{Kind: ErrForbidden, Message: "Not authorized to edit this post"}
	ErrDeleteForbidden    = &Error{Kind: ErrForbidden, Message: "Not authorized to delete this post."}
	ErrAccountForbidden   = &Error{Kind: ErrForbidden, Message: "You can only delete your own account."}
	ErrInvalidCredentials = &Error{Kind: ErrUnauthenticated, Message: "Invalid username or password"}
	ErrInvalidToken       = &Error{Kind: ErrUnauthenticated, Message: "Could not validate credentials"}
	ErrInvalidVote        = &Error{Kind: ErrInvalidInput, Message: "Vote must be 'upvote' or 'downvote'"}
	ErrEmptySearch        = &Error{Kind: ErrInvalidInput, Message: "Search query must not be empty"}
)

func invalidInput(message string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: message}
}

// likePattern builds a case-insensitive substring pattern for q with LIKE
// wildcards escaped, for use with ESCAPE '\'.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}
