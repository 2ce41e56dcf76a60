package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotLoggedIn  = errors.New("not logged in")
	// ErrSessionExpired means the refresh token was refused; log in again.
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx answer carrying the server's message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
