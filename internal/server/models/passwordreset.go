package models

import "time"

// PasswordReset is the live reset request of a user. Token is itself a signed,
// time-boxed token, so expiry is checked on the token rather than stored here.
type PasswordReset struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}
