package models

import "time"

// RefreshToken is the one stored refresh token of a user. Issuing a new one
// overwrites it, so a token that is not stored here has been superseded.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// Expired reports whether the stored row has outlived its token.
func (r *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(r.Expires)
}

// Matches reports whether the row belongs to userID and is still usable at now.
func (r *RefreshToken) Matches(userID string, now time.Time) bool {
	return r.UserID == userID && !r.Expired(now)
}
