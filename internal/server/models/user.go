package models

import "time"

// DefaultDailyNorma is the daily water target, in millilitres, given to new users.
const DefaultDailyNorma = 2000

// User is an account. AccessToken is the snapshot of the most recently issued
// access token; a bearer token is only honoured while it equals this value.
// VerificationToken is cleared once the email address is verified.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	Name              *string
	Gender            *string
	Weight            *float64
	TimeActivity      *string
	DailyNorma        int
	AvatarURL         *string
	AccessToken       *string
	Verified          bool
	VerificationToken *string
	GoogleID          *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Profile holds the user-editable fields.
type Profile struct {
	Name         *string
	Gender       *string
	Weight       *float64
	TimeActivity *string
	DailyNorma   int
}
