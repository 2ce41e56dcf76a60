// Package mail delivers the account emails: address verification and
// password reset.
package mail

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Message is a single HTML email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

const (
	VerificationSubject = "Verify email"
	ResetSubject        = "Reset password"
)

// VerificationLink points at the API endpoint that redeems token.
func VerificationLink(baseURI string, token string) string {
	return strings.TrimRight(baseURI, "/") + "/api/auth/verify/" + url.PathEscape(token)
}

// ResetLink points at the frontend page that collects the new password.
func ResetLink(frontendURL string, token string) string {
	return strings.TrimRight(frontendURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func VerificationMessage(to string, baseURI string, token string) Message {
	link := VerificationLink(baseURI, token)
	return Message{
		To:      to,
		Subject: VerificationSubject,
		HTML: fmt.Sprintf(`<h1>Welcome to AquaTrack</h1>
<p>Please confirm your email address:</p>
<a target="_blank" href="%s">Click to verify email</a>`, link),
	}
}

func ResetMessage(to string, frontendURL string, token string) Message {
	link := ResetLink(frontendURL, token)
	return Message{
		To:      to,
		Subject: ResetSubject,
		HTML: fmt.Sprintf(`<h1>Password reset</h1>
<p>The link below is valid for a short time. If you did not ask for it, ignore this email.</p>
<a target="_blank" href="%s">Click to reset password</a>`, link),
	}
}
