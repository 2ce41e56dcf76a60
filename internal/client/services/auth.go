// Package services contains the use cases behind the CLI commands. They
// validate input locally and delegate to the API client.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/dmitrijs2005/aquatrack/internal/client/client"
	"github.com/dmitrijs2005/aquatrack/internal/client/models"
	"github.com/dmitrijs2005/aquatrack/internal/common"
)

const minPasswordLength = 8

var ErrInvalidInput = errors.New("invalid input")

// AuthService defines the account operations of the CLI.
type AuthService interface {
	Register(ctx context.Context, email string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) (*models.Profile, error)
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
}

func NewAuthService(c client.Client) AuthService {
	return &authService{client: c}
}

func validateCredentials(email string, password []byte) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %q is not an email address", ErrInvalidInput, email)
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

// Register creates the account. The server mails a verification link; login
// is refused until it is followed.
func (a *authService) Register(ctx context.Context, email string, password []byte) error {
	defer common.WipeByteArray(password)

	if err := validateCredentials(email, password); err != nil {
		return err
	}
	return a.client.Register(ctx, email, password)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) error {
	defer common.WipeByteArray(password)

	if err := validateCredentials(email, password); err != nil {
		return err
	}
	return a.client.Login(ctx, email, password)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.client.Logout(ctx)
}

func (a *authService) WhoAmI(ctx context.Context) (*models.Profile, error) {
	return a.client.Current(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
