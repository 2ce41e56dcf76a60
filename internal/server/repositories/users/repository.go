package users

import (
	"context"

	"github.com/dmitrijs2005/aquatrack/internal/server/models"
)

// Repository persists user accounts. Lookups return common.ErrorNotFound when
// nothing matches; Create returns common.ErrorConflict for a taken email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*models.User, error)
	SetAccessToken(ctx context.Context, id string, token *string) error
	MarkVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	LinkGoogle(ctx context.Context, id string, googleID string, name string, verify bool) error
	UpdateProfile(ctx context.Context, id string, profile models.Profile) (*models.User, error)
	SetAvatarURL(ctx context.Context, id string, url string) error
	Count(ctx context.Context) (int64, error)
}
