package passwordresets

import (
	"context"

	"github.com/dmitrijs2005/aquatrack/internal/server/models"
)

// Repository keeps at most one reset request per user. Records are never
// updated; a stale one is deleted and a fresh one created.
type Repository interface {
	Create(ctx context.Context, userID string, token string) (*models.PasswordReset, error)
	FindByUserID(ctx context.Context, userID string) (*models.PasswordReset, error)
	FindByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	Delete(ctx context.Context, id string) error
}
