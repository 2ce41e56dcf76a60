package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/server/models"
)

// Repository stores at most one refresh token per user.
type Repository interface {
	Upsert(ctx context.Context, userID string, token string, validity time.Duration) error
	FindByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteByToken(ctx context.Context, token string) error
}
