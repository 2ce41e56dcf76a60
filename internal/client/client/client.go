package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/client/models"
)

type Client interface {
	Register(ctx context.Context, email string, password []byte) error
	Login(ctx context.Context, email string, password []byte) error
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*models.Profile, error)
	AddWater(ctx context.Context, date time.Time, amount int) (*models.WaterEntry, error)
	Day(ctx context.Context, day string) (*models.DaySummary, error)
	Month(ctx context.Context, month string) (*models.MonthSummary, error)
	AvatarUpload(ctx context.Context) (key string, uploadURL string, err error)
	ConfirmAvatar(ctx context.Context, key string) (string, error)
	Ping(ctx context.Context) error
}

// TokenStore keeps the session between CLI invocations.
type TokenStore interface {
	Load(ctx context.Context) (models.Tokens, error)
	Save(ctx context.Context, t models.Tokens) error
	Clear(ctx context.Context) error
}
