package waters

import (
	"context"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/server/models"
)

// Repository stores water entries. Every operation is scoped to the owner;
// an entry belonging to someone else behaves as absent.
type Repository interface {
	Create(ctx context.Context, entry *models.WaterEntry) (*models.WaterEntry, error)
	Update(ctx context.Context, entry *models.WaterEntry) (*models.WaterEntry, error)
	Delete(ctx context.Context, ownerID string, id string) (*models.WaterEntry, error)
	ListRange(ctx context.Context, ownerID string, from, to time.Time) ([]models.WaterEntry, error)
	DailyTotals(ctx context.Context, ownerID string, from, to time.Time) ([]models.DayTotal, error)
}
