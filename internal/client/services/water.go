package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/client/client"
	"github.com/dmitrijs2005/aquatrack/internal/client/models"
)

const (
	minDrink = 1
	maxDrink = 5000

	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

type WaterService interface {
	Drink(ctx context.Context, amount int, at time.Time) (*models.WaterEntry, error)
	Day(ctx context.Context, day time.Time) (*models.DaySummary, error)
	// Month accepts "YYYY-MM"; "" means the current month.
	Month(ctx context.Context, month string) (*models.MonthSummary, error)
}

type waterService struct {
	client client.Client
}

func NewWaterService(c client.Client) WaterService {
	return &waterService{client: c}
}

func (w *waterService) Drink(ctx context.Context, amount int, at time.Time) (*models.WaterEntry, error) {
	if amount < minDrink || amount > maxDrink {
		return nil, fmt.Errorf("%w: amount must be within %d..%d ml", ErrInvalidInput, minDrink, maxDrink)
	}
	return w.client.AddWater(ctx, at, amount)
}

func (w *waterService) Day(ctx context.Context, day time.Time) (*models.DaySummary, error) {
	return w.client.Day(ctx, day.UTC().Format(dayLayout))
}

func (w *waterService) Month(ctx context.Context, month string) (*models.MonthSummary, error) {
	if month != "" {
		if _, err := time.Parse(monthLayout, month); err != nil {
			return nil, fmt.Errorf("%w: month must look like 2024-03", ErrInvalidInput)
		}
	}
	return w.client.Month(ctx, month)
}
