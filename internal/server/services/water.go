package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// WaterTracker is the owner-scoped water log. Entries of other users behave
// as if they did not exist.
type WaterTracker interface {
	Add(ctx context.Context, ownerID string, date time.Time, amount int) (*models.WaterEntry, error)
	Update(ctx context.Context, ownerID string, id string, date time.Time, amount int) (*models.WaterEntry, error)
	Delete(ctx context.Context, ownerID string, id string) error
	Day(ctx context.Context, ownerID string, day time.Time) (*DaySummary, error)
	Month(ctx context.Context, ownerID string, month time.Time) (*MonthSummary, error)
}

type DaySummary struct {
	Date       string              `json:"date"`
	Entries    []models.WaterEntry `json:"entries"`
	Total      int                 `json:"total"`
	DailyNorma int                 `json:"dailyNorma"`
	Percent    int                 `json:"percent"`
	Count      int                 `json:"count"`
}

type MonthDay struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

type MonthSummary struct {
	Month      string     `json:"month"`
	DailyNorma int        `json:"dailyNorma"`
	Days       []MonthDay `json:"days"`
}

// ParseDay parses YYYY-MM-DD as a UTC day.
func ParseDay(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DayLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, common.NewError(common.ErrorBadRequest, "date must be YYYY-MM-DD")
	}
	return d, nil
}

// ParseMonth parses YYYY-MM as the first UTC day of that month.
func ParseMonth(s string) (time.Time, error) {
	m, err := time.ParseInLocation(MonthLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, common.NewError(common.ErrorBadRequest, "month must be YYYY-MM")
	}
	return m, nil
}

// Percent is total as a rounded share of norma; it is not capped at 100.
func Percent(total, norma int) int {
	if norma <= 0 {
		return 0
	}
	return int(math.Round(float64(total) * 100 / float64(norma)))
}

type WaterService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewWaterService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *WaterService {
	return &WaterService{db: db, repomanager: m, log: log.With("module", "water")}
}

func (s *WaterService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op, "error", err)
	return common.ErrorInternal
}

func checkAmount(amount int) error {
	if amount < models.MinWaterAmount || amount > models.MaxWaterAmount {
		return common.NewError(common.ErrorBadRequest,
			fmt.Sprintf("amount must be between %d and %d", models.MinWaterAmount, models.MaxWaterAmount))
	}
	return nil
}

var errEntryNotFound = common.NewError(common.ErrorNotFound, "Entry not found")

func (s *WaterService) Add(ctx context.Context, ownerID string, date time.Time, amount int) (*models.WaterEntry, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	e, err := s.repomanager.Waters(s.db).Create(ctx, &models.WaterEntry{OwnerID: ownerID, Date: date.UTC(), Amount: amount})
	if err != nil {
		return nil, s.internal(ctx, "create entry", err)
	}
	return e, nil
}

func (s *WaterService) Update(ctx context.Context, ownerID string, id string, date time.Time, amount int) (*models.WaterEntry, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, errEntryNotFound
	}

	e, err := s.repomanager.Waters(s.db).Update(ctx, &models.WaterEntry{ID: id, OwnerID: ownerID, Date: date.UTC(), Amount: amount})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, errEntryNotFound
		}
		return nil, s.internal(ctx, "update entry", err)
	}
	return e, nil
}

func (s *WaterService) Delete(ctx context.Context, ownerID string, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errEntryNotFound
	}
	if _, err := s.repomanager.Waters(s.db).Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return errEntryNotFound
		}
		return s.internal(ctx, "delete entry", err)
	}
	return nil
}

func (s *WaterService) dailyNorma(ctx context.Context, ownerID string) (int, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return 0, s.internal(ctx, "lookup user", err)
	}
	return user.DailyNorma, nil
}

// Day summarises entries in [day 00:00, next day 00:00) UTC.
func (s *WaterService) Day(ctx context.Context, ownerID string, day time.Time) (*DaySummary, error) {
	norma, err := s.dailyNorma(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	entries, err := s.repomanager.Waters(s.db).ListRange(ctx, ownerID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, s.internal(ctx, "list entries", err)
	}

	total := 0
	for _, e := range entries {
		total += e.Amount
	}

	return &DaySummary{
		Date:       from.Format(DayLayout),
		Entries:    entries,
		Total:      total,
		DailyNorma: norma,
		Percent:    Percent(total, norma),
		Count:      len(entries),
	}, nil
}

// Month lists per-day totals for the days of month that have entries.
func (s *WaterService) Month(ctx context.Context, ownerID string, month time.Time) (*MonthSummary, error) {
	norma, err := s.dailyNorma(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	totals, err := s.repomanager.Waters(s.db).DailyTotals(ctx, ownerID, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, s.internal(ctx, "daily totals", err)
	}

	days := make([]MonthDay, 0, len(totals))
	for _, t := range totals {
		days = append(days, MonthDay{
			Date:    t.Date.UTC().Format(DayLayout),
			Total:   t.Total,
			Count:   t.Count,
			Percent: Percent(t.Total, norma),
		})
	}

	return &MonthSummary{Month: from.Format(MonthLayout), DailyNorma: norma, Days: days}, nil
}
