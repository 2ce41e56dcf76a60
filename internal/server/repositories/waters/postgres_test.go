package waters

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "owner_id", "date", "amount", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	d := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+water_entries\s*\(owner_id,\s*date,\s*amount\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING`).
		WithArgs("u1", d, 250).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("w1", "u1", d, 250, now, now))

	e, err := repo.Create(context.Background(), &models.WaterEntry{OwnerID: "u1", Date: d, Amount: 250})
	require.NoError(t, err)
	assert.Equal(t, "w1", e.ID)
	assert.Equal(t, 250, e.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotOwned(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)UPDATE\s+water_entries.*WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2`).
		WithArgs("w1", "u2", sqlmock.AnyArg(), 100).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &models.WaterEntry{ID: "w1", OwnerID: "u2", Date: time.Now(), Amount: 100})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	d := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)DELETE\s+FROM\s+water_entries\s+WHERE\s+id\s*=\s*\$1\s+AND\s+owner_id\s*=\s*\$2\s+RETURNING`).
		WithArgs("w1", "u1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("w1", "u1", d, 250, d, d))

	e, err := repo.Delete(context.Background(), "u1", "w1")
	require.NoError(t, err)
	assert.True(t, e.Date.Equal(d))
}

func TestDelete_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`DELETE\s+FROM\s+water_entries`).WillReturnError(errors.New("db down"))

	_, err := repo.Delete(context.Background(), "u1", "w1")
	assert.Regexp(t, `db error: .*db down`, err)
}

func TestListRange(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	mock.ExpectQuery(`(?s)SELECT\s+id,.*FROM\s+water_entries\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+date\s*>=\s*\$2\s+AND\s+date\s*<\s*\$3\s+ORDER\s+BY\s+date`).
		WithArgs("u1", from, to).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("w1", "u1", from.Add(time.Hour), 200, from, from).
			AddRow("w2", "u1", from.Add(2*time.Hour), 300, from, from))

	got, err := repo.ListRange(context.Background(), "u1", from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "w2", got[1].ID)
}

func TestListRange_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+water_entries`).WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.ListRange(context.Background(), "u1", time.Now(), time.Now())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDailyTotals(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	mock.ExpectQuery(`(?s)SELECT\s+date_trunc\('day'.*SUM\(amount\),\s*COUNT\(\*\).*GROUP\s+BY\s+day`).
		WithArgs("u1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "sum", "count"}).
			AddRow(from, 1500, 4).
			AddRow(from.AddDate(0, 0, 2), 800, 2))

	got, err := repo.DailyTotals(context.Background(), "u1", from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.DayTotal{Date: from, Total: 1500, Count: 4}, got[0])
}

func TestDailyTotals_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`date_trunc`).WillReturnError(errors.New("db down"))

	_, err := repo.DailyTotals(context.Background(), "u1", time.Now(), time.Now())
	assert.Error(t, err)
}
