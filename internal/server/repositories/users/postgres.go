// Package users provides the PostgreSQL-backed account repository.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
)

const userColumns = `id, email, password_hash, name, gender, weight, time_activity, daily_norma,
		avatar_url, access_token, verified, verification_token, google_id, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Gender, &u.Weight, &u.TimeActivity,
		&u.DailyNorma, &u.AvatarURL, &u.AccessToken, &u.Verified, &u.VerificationToken, &u.GoogleID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// expectOne turns "no row updated" into common.ErrorNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, name, avatar_url, verified, verification_token, google_id, daily_norma)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`

	if user.DailyNorma == 0 {
		user.DailyNorma = models.DefaultDailyNorma
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Name, user.AvatarURL, user.Verified,
		user.VerificationToken, user.GoogleID, user.DailyNorma,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) GetByVerificationToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

// SetAccessToken stores the access-token snapshot; nil clears it.
func (r *PostgresRepository) SetAccessToken(ctx context.Context, id string, token *string) error {
	query := `UPDATE users SET access_token = $2, updated_at = now() WHERE id = $1`
	return expectOne(r.db.ExecContext(ctx, query, id, token))
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET verified = TRUE, verification_token = NULL, updated_at = now() WHERE id = $1`
	return expectOne(r.db.ExecContext(ctx, query, id))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	return expectOne(r.db.ExecContext(ctx, query, id, passwordHash))
}

// LinkGoogle records the provider subject and display name. With verify set
// the account also becomes verified; it never becomes unverified here.
func (r *PostgresRepository) LinkGoogle(ctx context.Context, id string, googleID string, name string, verify bool) error {
	query :=
		`UPDATE users
		 SET google_id = $2, name = $3,
		     verified = verified OR $4,
		     verification_token = CASE WHEN $4 THEN NULL ELSE verification_token END,
		     updated_at = now()
		 WHERE id = $1`
	return expectOne(r.db.ExecContext(ctx, query, id, googleID, name, verify))
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, p models.Profile) (*models.User, error) {
	query :=
		`UPDATE users
		 SET name = $2, gender = $3, weight = $4, time_activity = $5, daily_norma = $6, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, id, p.Name, p.Gender, p.Weight, p.TimeActivity, p.DailyNorma))
}

func (r *PostgresRepository) SetAvatarURL(ctx context.Context, id string, url string) error {
	query := `UPDATE users SET avatar_url = $2, updated_at = now() WHERE id = $1`
	return expectOne(r.db.ExecContext(ctx, query, id, url))
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
