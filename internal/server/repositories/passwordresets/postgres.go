// Package passwordresets stores pending password reset requests in PostgreSQL.
package passwordresets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create returns common.ErrorConflict if the user already has a record.
func (r *PostgresRepository) Create(ctx context.Context, userID string, token string) (*models.PasswordReset, error) {
	query := `
		INSERT INTO password_resets (user_id, token)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	pr := &models.PasswordReset{UserID: userID, Token: token}
	if err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return pr, nil
}

func (r *PostgresRepository) find(ctx context.Context, column string, value string) (*models.PasswordReset, error) {
	query := `SELECT id, user_id, token, created_at FROM password_resets WHERE ` + column + ` = $1`

	pr := &models.PasswordReset{}
	err := r.db.QueryRowContext(ctx, query, value).Scan(&pr.ID, &pr.UserID, &pr.Token, &pr.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return pr, nil
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) (*models.PasswordReset, error) {
	return r.find(ctx, "user_id", userID)
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	return r.find(ctx, "token", token)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM password_resets WHERE id = $1`, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
