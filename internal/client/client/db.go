package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/aquatrack/internal/client/migrations"
	"github.com/dmitrijs2005/aquatrack/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the sqlite file at path, creating its directory when
// needed, and brings its schema up to date.
func InitDatabase(ctx context.Context, path string) (*sql.DB, error) {
	dsn, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
