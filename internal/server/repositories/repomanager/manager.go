package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/passwordresets"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/users"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/waters"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code runs
// against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	PasswordResets(db dbx.DBTX) passwordresets.Repository
	Waters(db dbx.DBTX) waters.Repository
}
