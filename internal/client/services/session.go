package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/aquatrack/internal/client/models"
	"github.com/dmitrijs2005/aquatrack/internal/client/repositories/session"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyEmail        = "email"
)

// SessionStore keeps the token pair of the signed-in user in the local
// sqlite database. It implements client.TokenStore.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) repo(db dbx.DBTX) session.Repository {
	return session.NewSQLiteRepository(db)
}

func (s *SessionStore) Load(ctx context.Context) (models.Tokens, error) {
	var t models.Tokens
	r := s.repo(s.db)

	for key, dst := range map[string]*string{
		keyAccessToken:  &t.Access,
		keyRefreshToken: &t.Refresh,
		keyEmail:        &t.Email,
	} {
		v, err := r.Get(ctx, key)
		if err != nil {
			return models.Tokens{}, err
		}
		*dst = v
	}
	return t, nil
}

// Save writes the pair in one transaction. An empty Email keeps the stored one.
func (s *SessionStore) Save(ctx context.Context, t models.Tokens) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := s.repo(tx)
		if err := r.Set(ctx, keyAccessToken, t.Access); err != nil {
			return err
		}
		if err := r.Set(ctx, keyRefreshToken, t.Refresh); err != nil {
			return err
		}
		if t.Email == "" {
			return nil
		}
		return r.Set(ctx, keyEmail, t.Email)
	})
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.repo(s.db).Clear(ctx)
}
