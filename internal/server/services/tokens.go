package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/server/auth"
	"github.com/dmitrijs2005/aquatrack/internal/server/config"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints and checks the three token kinds. Each kind has its own
// secret. Refresh tokens are also backed by the single stored record per user.
type TokenService struct {
	repomanager repomanager.RepositoryManager

	accessSecret  []byte
	refreshSecret []byte
	resetSecret   []byte

	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
}

func NewTokenService(m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		repomanager:   m,
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		resetSecret:   []byte(cfg.ResetSecret),
		accessTTL:     cfg.AccessTokenValidityDuration,
		refreshTTL:    cfg.RefreshTokenValidityDuration,
		resetTTL:      cfg.ResetTokenValidityDuration,
	}
}

// IssuePair always mints both tokens together.
func (s *TokenService) IssuePair(p auth.Payload) (*TokenPair, error) {
	access, err := auth.GenerateToken(p, s.accessSecret, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := auth.GenerateToken(p, s.refreshSecret, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Persist replaces the user's refresh record, so any earlier refresh token
// stops working.
func (s *TokenService) Persist(ctx context.Context, db dbx.DBTX, userID string, refreshToken string) error {
	return s.repomanager.RefreshTokens(db).Upsert(ctx, userID, refreshToken, s.refreshTTL)
}

// Revoke deletes the record holding refreshToken. Unknown tokens are ignored.
func (s *TokenService) Revoke(ctx context.Context, db dbx.DBTX, refreshToken string) error {
	return s.repomanager.RefreshTokens(db).DeleteByToken(ctx, refreshToken)
}

// Rotate exchanges a presented refresh token for a new pair. A bad signature,
// an expired token and a token that is no longer stored all yield
// common.ErrorUnauthorized.
func (s *TokenService) Rotate(ctx context.Context, db dbx.DBTX, presented string) (*TokenPair, *models.User, error) {
	claims, err := s.ValidateRefresh(presented)
	if err != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	record, err := s.repomanager.RefreshTokens(db).FindByToken(ctx, presented)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, err
	}
	if !record.Matches(claims.UserID, time.Now()) {
		return nil, nil, common.ErrorUnauthorized
	}

	user, err := s.repomanager.Users(db).GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, err
	}

	pair, err := s.IssuePair(auth.Payload{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, nil, err
	}
	if err := s.Persist(ctx, db, user.ID, pair.RefreshToken); err != nil {
		return nil, nil, err
	}
	return pair, user, nil
}

// ValidateAccess checks signature and expiry only.
func (s *TokenService) ValidateAccess(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.accessSecret)
}

// ValidateRefresh checks signature and expiry only; Rotate adds the storage check.
func (s *TokenService) ValidateRefresh(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.refreshSecret)
}

func (s *TokenService) IssueResetToken(p auth.Payload) (string, error) {
	return auth.GenerateToken(p, s.resetSecret, s.resetTTL)
}

func (s *TokenService) ValidateReset(token string) (*auth.Claims, error) {
	return auth.ParseToken(token, s.resetSecret)
}
