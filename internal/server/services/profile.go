package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/repomanager"
)

const (
	MinDailyNorma = 1
	MaxDailyNorma = 50000
)

// AvatarUploader presigns uploads and resolves public URLs for stored objects.
type AvatarUploader interface {
	PresignUpload(ctx context.Context, userID string) (key string, uploadURL string, err error)
	PublicURL(key string) string
}

// SummaryInvalidator drops cached water summaries of a user.
type SummaryInvalidator interface {
	Invalidate(ctx context.Context, ownerID string) error
}

// ProfileService serves the signed-in user's own account data.
type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	avatars     AvatarUploader
	invalidator SummaryInvalidator
	log         logging.Logger
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, avatars AvatarUploader, log logging.Logger) *ProfileService {
	return &ProfileService{db: db, repomanager: m, avatars: avatars, log: log.With("module", "profile")}
}

// WithInvalidator is called after profile changes that affect summaries.
func (s *ProfileService) WithInvalidator(inv SummaryInvalidator) *ProfileService {
	s.invalidator = inv
	return s
}

func (s *ProfileService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op, "error", err)
	return common.ErrorInternal
}

func (s *ProfileService) notFound(ctx context.Context, op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.NewError(common.ErrorNotFound, MsgUserNotFound)
	}
	return s.internal(ctx, op, err)
}

func (s *ProfileService) Current(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, s.notFound(ctx, "lookup user", err)
	}
	return user, nil
}

func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, p models.Profile) (*models.User, error) {
	if p.DailyNorma < MinDailyNorma || p.DailyNorma > MaxDailyNorma {
		return nil, common.NewError(common.ErrorBadRequest, "dailyNorma must be between 1 and 50000")
	}
	if p.Weight != nil && *p.Weight < 0 {
		return nil, common.NewError(common.ErrorBadRequest, "weight must not be negative")
	}

	user, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, p)
	if err != nil {
		return nil, s.notFound(ctx, "update profile", err)
	}

	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, userID); err != nil {
			s.log.Warn(ctx, "summary cache invalidation failed", "user_id", userID, "error", err)
		}
	}
	return user, nil
}

func (s *ProfileService) Count(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Users(s.db).Count(ctx)
	if err != nil {
		return 0, s.internal(ctx, "count users", err)
	}
	return n, nil
}

// AvatarUpload returns an object key and a presigned PUT URL for it.
func (s *ProfileService) AvatarUpload(ctx context.Context, userID string) (string, string, error) {
	key, url, err := s.avatars.PresignUpload(ctx, userID)
	if err != nil {
		return "", "", s.internal(ctx, "presign avatar upload", err)
	}
	return key, url, nil
}

// ConfirmAvatar points the avatar at an uploaded object. Keys outside the
// caller's prefix are rejected.
func (s *ProfileService) ConfirmAvatar(ctx context.Context, userID string, key string) (string, error) {
	prefix := KeyPrefix(userID)
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) || strings.Contains(key, "..") {
		return "", common.NewError(common.ErrorBadRequest, "Invalid avatar key")
	}

	url := s.avatars.PublicURL(key)
	if err := s.repomanager.Users(s.db).SetAvatarURL(ctx, userID, url); err != nil {
		return "", s.notFound(ctx, "set avatar", err)
	}
	return url, nil
}
