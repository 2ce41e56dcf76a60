package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/google/uuid"
)

// OAuthURL is the provider consent page the browser is redirected to.
func (s *UserService) OAuthURL() string {
	return s.provider.AuthURL()
}

// OAuthLogin completes the provider callback. Accounts are matched by email:
// a new email creates an account, an existing one is linked in place. Any
// provider failure is returned as common.ErrorInternal.
func (s *UserService) OAuthLogin(ctx context.Context, code string) (session *Session, err error) {
	defer func() { s.record("oauth_login", err) }()

	info, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, s.internal(ctx, "oauth exchange", err)
	}

	users := s.repomanager.Users(s.db)

	user, err := users.GetByEmail(ctx, info.Email)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		user, err = s.createOAuthUser(ctx, info.Email, info.Name, info.ID)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, s.internal(ctx, "lookup user", err)
	default:
		if err = users.LinkGoogle(ctx, user.ID, info.ID, info.Name, s.oauthAutoVerify); err != nil {
			return nil, s.internal(ctx, "link google account", err)
		}
		user.GoogleID = &info.ID
		user.Name = &info.Name
		if s.oauthAutoVerify && !user.Verified {
			user.Verified = true
			user.VerificationToken = nil
		}
	}

	if !user.Verified {
		return nil, common.NewError(common.ErrorUnauthorized, MsgVerifyEmail)
	}

	return s.startSession(ctx, user)
}

// createOAuthUser stores an account that never signs in with a password; its
// hash is of a random value nobody knows.
func (s *UserService) createOAuthUser(ctx context.Context, email, name, googleID string) (*models.User, error) {
	secret, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, s.internal(ctx, "random password", err)
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	avatarURL := ComputeAvatarURL(email)
	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         &name,
		GoogleID:     &googleID,
		AvatarURL:    &avatarURL,
		Verified:     s.oauthAutoVerify,
		DailyNorma:   models.DefaultDailyNorma,
	}
	if !user.Verified {
		vt := uuid.NewString()
		user.VerificationToken = &vt
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, s.internal(ctx, "create oauth user", err)
	}
	s.log.Info(ctx, "user registered via google", "user_id", created.ID)
	return created, nil
}
