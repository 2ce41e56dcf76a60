package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/server/mail"
)

// VerifyEmail redeems a verification token. The token is cleared on success,
// so redeeming it again reports the user as not found.
func (s *UserService) VerifyEmail(ctx context.Context, token string) (err error) {
	defer func() { s.record("verify", err) }()

	users := s.repomanager.Users(s.db)

	user, err := users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return s.internal(ctx, "lookup verification token", err)
	}

	if err = users.MarkVerified(ctx, user.ID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return s.internal(ctx, "mark verified", err)
	}

	s.log.Info(ctx, "email verified", "user_id", user.ID)
	return nil
}

// ResendVerification mails the stored verification token again; no new
// token is minted.
func (s *UserService) ResendVerification(ctx context.Context, email string) (err error) {
	defer func() { s.record("resend_verification", err) }()

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return s.internal(ctx, "lookup user", err)
	}

	if user.Verified {
		return common.NewError(common.ErrorBadRequest, MsgAlreadyVerified)
	}
	if user.VerificationToken == nil {
		return s.internal(ctx, "resend verification", errors.New("unverified user without verification token"))
	}

	if err = s.mailer.Send(ctx, mail.VerificationMessage(user.Email, s.baseURI, *user.VerificationToken)); err != nil {
		return s.internal(ctx, "send verification email", err)
	}
	return nil
}
