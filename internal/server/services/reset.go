package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/server/auth"
	"github.com/dmitrijs2005/aquatrack/internal/server/mail"
)

// ResetInput is the redeem half of a password reset.
type ResetInput struct {
	Password       string
	RepeatPassword string
	ResetToken     string
}

// RequestPasswordReset mails a reset link. While the stored token still
// validates, repeated requests resend the same token; an expired record is
// deleted and replaced.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer func() { s.record("reset_request", err) }()

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return s.internal(ctx, "lookup user", err)
	}

	resets := s.repomanager.PasswordResets(s.db)

	token := ""
	existing, err := resets.FindByUserID(ctx, user.ID)
	switch {
	case err == nil:
		if _, verr := s.tokens.ValidateReset(existing.Token); verr == nil {
			token = existing.Token
		} else if err = resets.Delete(ctx, existing.ID); err != nil {
			return s.internal(ctx, "delete expired reset", err)
		}
	case !errors.Is(err, common.ErrorNotFound):
		return s.internal(ctx, "lookup reset", err)
	}

	if token == "" {
		token, err = s.tokens.IssueResetToken(auth.Payload{UserID: user.ID, Email: user.Email})
		if err != nil {
			return s.internal(ctx, "issue reset token", err)
		}
		if _, err = resets.Create(ctx, user.ID, token); err != nil {
			return s.internal(ctx, "create reset", err)
		}
	}

	if err = s.mailer.Send(ctx, mail.ResetMessage(user.Email, s.frontendURL, token)); err != nil {
		return s.internal(ctx, "send reset email", err)
	}
	return nil
}

// ResetPassword redeems a reset token. Payload checks come first, so a
// password mismatch is reported without looking at the token.
func (s *UserService) ResetPassword(ctx context.Context, in ResetInput) (err error) {
	defer func() { s.record("reset_redeem", err) }()

	if in.Password == "" || in.RepeatPassword == "" || in.ResetToken == "" {
		return common.NewError(common.ErrorBadRequest, MsgResetFields)
	}
	if in.Password != in.RepeatPassword {
		return common.NewError(common.ErrorBadRequest, MsgPasswordMismatch)
	}
	if len(in.Password) < MinPasswordLength {
		return common.NewError(common.ErrorBadRequest, MsgPasswordTooShort)
	}

	claims, err := s.tokens.ValidateReset(in.ResetToken)
	if err != nil {
		return common.NewError(common.ErrorUnauthorized, MsgInvalidToken)
	}

	record, err := s.repomanager.PasswordResets(s.db).FindByToken(ctx, in.ResetToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorUnauthorized, MsgInvalidToken)
		}
		return s.internal(ctx, "lookup reset", err)
	}
	if record.UserID != claims.UserID {
		return common.NewError(common.ErrorUnauthorized, MsgInvalidToken)
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorNotFound, MsgUserNotFound)
		}
		return s.internal(ctx, "lookup user", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return s.internal(ctx, "hash password", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.repomanager.PasswordResets(tx).Delete(ctx, record.ID)
	})
	if err != nil {
		return s.internal(ctx, "update password", err)
	}

	s.log.Info(ctx, "password reset", "user_id", user.ID)
	return nil
}
