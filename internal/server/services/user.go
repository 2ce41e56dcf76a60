// Package services contains server-side business logic. UserService is the
// authentication orchestrator: registration, login, logout, refresh, the
// request guard, email verification, password reset and Google sign-in.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/dbx"
	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"github.com/dmitrijs2005/aquatrack/internal/server/auth"
	"github.com/dmitrijs2005/aquatrack/internal/server/config"
	"github.com/dmitrijs2005/aquatrack/internal/server/mail"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/dmitrijs2005/aquatrack/internal/server/oauth"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// User-visible messages. Login failures share one wording so the login path
// does not reveal which emails exist; register and forgot-password do reveal it.
const (
	MsgWrongCredentials = "Email or password is wrong"
	MsgVerifyEmail      = "Please verify your email"
	MsgEmailInUse       = "Email in use"
	MsgUserNotFound     = "User not found"
	MsgAlreadyVerified  = "Verification has already been passed"
	MsgNotAuthorized    = "Not authorized"
	MsgResetFields      = "password, repeatPassword and resetToken are required"
	MsgPasswordMismatch = "Passwords do not match"
	MsgInvalidToken     = "Invalid or expired token"
	MsgPasswordTooShort = "password must be at least 8 characters"
)

// MinPasswordLength matches the registration and login request rules, so a
// reset cannot store a password that login would refuse.
const MinPasswordLength = 8

// OAuthProvider is the identity provider behind "Sign in with Google".
type OAuthProvider interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) (*oauth.UserInfo, error)
}

// EventRecorder counts flow outcomes.
type EventRecorder interface {
	AuthEvent(event, outcome string)
}

type nopEvents struct{}

func (nopEvents) AuthEvent(string, string) {}

// Session is the result of every flow that signs a user in.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	hasher      auth.PasswordHasher
	mailer      mail.Sender
	provider    OAuthProvider
	events      EventRecorder
	log         logging.Logger

	baseURI         string
	frontendURL     string
	oauthAutoVerify bool
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, tokens *TokenService,
	hasher auth.PasswordHasher, mailer mail.Sender, provider OAuthProvider, log logging.Logger) *UserService {
	return &UserService{
		db:              db,
		repomanager:     m,
		tokens:          tokens,
		hasher:          hasher,
		mailer:          mailer,
		provider:        provider,
		events:          nopEvents{},
		log:             log.With("module", "users"),
		baseURI:         cfg.BaseURI,
		frontendURL:     cfg.FrontendURL,
		oauthAutoVerify: cfg.OAuthAutoVerify,
	}
}

// WithEvents sets the recorder for flow outcomes.
func (s *UserService) WithEvents(r EventRecorder) *UserService {
	s.events = r
	return s
}

func (s *UserService) record(event string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	s.events.AuthEvent(event, outcome)
}

// internal logs err and hides it behind common.ErrorInternal.
func (s *UserService) internal(ctx context.Context, op string, err error) error {
	s.log.Error(ctx, op, "error", err)
	return common.ErrorInternal
}

// Register creates an unverified account and mails the verification link.
func (s *UserService) Register(ctx context.Context, email, password string) (user *models.User, err error) {
	defer func() { s.record("register", err) }()

	users := s.repomanager.Users(s.db)

	_, err = users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.NewError(common.ErrorConflict, MsgEmailInUse)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "lookup user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, s.internal(ctx, "hash password", err)
	}

	verificationToken := uuid.NewString()
	avatarURL := ComputeAvatarURL(email)

	user, err = users.Create(ctx, &models.User{
		Email:             email,
		PasswordHash:      hash,
		AvatarURL:         &avatarURL,
		VerificationToken: &verificationToken,
		DailyNorma:        models.DefaultDailyNorma,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.NewError(common.ErrorConflict, MsgEmailInUse)
		}
		return nil, s.internal(ctx, "create user", err)
	}

	// the account stays on a failed send; ResendVerification mails the same token
	if err = s.mailer.Send(ctx, mail.VerificationMessage(email, s.baseURI, verificationToken)); err != nil {
		return nil, s.internal(ctx, "send verification email", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login runs a guard chain: unknown email, wrong password, unverified
// account. Each guard stops the flow before any token is minted.
func (s *UserService) Login(ctx context.Context, email, password string) (session *Session, err error) {
	defer func() { s.record("login", err) }()

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.NewError(common.ErrorUnauthorized, MsgWrongCredentials)
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, s.internal(ctx, "verify password", err)
	}
	if !ok {
		return nil, common.NewError(common.ErrorUnauthorized, MsgWrongCredentials)
	}

	if !user.Verified {
		return nil, common.NewError(common.ErrorUnauthorized, MsgVerifyEmail)
	}

	return s.startSession(ctx, user)
}

// startSession mints a pair, stores the refresh token and records the access
// token as the user's only valid one. Concurrent sign-ins of the same user
// are last-writer-wins on both records.
func (s *UserService) startSession(ctx context.Context, user *models.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(auth.Payload{UserID: user.ID, Email: user.Email})
	if err != nil {
		return nil, s.internal(ctx, "issue tokens", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.tokens.Persist(ctx, tx, user.ID, pair.RefreshToken); err != nil {
			return err
		}
		return s.repomanager.Users(tx).SetAccessToken(ctx, user.ID, &pair.AccessToken)
	})
	if err != nil {
		return nil, s.internal(ctx, "persist session", err)
	}

	user.AccessToken = &pair.AccessToken
	return &Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

// Logout clears the access token snapshot and revokes the presented refresh
// token, if any.
func (s *UserService) Logout(ctx context.Context, userID string, refreshToken string) (err error) {
	defer func() { s.record("logout", err) }()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetAccessToken(ctx, userID, nil); err != nil {
			return err
		}
		if refreshToken == "" {
			return nil
		}
		return s.tokens.Revoke(ctx, tx, refreshToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.NewError(common.ErrorUnauthorized, MsgNotAuthorized)
		}
		return s.internal(ctx, "logout", err)
	}
	return nil
}

// Refresh rotates the refresh token and replaces the access token snapshot.
// A missing, invalid, expired or superseded token is reported the same way.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (session *Session, err error) {
	defer func() { s.record("refresh", err) }()

	if refreshToken == "" {
		return nil, common.NewError(common.ErrorUnauthorized, MsgNotAuthorized)
	}

	var (
		pair *TokenPair
		user *models.User
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		pair, user, err = s.tokens.Rotate(ctx, tx, refreshToken)
		if err != nil {
			return err
		}
		return s.repomanager.Users(tx).SetAccessToken(ctx, user.ID, &pair.AccessToken)
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			return nil, common.NewError(common.ErrorUnauthorized, MsgNotAuthorized)
		}
		return nil, s.internal(ctx, "rotate refresh token", err)
	}

	user.AccessToken = &pair.AccessToken
	return &Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken, User: user}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != common.BearerScheme || token == "" {
		return "", false
	}
	return token, true
}

// Authenticate resolves the caller of a protected request. The token must be
// validly signed, unexpired and byte-for-byte equal to the user's stored
// snapshot, which is what makes logout and re-login revoke older tokens.
func (s *UserService) Authenticate(ctx context.Context, header string) (*models.User, error) {
	unauthorized := common.NewError(common.ErrorUnauthorized, MsgNotAuthorized)

	token, ok := BearerToken(header)
	if !ok {
		return nil, unauthorized
	}

	claims, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return nil, unauthorized
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, unauthorized
		}
		return nil, s.internal(ctx, "lookup user", err)
	}

	if user.AccessToken == nil || subtle.ConstantTimeCompare([]byte(*user.AccessToken), []byte(token)) != 1 {
		return nil, unauthorized
	}
	return user, nil
}
