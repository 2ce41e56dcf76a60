// Package httpserver is the public JSON API of aquatrack, built on fiber.
package httpserver

import (
	"context"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"github.com/dmitrijs2005/aquatrack/internal/server/metrics"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/dmitrijs2005/aquatrack/internal/server/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// AuthService is the authentication core the handlers drive.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Logout(ctx context.Context, userID string, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Authenticate(ctx context.Context, header string) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in services.ResetInput) error
	OAuthURL() string
	OAuthLogin(ctx context.Context, code string) (*services.Session, error)
}

// ProfileService serves the signed-in user's account data.
type ProfileService interface {
	Current(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, p models.Profile) (*models.User, error)
	Count(ctx context.Context) (int64, error)
	AvatarUpload(ctx context.Context, userID string) (string, string, error)
	ConfirmAvatar(ctx context.Context, userID string, key string) (string, error)
}

type Services struct {
	Auth    AuthService
	Profile ProfileService
	Water   services.WaterTracker
}

// Options tune transport behaviour.
//
//   - FrontendURL: where Google sign-in redirects land.
//   - CookieSecure: Secure attribute of the refresh cookie.
//   - RefreshTTL: Max-Age of the refresh cookie.
//   - MetricsPath: Prometheus endpoint, empty disables it.
type Options struct {
	FrontendURL  string
	CookieSecure bool
	RefreshTTL   time.Duration
	MetricsPath  string
}

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address  string
	app      *fiber.App
	svc      Services
	opts     Options
	metrics  *metrics.Metrics
	validate *validator.Validate
	logger   logging.Logger
}

func NewHTTPServer(address string, l logging.Logger, svc Services, m *metrics.Metrics, opts Options) *HTTPServer {
	s := &HTTPServer{
		address:  address,
		svc:      svc,
		opts:     opts,
		metrics:  m,
		validate: validator.New(),
		logger:   l.With("module", "http_server"),
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})
	s.app.Use(otelfiber.Middleware(), s.observe, recover.New())
	s.registerRoutes()

	return s
}

// App exposes the fiber application, mainly for app.Test.
func (s *HTTPServer) App() *fiber.App {
	return s.app
}

func (s *HTTPServer) registerRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	if s.opts.MetricsPath != "" && s.metrics != nil {
		s.app.Get(s.opts.MetricsPath, adaptor.HTTPHandler(s.metrics.Handler()))
	}

	api := s.app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", s.register)
	auth.Post("/login", s.login)
	auth.Post("/logout", s.authenticate, s.logout)
	auth.Get("/verify/:token", s.verifyEmail)
	auth.Post("/verify", s.resendVerification)
	auth.Get("/refresh", s.refresh)
	auth.Get("/google", s.googleAuth)
	auth.Get("/google-redirect", s.googleRedirect)
	auth.Post("/forgot-password", s.forgotPassword)
	auth.Post("/reset-password", s.resetPassword)

	users := api.Group("/users")
	users.Get("/count", s.countUsers)
	users.Get("/current", s.authenticate, s.currentUser)
	users.Patch("/current", s.authenticate, s.updateProfile)
	users.Post("/avatar", s.authenticate, s.avatarUpload)
	users.Patch("/avatar", s.authenticate, s.confirmAvatar)

	water := api.Group("/water", s.authenticate)
	water.Post("", s.addWater)
	water.Get("/day", s.waterDay)
	water.Get("/month", s.waterMonth)
	water.Put("/:id", s.updateWater)
	water.Delete("/:id", s.deleteWater)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown failed", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	return s.app.Listen(s.address)
}
