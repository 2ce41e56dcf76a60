// Package server wires the aquatrack API: configuration, storage, mail,
// OAuth, caching, metrics, tracing and the HTTP transport, and runs it until
// a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/aquatrack/internal/logging"
	"github.com/dmitrijs2005/aquatrack/internal/server/auth"
	"github.com/dmitrijs2005/aquatrack/internal/server/config"
	"github.com/dmitrijs2005/aquatrack/internal/server/httpserver"
	"github.com/dmitrijs2005/aquatrack/internal/server/mail"
	"github.com/dmitrijs2005/aquatrack/internal/server/metrics"
	"github.com/dmitrijs2005/aquatrack/internal/server/oauth"
	"github.com/dmitrijs2005/aquatrack/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/aquatrack/internal/server/services"
	"github.com/dmitrijs2005/aquatrack/internal/server/telemetry"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const serviceName = "aquatrack"

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	server      *httpserver.HTTPServer
	stopTracing telemetry.ShutdownFunc
	closers     []func() error
}

// newLogger builds the logger selected by LogBackend.
func newLogger(c *config.Config) (logging.Logger, func() error, error) {
	if c.LogBackend == "slog" {
		sl, err := logging.BuildSlog(os.Stdout, c.LogLevel, c.Env)
		if err != nil {
			return nil, nil, fmt.Errorf("logger init error: %w", err)
		}
		return sl, func() error { return nil }, nil
	}

	zl, err := logging.BuildZap(c.LogLevel, c.Env)
	if err != nil {
		return nil, nil, fmt.Errorf("logger init error: %w", err)
	}
	return logging.NewZapLogger(zl), zl.Sync, nil
}

// newMailer sends over SMTP when a host is configured and logs otherwise.
func newMailer(c *config.Config, l logging.Logger) mail.Sender {
	if c.SMTPHost == "" {
		return mail.NewLogSender(l)
	}
	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.MailFrom,
		Timeout:  c.SMTPTimeout,
	}, l)
}

func newGoogleProvider(c *config.Config) *oauth.GoogleProvider {
	return oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		RedirectURI:  c.GoogleRedirectURI,
		AuthURL:      c.GoogleAuthURL,
		TokenURL:     c.GoogleTokenURL,
		UserInfoURL:  c.GoogleUserInfoURL,
		Timeout:      c.ProviderTimeout,
	})
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, syncLogger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	app := &App{config: c, logger: logger, closers: []func() error{syncLogger}}

	app.stopTracing, err = telemetry.InitTracer(ctx, serviceName, c.OTLPEndpoint, c.Env)
	if err != nil {
		return nil, fmt.Errorf("tracer init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db
	app.closers = append(app.closers, db.Close)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	m := metrics.New()

	tokens := services.NewTokenService(rm, c)
	userService := services.NewUserService(db, rm, c, tokens, auth.NewBcryptHasher(c.BcryptCost),
		newMailer(c, logger), newGoogleProvider(c), logger).WithEvents(m)
	profileService := services.NewProfileService(db, rm, services.NewAvatarStorage(c), logger)

	var water services.WaterTracker = services.NewWaterService(db, rm, logger)
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.closers = append(app.closers, app.redis.Close)

		cached := services.NewCachedWaterService(water, app.redis, c.CacheTTL, logger)
		profileService.WithInvalidator(cached)
		water = cached
		logger.Info(ctx, "water summary cache enabled", "addr", c.RedisAddr)
	}

	app.server = httpserver.NewHTTPServer(c.EndpointAddrHTTP, logger, httpserver.Services{
		Auth:    userService,
		Profile: profileService,
		Water:   water,
	}, m, httpserver.Options{
		FrontendURL:  c.FrontendURL,
		CookieSecure: c.CookieSecure,
		RefreshTTL:   c.RefreshTokenValidityDuration,
		MetricsPath:  c.MetricsPath,
	})

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server stopped", "error", err)
		cancelFunc()
	}
}

// Run blocks until a signal arrives or the server fails, then releases
// every resource NewApp acquired.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()
	wg.Wait()

	app.close()
}

func (app *App) close() {
	ctx := context.Background()

	if err := app.stopTracing(ctx); err != nil {
		app.logger.Warn(ctx, "tracer shutdown failed", "error", err)
	}

	// release in reverse order of acquisition; the logger sync runs last
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil && i > 0 {
			app.logger.Warn(ctx, "close failed", "error", err)
		}
	}
	app.logger.Info(ctx, "App stopped")
}
