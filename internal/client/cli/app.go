package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/client/client"
	"github.com/dmitrijs2005/aquatrack/internal/client/config"
	"github.com/dmitrijs2005/aquatrack/internal/client/services"
)

type App struct {
	config         *config.Config
	authService    services.AuthService
	waterService   services.WaterService
	profileService services.ProfileService
	reader         *bufio.Reader
	out            io.Writer
	now            func() time.Time
	db             *sql.DB
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionFile)
	if err != nil {
		return nil, err
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, services.NewSessionStore(db))

	return &App{
		config:         c,
		authService:    services.NewAuthService(api),
		waterService:   services.NewWaterService(api),
		profileService: services.NewProfileService(api, c.RequestTimeout),
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
		now:            time.Now,
		db:             db,
	}, nil
}

// Run executes args as a single command, or starts the interactive loop when
// args is empty. It returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.printf("Welcome to aquatrack CLI (type 'help' for commands)\n")
		runREPL(ctx, a, a.reader, a.out)
		return 0
	}

	if err := a.dispatch(ctx, args[0], args[1:]); err != nil {
		a.printf("%s\n", describe(err))
		return 1
	}
	return 0
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
