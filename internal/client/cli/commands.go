package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/aquatrack/internal/client/client"
	"github.com/dmitrijs2005/aquatrack/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

type usageError struct {
	usage string
}

func (e *usageError) Error() string { return "Usage: " + e.usage }
func (e *usageError) Unwrap() error { return errUsage }

const helpText = `Available commands:
  register         create an account (a verification email follows)
  login            sign in
  logout           sign out
  whoami           show the signed-in profile
  drink <ml>       record a drink now
  today            show today's intake
  month [YYYY-MM]  show daily totals of a month
  avatar <file>    upload a new avatar
  exit             leave the interactive mode`

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// dispatch runs one command. Both the one-shot mode and the interactive
// loop go through here.
func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help", "-h", "--help":
		a.printf("%s\n", helpText)
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "drink":
		return a.Drink(ctx, args)
	case "today":
		return a.Today(ctx)
	case "month":
		return a.Month(ctx, args)
	case "avatar":
		return a.Avatar(ctx, args)
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func (a *App) credentials() (string, []byte, error) {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}

// Register prompts for an email and a password and creates the account.
// The password is wiped by the service.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	if err := a.authService.Register(ctx, email, password); err != nil {
		return err
	}
	a.printf("Registered. Check %s for the verification link.\n", email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return err
	}
	if err := a.authService.Login(ctx, email, password); err != nil {
		return err
	}
	a.printf("Logged in as %s\n", email)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	p, err := a.authService.WhoAmI(ctx)
	if err != nil {
		return err
	}

	name := p.Name
	if name == "" {
		name = "-"
	}
	a.printf("%s (%s)\ndaily norma: %d ml\n", p.Email, name, p.DailyNorma)
	if p.AvatarURL != "" {
		a.printf("avatar: %s\n", p.AvatarURL)
	}
	return nil
}

func (a *App) Drink(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return &usageError{usage: "drink <ml>"}
	}
	amount, err := strconv.Atoi(strings.TrimSuffix(args[0], "ml"))
	if err != nil {
		return &usageError{usage: "drink <ml>"}
	}

	e, err := a.waterService.Drink(ctx, amount, a.now())
	if err != nil {
		return err
	}
	a.printf("Recorded %d ml at %s\n", e.Amount, e.Date.Local().Format("15:04"))
	return nil
}

func (a *App) Today(ctx context.Context) error {
	s, err := a.waterService.Day(ctx, a.now())
	if err != nil {
		return err
	}

	a.printf("%s: %d / %d ml (%d%%)\n", s.Date, s.Total, s.DailyNorma, s.Percent)
	for _, e := range s.Entries {
		a.printf("  %s  %4d ml\n", e.Date.Local().Format("15:04"), e.Amount)
	}
	return nil
}

func (a *App) Month(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return &usageError{usage: "month [YYYY-MM]"}
	}
	month := ""
	if len(args) == 1 {
		month = args[0]
	}

	s, err := a.waterService.Month(ctx, month)
	if err != nil {
		return err
	}

	a.printf("%s, daily norma %d ml\n", s.Month, s.DailyNorma)
	if len(s.Days) == 0 {
		a.printf("  no entries\n")
	}
	for _, d := range s.Days {
		a.printf("  %s  %5d ml  %3d%%  (%d)\n", d.Date, d.Total, d.Percent, d.Count)
	}
	return nil
}

func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return &usageError{usage: "avatar <file>"}
	}
	u, err := a.profileService.SetAvatar(ctx, args[0])
	if err != nil {
		return err
	}
	a.printf("Avatar updated: %s\n", u)
	return nil
}

// describe turns a command error into the line shown to the user.
func describe(err error) string {
	var apiErr *client.APIError

	switch {
	case errors.Is(err, client.ErrNotLoggedIn):
		return "You are not logged in, run 'login' first"
	case errors.Is(err, client.ErrSessionExpired):
		return "Session expired, please log in again"
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, client.ErrUnauthorized):
		return "Not authorized"
	case errors.Is(err, client.ErrUnavailable):
		return "Server unavailable"
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, errUsage):
		return err.Error()
	default:
		return "Error: " + err.Error()
	}
}
