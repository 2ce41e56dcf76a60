package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/aquatrack/internal/client/cli"
	"github.com/dmitrijs2005/aquatrack/internal/client/config"
	"github.com/dmitrijs2005/aquatrack/internal/flagx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		stop()
		log.Fatalf("%v", err)
	}

	code := app.Run(ctx, flagx.Positional(os.Args[1:], config.ValueFlags))

	_ = app.Close()
	stop()
	os.Exit(code)
}
