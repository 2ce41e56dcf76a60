package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/aquatrack/internal/server"
	"github.com/dmitrijs2005/aquatrack/internal/server/config"
	"github.com/joho/godotenv"
)

func main() {

	// a missing .env is fine, the environment may already be populated
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
