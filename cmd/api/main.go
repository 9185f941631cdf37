package main

import (
	"context"
	"log"

	"github.com/gtakpsi-software-dev/resume-app/internal/bootstrap"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/config"
	"github.com/gtakpsi-software-dev/resume-app/internal/shared/server"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	app.StartSweeper(ctx)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
