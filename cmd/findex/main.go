package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"findex/internal/app"
	"findex/internal/config"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.FromArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg).Run(ctx); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
