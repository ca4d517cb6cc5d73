package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"educontrol/internal/app"
	"educontrol/internal/config"
)

// Worker consumes AI jobs from the shared queue and stores their outcome.
func main() {
	cfg := config.Load()
	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker needs QUEUE_BACKEND=redis, got %q", cfg.QueueBackend)
	}
	if cfg.StoreBackend == "memory" {
		log.Fatalf("worker needs a shared STORE_BACKEND, got %q", cfg.StoreBackend)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	a, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("build failed: %v", err)
	}
	defer a.Close()

	if !a.Gateway.Healthy(ctx) {
		log.Println("WARNING: store not reachable, jobs will fail until it recovers")
	}

	go a.PruneJobs(ctx, time.Hour)

	log.Println("worker started, waiting for ai jobs...")
	if err := a.Runner.Run(ctx); err != nil {
		log.Fatalf("queue consume failed: %v", err)
	}
	log.Println("worker stopped")
}
