// Package app wires configuration into the services shared by the api and worker binaries.
package app

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"educontrol/internal/account"
	"educontrol/internal/assistant"
	"educontrol/internal/attendance"
	"educontrol/internal/auth"
	"educontrol/internal/cloudinary"
	"educontrol/internal/config"
	"educontrol/internal/handler"
	"educontrol/internal/queue"
	"educontrol/internal/rating"
	"educontrol/internal/repository"
	"educontrol/internal/store"
)

const queueKey = "educontrol:ai-jobs"

// App holds the long-lived dependencies of a process.
type App struct {
	Config  config.App
	Gateway store.Gateway
	Repos   *repository.Repositories
	Runner  *assistant.Runner
	Queue   queue.Queue

	closers []io.Closer
}

// Build opens the store, the queue and the assistant client named by cfg.
func Build(ctx context.Context, cfg config.App) (*App, error) {
	gw, err := store.Open(store.Options{
		Backend:     cfg.StoreBackend,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		RedisAddr:   cfg.RedisAddr,
	})
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Gateway: gw, Repos: repository.New(gw)}
	a.closers = append(a.closers, gw)

	switch cfg.QueueBackend {
	case "redis":
		if cfg.StoreBackend == "memory" || cfg.StoreBackend == "" {
			log.Println("warning: redis queue with memory store; a separate worker cannot see jobs")
		}
		rc := store.NewRedis(cfg.RedisAddr)
		a.closers = append(a.closers, rc)
		a.Queue = queue.NewRedis(rc.Client, queueKey)
	default:
		a.Queue = queue.NewInMemory(64)
	}

	var client assistant.Client = assistant.Offline{}
	if cfg.AIEnabled() {
		g, err := assistant.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiReportModel)
		if err != nil {
			log.Printf("warning: gemini client unavailable, using offline replies: %v", err)
		} else {
			client = g
			a.closers = append(a.closers, g)
		}
	} else {
		log.Println("assistant offline (AI_SKIP set or GEMINI_API_KEY empty)")
	}
	a.Runner = assistant.NewRunner(a.Repos.Jobs, a.Repos.AIChat, client, a.Queue, cfg.AITimeout)
	return a, nil
}

// InProcessJobs reports whether jobs must be run by the api process itself.
func (a *App) InProcessJobs() bool {
	_, ok := a.Queue.(*queue.InMemory)
	return ok
}

// RecoverJobs fails jobs left pending by an earlier run of an in-process runner.
// Their queue messages died with that process, so nothing would ever finish them.
func (a *App) RecoverJobs(ctx context.Context) {
	if !a.InProcessJobs() {
		return
	}
	n, err := a.Runner.Abandon(ctx)
	if err != nil {
		log.Printf("recover ai jobs: %v", err)
		return
	}
	if n > 0 {
		log.Printf("failed %d ai jobs left pending by a previous run", n)
	}
}

// Handler builds the HTTP route handlers.
func (a *App) Handler() *handler.Server {
	var avatars handler.AvatarUploader
	if c := cloudinary.New(a.Config.CloudinaryCloud, a.Config.CloudinaryKey, a.Config.CloudinarySecret, a.Config.CloudinaryFolder); c != nil {
		avatars = c
	}
	return handler.New(handler.Deps{
		Gateway:    a.Gateway,
		Repos:      a.Repos,
		Accounts:   account.NewService(a.Repos.Users, a.Repos.Groups, a.Config.AdminKey),
		Attendance: attendance.NewService(a.Repos.Schedule, a.Repos.Users, a.Repos.Attendance),
		Ratings: rating.NewEngine(rating.Sources{
			Students:   a.Repos.Users,
			Groups:     a.Repos.Groups,
			Attendance: a.Repos.Attendance,
			Grades:     a.Repos.Grades,
			Discipline: a.Repos.Discipline,
			Scores:     a.Repos.Scores,
		}),
		Assistant: a.Runner,
		Signer:    auth.NewSigner(a.Config.JWTSigningKey, a.Config.JWTIssuer, a.Config.AccessTTL, a.Config.RefreshTTL),
		Avatars:   avatars,
	})
}

// PruneJobs drops finished jobs older than the retention every interval until ctx is done.
func (a *App) PruneJobs(ctx context.Context, interval time.Duration) {
	if a.Config.JobRetention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := a.Repos.Jobs.PruneFinished(ctx, now.Add(-a.Config.JobRetention).UnixMilli())
			if err != nil {
				log.Printf("prune ai jobs: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("pruned %d finished ai jobs", n)
			}
		}
	}
}

// Close releases every connection opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
