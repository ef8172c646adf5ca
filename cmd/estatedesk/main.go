package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"estatedesk/internal/config"
	"estatedesk/internal/http/handlers"
	applog "estatedesk/internal/log"
	"estatedesk/internal/repos"
	"estatedesk/internal/services"
	"estatedesk/internal/storage"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	ctx := context.Background()

	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if cfg.SeedSample {
		if err := repos.SeedSample(ctx, db); err != nil {
			log.Fatal(err)
		}
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	deps := handlers.NewDeps(db, cfg, store)
	created, err := deps.Creds.Bootstrap(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Fatal(err)
	}
	if created {
		applog.Background("audit", "admin.bootstrap", nil, map[string]any{"email": cfg.AdminEmail})
	}

	janitor, err := services.NewJanitor(deps.Sessions, cfg.JanitorSchedule)
	if err != nil {
		log.Fatalf("janitor schedule %q: %v", cfg.JanitorSchedule, err)
	}
	janitor.Start()
	defer janitor.Stop()

	app := handlers.NewApp(deps, handlers.NewViews("./web/templates"))

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Printf("[server] shutting down")
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	switch cfg.Storage {
	case "s3":
		log.Printf("[storage] s3 bucket=%s", cfg.S3.Bucket)
		return storage.NewS3Store(ctx, cfg.S3)
	default:
		s, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		log.Printf("[storage] /uploads -> %s", s.Root())
		return s, nil
	}
}
