package main

import (
	"context"
	"log"
	"os"

	"github.com/pressly/goose/v3"

	"github.com/futebagres/pelada-api/migrations"
	"github.com/futebagres/pelada-api/pkg/config"
	"github.com/futebagres/pelada-api/pkg/database"
	"github.com/futebagres/pelada-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck
	sugar := logr.Sugar()

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		sugar.Fatalw("failed to set dialect", "error", err)
	}

	sugar.Infow("running migrations", "command", command, "database", cfg.Database.Name)
	switch command {
	case "up":
		if err := goose.Up(db.DB, "."); err != nil {
			sugar.Fatalw("failed to run migrations", "error", err)
		}
		sugar.Info("migrations completed")
	case "down":
		if err := goose.Down(db.DB, "."); err != nil {
			sugar.Fatalw("failed to roll back migration", "error", err)
		}
		sugar.Info("rollback completed")
	case "status":
		if err := goose.Status(db.DB, "."); err != nil {
			sugar.Fatalw("failed to get migration status", "error", err)
		}
	case "version":
		version, err := goose.GetDBVersion(db.DB)
		if err != nil {
			sugar.Fatalw("failed to get version", "error", err)
		}
		sugar.Infow("current migration version", "version", version)
	default:
		sugar.Fatalf("unknown command %q, expected up, down, status or version", command)
	}
}
