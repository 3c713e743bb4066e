package main

// Run database migrations:
//   go run ./cmd/migrate        (apply pending)
//   go run ./cmd/migrate down   (roll back the latest)

import (
	"context"
	"os"

	"resume-studio/internal/shared/config"
	"resume-studio/internal/shared/storage/db"
	"resume-studio/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(cfg.Env)
	defer telemetry.Sync()
	ctx := context.Background()

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"err": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch direction {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackLast(ctx, sqlDB)
	default:
		telemetry.Error("migrate.unknown_direction", map[string]any{"direction": direction})
		os.Exit(2)
	}
	if err != nil {
		telemetry.Error("migrate.failed", map[string]any{"direction": direction, "err": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"direction": direction})
}
