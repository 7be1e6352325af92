package main

// Run schema migrations against the configured database:
//   go run ./cmd/migrate

import (
	"context"
	"log"
	"os"

	"flight-entrypoint/config"
	"flight-entrypoint/database"
)

func main() {
	cfg := config.LoadConfig()
	ctx := context.Background()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Printf("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	policy := database.DefaultWaitPolicy()
	policy.Interval = cfg.WaitInterval
	policy.MaxAttempts = cfg.WaitMaxAttempts
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 30 // a one-shot tool should not wait forever
	}
	if err := database.WaitForPostgres(ctx, db, policy); err != nil {
		log.Printf("database not reachable: %v", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
