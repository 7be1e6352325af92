package main

// Seed the flight database with demo data:
//   go run ./cmd/seed

import (
	"context"
	"log"
	"os"

	"flight-entrypoint/config"
	"flight-entrypoint/database"
	"flight-entrypoint/seed"
)

func main() {
	cfg := config.LoadConfig()
	ctx := context.Background()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Printf("failed to open database: %v", err)
		os.Exit(1)
	}

	policy := database.DefaultWaitPolicy()
	policy.Interval = cfg.WaitInterval
	policy.MaxAttempts = cfg.WaitMaxAttempts
	if policy.MaxAttempts == 0 {
		policy.MaxAttempts = 30
	}
	if err := database.WaitForPostgres(ctx, db, policy); err != nil {
		log.Printf("database not reachable: %v", err)
		os.Exit(1)
	}
	_ = db.Close()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer pool.Close()

	seeder := seed.NewSeeder(pool)
	if cfg.SeedAdminPassword != "" {
		seeder.SetAccountPassword("admin", cfg.SeedAdminPassword)
	}
	if err := seeder.Run(ctx); err != nil {
		log.Printf("failed to seed database: %v", err)
		os.Exit(1)
	}
}
