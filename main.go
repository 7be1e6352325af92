package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"flight-entrypoint/cache"
	"flight-entrypoint/config"
	"flight-entrypoint/database"
	"flight-entrypoint/launch"
	"flight-entrypoint/seed"
	"flight-entrypoint/utils"
)

// stages wires the startup sequence so the ordering logic stays testable.
type stages struct {
	ensure  func(ctx context.Context) error
	wait    func(ctx context.Context) error
	migrate func(ctx context.Context) error
	seed    func(ctx context.Context) error
	cache   func(ctx context.Context) error
	launch  func() (int, error)
}

func main() {
	// Initialize logging
	utils.InitLogging()

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: flight-entrypoint command [args...]")
		os.Exit(2)
	}

	// Load configuration
	cfg := config.LoadConfig()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		utils.LogError("Database setup failed", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	code, err := run(context.Background(), cfg, newStages(cfg, db, args))
	if err != nil {
		utils.LogError("Startup failed", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// run drives the startup stages in order: optional database creation, the
// readiness gate, migrations, seeding, the optional cache probe and finally
// the handoff. Migration and seed failures abort the launch; the optional
// stages only warn.
func run(ctx context.Context, cfg *config.Config, s stages) (int, error) {
	if cfg.CreateDatabase {
		if err := s.ensure(ctx); err != nil {
			utils.LogError("Database creation failed, continuing", err)
		}
	}

	if err := s.wait(ctx); err != nil {
		return 0, fmt.Errorf("wait for postgres: %w", err)
	}

	if cfg.SkipMigrations {
		utils.LogInfo("SKIP_MIGRATIONS set, skipping schema migrations")
	} else if err := s.migrate(ctx); err != nil {
		return 0, fmt.Errorf("run migrations: %w", err)
	}

	if cfg.SkipSeed {
		utils.LogInfo("SKIP_SEED set, skipping data seed")
	} else if err := s.seed(ctx); err != nil {
		return 0, fmt.Errorf("seed database: %w", err)
	}

	if cfg.WaitForRedis {
		if err := s.cache(ctx); err != nil {
			utils.LogError("Seat cache not ready, continuing without it", err)
		}
	}

	return s.launch()
}

// newStages binds the startup sequence to the real implementations.
func newStages(cfg *config.Config, db *sql.DB, argv []string) stages {
	return stages{
		ensure: func(ctx context.Context) error {
			return database.EnsureDatabase(ctx, cfg.DatabaseURL)
		},
		wait: func(ctx context.Context) error {
			policy := database.WaitPolicy{
				Interval:    cfg.WaitInterval,
				MaxAttempts: cfg.WaitMaxAttempts,
				Backoff:     cfg.WaitBackoff,
				MaxInterval: cfg.WaitMaxInterval,
				PingTimeout: cfg.WaitInterval,
			}
			return database.WaitForPostgres(ctx, db, policy)
		},
		migrate: func(ctx context.Context) error {
			return database.RunMigrations(ctx, db)
		},
		seed: func(ctx context.Context) error {
			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer pool.Close()

			seeder := seed.NewSeeder(pool)
			if cfg.SeedAdminPassword != "" {
				seeder.SetAccountPassword("admin", cfg.SeedAdminPassword)
			}
			return seeder.Run(ctx)
		},
		cache: func(ctx context.Context) error {
			client := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
			defer func() { _ = client.Close() }()
			return cache.WaitForRedis(ctx, client, cfg.RedisWaitTimeout)
		},
		launch: func() (int, error) {
			// The handoff owns the process from here; release our handles first.
			_ = db.Close()
			if cfg.SpawnMode {
				return launch.Run(context.Background(), argv, os.Environ())
			}
			return 0, launch.Exec(argv, os.Environ())
		},
	}
}
