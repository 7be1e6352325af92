package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	neturl "net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Status lines printed by the readiness gate. Compose files and wrapper
// scripts grep for these exact strings, so they stay bare and unprefixed.
const (
	waitingLine = "waiting for Postgres..."
	readyLine   = "Postgres ready..."
)

// waitOut receives the readiness status lines. Tests swap it to capture output.
var waitOut io.Writer = os.Stdout

// openDB is swapped in tests for a sqlmock-backed opener.
var openDB = sql.Open

var identRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// Pinger is the slice of *sql.DB the readiness gate needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// WaitPolicy controls the readiness gate retry loop.
type WaitPolicy struct {
	Interval    time.Duration // delay between attempts
	MaxAttempts int           // 0 retries forever
	Backoff     bool          // double the delay after each failure
	MaxInterval time.Duration // ceiling for the backoff delay
	PingTimeout time.Duration // per-attempt budget
}

// DefaultWaitPolicy polls every two seconds until the database shows up.
func DefaultWaitPolicy() WaitPolicy {
	return WaitPolicy{
		Interval:    2 * time.Second,
		PingTimeout: 2 * time.Second,
	}
}

// nextInterval advances the retry delay when backoff is enabled.
func (p WaitPolicy) nextInterval(current time.Duration) time.Duration {
	if !p.Backoff {
		return current
	}
	next := current * 2
	if p.MaxInterval > 0 && next > p.MaxInterval {
		next = p.MaxInterval
	}
	return next
}

// Open creates a database/sql handle over the pgx driver without touching the
// network; the readiness gate makes first contact. The pool stays tiny because
// the entrypoint runs one stage at a time.
func Open(databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(1 * time.Hour)
	return db, nil
}

// WaitForPostgres blocks until the database answers a ping. Each failed
// attempt prints a status line and sleeps out the policy interval; with
// MaxAttempts 0 the loop only ends when the database answers or the context
// is canceled. Any ping error counts as "not ready" - a refused connection,
// a DNS miss and a bad password all retry the same way, because during
// container startup they are indistinguishable transients.
func WaitForPostgres(ctx context.Context, db Pinger, policy WaitPolicy) error {
	interval := policy.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	pingTimeout := policy.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 2 * time.Second
	}

	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			fmt.Fprintln(waitOut, readyLine)
			return nil
		}

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return fmt.Errorf("postgres not reachable after %d attempts: %w", attempt, err)
		}

		fmt.Fprintln(waitOut, waitingLine)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
		interval = policy.nextInterval(interval)
	}
}

// EnsureDatabase creates the target database when it does not exist yet.
// Best effort: callers log failures and let the readiness gate decide whether
// the target is actually usable.
func EnsureDatabase(ctx context.Context, databaseURL string) error {
	adminURL, dbName := adminURLAndDBName(databaseURL)
	if dbName == "" || dbName == "postgres" {
		return nil
	}
	safe, ok := safePgIdent(dbName)
	if !ok {
		log.Printf("Warning: Database name '%s' contains unsupported characters; skipping CREATE DATABASE step", dbName)
		return nil
	}

	adminDB, err := openDB("pgx", adminURL)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer func() { _ = adminDB.Close() }()

	if _, err := adminDB.ExecContext(ctx, "CREATE DATABASE "+safe); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "already exists") {
			return nil
		}
		return fmt.Errorf("failed to create database %s: %w", dbName, err)
	}
	return nil
}

// Connect opens the pgx pool used by the seeding stage. The sizing assumes a
// short-lived process that issues one statement at a time.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 2
	config.MinConns = 1
	config.ConnConfig.ConnectTimeout = 5 * time.Second
	config.ConnConfig.RuntimeParams["application_name"] = "flight_entrypoint"

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

// adminURLAndDBName builds an admin URL pointing to the 'postgres' database and returns the target db name
func adminURLAndDBName(dbURL string) (string, string) {
	u, err := neturl.Parse(dbURL)
	if err != nil {
		return dbURL, ""
	}
	// Extract db name from path
	dbName := strings.TrimPrefix(u.Path, "/")
	// Point to 'postgres' db for admin tasks
	u.Path = "/postgres"
	return u.String(), dbName
}

// safePgIdent validates and quotes identifier safely for CREATE DATABASE
func safePgIdent(name string) (string, bool) {
	if identRe.MatchString(name) {
		return name, true
	}
	return "", false
}
