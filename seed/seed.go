package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"flight-entrypoint/crypto"
)

// Mandt is the SAP-style client code stamped on every reference row.
const Mandt = "100"

// Database interface for database operations
type Database interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Carrier is an airline reference row.
type Carrier struct {
	ID   string
	Name string
}

// Airport is an airport reference row.
type Airport struct {
	ID   int
	Name string
}

// Account is a login created for manual testing, mirrored into the customer
// table so bookings can reference it.
type Account struct {
	Username string
	Email    string
	Password string
}

// Seeder fills an empty flight database with demo data.
type Seeder struct {
	db  Database
	rng *rand.Rand

	Carriers    []Carrier
	Airports    []Airport
	Accounts    []Account
	FlightCount int
}

// NewSeeder returns a seeder loaded with the stock demo dataset.
func NewSeeder(db Database) *Seeder {
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		Carriers: []Carrier{
			{ID: "SU", Name: "Aeroflot"},
			{ID: "LH", Name: "Lufthansa"},
			{ID: "BA", Name: "British Airways"},
		},
		Airports: []Airport{
			{ID: 1001, Name: "Moscow"},
			{ID: 1002, Name: "London"},
			{ID: 1003, Name: "Paris"},
			{ID: 1004, Name: "Berlin"},
		},
		Accounts: []Account{
			{Username: "admin", Email: "admin@example.com", Password: "123"},
			{Username: "user1", Email: "user1@example.com", Password: "user123"},
			{Username: "alice", Email: "alice@example.com", Password: "secret"},
		},
		FlightCount: 19,
	}
}

// SetAccountPassword overrides the password of a stock account before Run.
func (s *Seeder) SetAccountPassword(username, password string) {
	for i := range s.Accounts {
		if s.Accounts[i].Username == username {
			s.Accounts[i].Password = password
		}
	}
}

// Run seeds the database unless carrier data is already present. Reference
// data, flights and accounts go in one transaction, so a failed run leaves
// nothing behind for the next attempt to trip over.
func (s *Seeder) Run(ctx context.Context) error {
	var carrierCount int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM scarr`).Scan(&carrierCount); err != nil {
		return fmt.Errorf("failed to check existing seed data: %w", err)
	}
	if carrierCount > 0 {
		log.Printf("Seed data already present (%d carriers), skipping", carrierCount)
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.seedCarriers(ctx, tx); err != nil {
		return err
	}
	if err := s.seedAirports(ctx, tx); err != nil {
		return err
	}
	flights, err := s.seedFlights(ctx, tx)
	if err != nil {
		return err
	}
	users, err := s.seedAccounts(ctx, tx)
	if err != nil {
		return err
	}
	if err := s.recordSeedRun(ctx, tx, flights, users); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}

	log.Printf("Seeded %d carriers, %d airports, %d flights and %d users",
		len(s.Carriers), len(s.Airports), flights, users)
	return nil
}

func (s *Seeder) seedCarriers(ctx context.Context, tx pgx.Tx) error {
	for _, c := range s.Carriers {
		_, err := tx.Exec(ctx, `
			INSERT INTO scarr (mandt, carrid, carrname)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			Mandt, c.ID, c.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to seed carrier %s: %w", c.ID, err)
		}
	}
	return nil
}

func (s *Seeder) seedAirports(ctx context.Context, tx pgx.Tx) error {
	for _, a := range s.Airports {
		_, err := tx.Exec(ctx, `
			INSERT INTO sairport (mandt, id, name)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			Mandt, a.ID, a.Name,
		)
		if err != nil {
			return fmt.Errorf("failed to seed airport %d: %w", a.ID, err)
		}
	}
	return nil
}

// seedFlights generates demo flights with matching schedule rows. Departure
// dates land one to ten days out so the data always looks bookable.
func (s *Seeder) seedFlights(ctx context.Context, tx pgx.Tx) (int, error) {
	for i := 1; i <= s.FlightCount; i++ {
		carrier := s.Carriers[s.rng.Intn(len(s.Carriers))]
		dep := s.Airports[s.rng.Intn(len(s.Airports))]
		arr := s.Airports[s.rng.Intn(len(s.Airports))]
		for arr.ID == dep.ID {
			arr = s.Airports[s.rng.Intn(len(s.Airports))]
		}

		connID := fmt.Sprintf("%04d", i)
		fldate := time.Now().AddDate(0, 0, 1+s.rng.Intn(10))
		price := float64(8000+s.rng.Intn(22001)) / 100
		seats := 50 + s.rng.Intn(51)

		_, err := tx.Exec(ctx, `
			INSERT INTO sflight (mandt, carrid, connid, fldate, price, currency, seatsmax, seatssocc, airpfrom_id, airpto_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			Mandt, carrier.ID, connID, fldate, price, "EUR", seats, 0, dep.ID, arr.ID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to seed flight %s %s: %w", carrier.ID, connID, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO spfli (mandt, carrid, connid, fldate, countryfr, cityfrom, airpfrom, countryto, cityto, airpto, fltime)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			Mandt, carrier.ID, connID, fldate,
			"RU", dep.Name, airportCode(dep.Name),
			"UK", arr.Name, airportCode(arr.Name),
			90+s.rng.Intn(211),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to seed schedule %s %s: %w", carrier.ID, connID, err)
		}
	}
	return s.FlightCount, nil
}

func (s *Seeder) seedAccounts(ctx context.Context, tx pgx.Tx) (int, error) {
	created := 0
	for _, account := range s.Accounts {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
			account.Username, account.Email,
		).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("failed to check user %s: %w", account.Username, err)
		}
		if exists {
			log.Printf("User %s already exists, skipping", account.Username)
			continue
		}

		if account.Username == "admin" && account.Password == "123" {
			log.Println("⚠️  WARNING: Default admin credentials are insecure. Change them after first login!")
		}

		salt, err := crypto.GenerateSalt()
		if err != nil {
			return 0, fmt.Errorf("failed to generate salt for %s: %w", account.Username, err)
		}
		passwordHash := crypto.HashPassword(account.Password, salt)

		var userID int
		err = tx.QueryRow(ctx, `
			INSERT INTO users (username, email, hashed_password, disabled)
			VALUES ($1, $2, $3, FALSE)
			RETURNING id`,
			account.Username, account.Email, passwordHash,
		).Scan(&userID)
		if err != nil {
			return 0, fmt.Errorf("failed to create user %s: %w", account.Username, err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO scust (mandt, id, name)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			Mandt, userID, account.Username,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to create customer record for %s: %w", account.Username, err)
		}

		log.Printf("Seeded user: %s", account.Username)
		created++
	}
	return created, nil
}

// recordSeedRun stamps the run so operators can tell when and where a
// database was populated.
func (s *Seeder) recordSeedRun(ctx context.Context, tx pgx.Tx, flights, users int) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO seed_history (id, hostname, carriers, airports, flights, users)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New(), hostname, len(s.Carriers), len(s.Airports), flights, users,
	)
	if err != nil {
		return fmt.Errorf("failed to record seed run: %w", err)
	}
	return nil
}

// airportCode derives the three letter display code used by schedule rows.
func airportCode(name string) string {
	code := name
	if len(code) > 3 {
		code = code[:3]
	}
	return strings.ToUpper(code)
}
