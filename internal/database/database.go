package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

// DB wraps sql.DB with the driver it was opened with
type DB struct {
	*sql.DB
	Driver string
}

// ParseURL resolves a DATABASE_URL into a driver name and a driver DSN.
// postgres:// and postgresql:// select Postgres; sqlite://<path> selects SQLite.
func ParseURL(databaseURL string) (driver, dsn string, err error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite database url needs a path")
		}
		return DriverSQLite, path, nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q", redact(databaseURL))
	}
}

// New opens the database and verifies the connection
func New(databaseURL string) (*DB, error) {
	driver, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	switch driver {
	case DriverPostgres:
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	case DriverSQLite:
		// one connection: keeps :memory: databases alive and serializes writers
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	db := &DB{DB: sqlDB, Driver: driver}
	if err := db.HealthCheck(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	if driver == DriverSQLite {
		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// HealthCheck pings the database with a short timeout
func (db *DB) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// GetStats returns connection pool statistics
func (db *DB) GetStats() sql.DBStats {
	return db.Stats()
}

// RunMigrations applies every pending migration for the database's driver
func RunMigrations(db *DB) error {
	source, err := iofs.New(migrationsFS, "migrations/"+db.Driver)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	defer source.Close()

	var driver database.Driver
	switch db.Driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		err = fmt.Errorf("no migrations for driver %q", db.Driver)
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.Driver, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Open connects and migrates in one step
func Open(databaseURL string) (*DB, error) {
	db, err := New(databaseURL)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func redact(databaseURL string) string {
	if i := strings.Index(databaseURL, "@"); i >= 0 {
		if j := strings.Index(databaseURL, "://"); j >= 0 && j < i {
			return databaseURL[:j+3] + "***" + databaseURL[i:]
		}
	}
	return databaseURL
}
