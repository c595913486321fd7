package config

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Database holds the database connection and knows which driver backs it.
type Database struct {
	*sql.DB
	Driver string // "postgres" or "sqlite"
	logger *logrus.Logger
}

// NewDatabase opens a connection according to the configuration: Postgres
// when DATABASE_URL is set, an on-disk sqlite file otherwise.
func NewDatabase(cfg *Config, logger *logrus.Logger) (*Database, error) {
	driver, dsn := "postgres", cfg.DatabaseURL
	if cfg.UseSQLite() {
		driver = "sqlite"
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.SQLitePath)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == "postgres" {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// sqlite serializes writers anyway; one connection avoids lock churn.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Database connection established (%s)", driver)

	return &Database{DB: db, Driver: driver, logger: logger}, nil
}

// Migrate runs database migrations from the driver-specific subdirectory of
// migrationsPath.
func (d *Database) Migrate(migrationsPath string) error {
	var (
		driver database.Driver
		err    error
	)
	switch d.Driver {
	case "postgres":
		driver, err = migratepg.WithInstance(d.DB, &migratepg.Config{})
	default:
		driver, err = migratesqlite.WithInstance(d.DB, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", filepath.Join(migrationsPath, d.Driver)),
		d.Driver,
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
