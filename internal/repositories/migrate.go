package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"
)

// MigrationConfig controls where versioned SQL migrations are read from
// and how long to wait for the database to accept connections.
type MigrationConfig struct {
	MigrationsPath string
	DBName         string
	MaxRetries     int
	RetryDelay     time.Duration
}

func DefaultMigrationConfig() *MigrationConfig {
	return &MigrationConfig{
		MigrationsPath: "file://migrations",
		DBName:         "taskboard",
		MaxRetries:     3,
		RetryDelay:     2 * time.Second,
	}
}

// newMigrator builds a migrate instance on top of the gorm connection.
// All entry points in this file share it so the driver is configured once.
func newMigrator(db *gorm.DB, config *MigrationConfig) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		DatabaseName:          config.DBName,
		MigrationsTable:       "schema_migrations",
		MultiStatementEnabled: true,
		MultiStatementMaxSize: 10 * 1 << 20, // 10 MB
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(config.MigrationsPath, config.DBName, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending migration. It tolerates a database
// that is still starting up by retrying the initial ping.
func RunMigrations(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	log.Printf("🔄 Applying schema migrations from %s", config.MigrationsPath)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := waitForDatabase(sqlDB, config.MaxRetries, config.RetryDelay); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}

	m, err := newMigrator(db, config)
	if err != nil {
		return err
	}

	logCurrentVersion(m)

	switch err := m.Up(); {
	case err == nil:
		version, dirty, verr := m.Version()
		if verr != nil {
			return fmt.Errorf("failed to read schema version after migrating: %w", verr)
		}
		log.Printf("✅ Schema migrated to version %d (dirty: %v)", version, dirty)
		return nil
	case errors.Is(err, migrate.ErrNoChange):
		log.Println("✅ Schema already up to date")
		return nil
	default:
		return fmt.Errorf("failed to run migrations: %w", err)
	}
}

func logCurrentVersion(m *migrate.Migrate) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Println("📋 Empty schema, applying all migrations")
	case err != nil:
		log.Printf("⚠️  Could not read current schema version: %v", err)
	default:
		log.Printf("📋 Schema at version %d (dirty: %v)", version, dirty)
	}
}

func waitForDatabase(db *sql.DB, maxRetries int, retryDelay time.Duration) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		lastErr = db.Ping()
		if lastErr == nil {
			return nil
		}
		if attempt < maxRetries {
			log.Printf("⏳ Database not ready (attempt %d/%d), retrying in %v", attempt, maxRetries, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return fmt.Errorf("database not ready after %d attempts: %w", maxRetries, lastErr)
}

// RollbackMigration undoes the most recently applied migration.
func RollbackMigration(db *gorm.DB, config *MigrationConfig) error {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	m, err := newMigrator(db, config)
	if err != nil {
		return err
	}

	log.Println("⬇️  Rolling back one migration step")
	if err := m.Steps(-1); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}
	log.Println("✅ Rollback complete")
	return nil
}

// GetMigrationVersion reports the current schema version and dirty flag.
func GetMigrationVersion(db *gorm.DB, config *MigrationConfig) (uint, bool, error) {
	if config == nil {
		config = DefaultMigrationConfig()
	}

	m, err := newMigrator(db, config)
	if err != nil {
		return 0, false, err
	}
	return m.Version()
}
