package database

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jgesser/mobilecloud-15/internal/entities"
)

// SchemaVersion must be incremented whenever an entity's columns change.
// The video cache is rebuildable from the catalog, so a version mismatch
// wipes it instead of migrating it.
const SchemaVersion = 1

// disposableTables lists the tables dropped on a schema version change.
var disposableTables = []any{
	&entities.Video{},
}

// durableTables are only auto-migrated. Transfer records are the
// idempotency keys of queued jobs, which outlive a schema change.
var durableTables = []any{
	&entities.Transfer{},
}

type Database struct {
	DB *gorm.DB
}

type Option func(*gorm.Config)

// WithLogLevel overrides the gorm logger level (default: Warn).
func WithLogLevel(level logger.LogLevel) Option {
	return func(c *gorm.Config) {
		c.Logger = logger.Default.LogMode(level)
	}
}

func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}
	for _, opt := range opts {
		opt(gormCfg)
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_journal=WAL&_busy_timeout=5000"), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	database := &Database{DB: db}

	if err := database.ensureSchema(SchemaVersion); err != nil {
		_ = database.Close()
		return nil, err
	}

	log.WithField("path", dbPath).Info("cache database initialized")

	return database, nil
}

// ensureSchema drops and recreates the disposable tables when the stored
// schema version differs from want, then auto-migrates every table.
func (d *Database) ensureSchema(want int) error {
	current, err := d.UserVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if current != want {
		if current != 0 {
			log.WithFields(log.Fields{
				"from": current,
				"to":   want,
			}).Warn("cache schema version changed, recreating tables")
		}
		if err := d.DB.Migrator().DropTable(disposableTables...); err != nil {
			return fmt.Errorf("failed to drop tables: %w", err)
		}
	}

	if err := d.DB.AutoMigrate(append(disposableTables, durableTables...)...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if current != want {
		// PRAGMA does not accept bound parameters.
		if err := d.DB.Exec(fmt.Sprintf("PRAGMA user_version = %d", want)).Error; err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}
	}
	return nil
}

// UserVersion returns the schema version stored in the database file.
func (d *Database) UserVersion() (int, error) {
	var version int
	if err := d.DB.Raw("PRAGMA user_version").Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

// Ping checks that the underlying connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
