package database

import (
	"errors"

	"github.com/thereayou/presence-relay/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database archives relayed messages through gorm.
type Database struct {
	db *gorm.DB
}

// NewDatabase wraps an already opened handle, as tests do with sqlite.
func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Connect opens the Postgres archive and migrates its schema.
func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	d.db = db
	return d.Migrate()
}

func (d *Database) Migrate() error {
	return d.db.AutoMigrate(&models.Message{})
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
