package drivers

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shepherrrd/efmigrate/internal/models"
)

type SQLiteDriver struct{}

func NewSQLiteDriver() *SQLiteDriver {
	return &SQLiteDriver{}
}

func (s *SQLiteDriver) Name() string {
	return "sqlite"
}

func (s *SQLiteDriver) Connect(connectionString string) (*gorm.DB, error) {
	return s.ConnectWithLogger(connectionString, "silent")
}

func (s *SQLiteDriver) ConnectWithLogger(connectionString string, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		NamingStrategy: NewNamingStrategy(),
		Logger:         newLogger(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

func (s *SQLiteDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (s *SQLiteDriver) SupportsTransactions() bool {
	return true
}

func (s *SQLiteDriver) SupportsSchemas() bool {
	return false
}

// Quote drops the schema; SQLite has a single namespace per database file.
func (s *SQLiteDriver) Quote(name string) string {
	return quoteWith(models.ParseDatabaseName(name).Name, `"`, `"`)
}

func (s *SQLiteDriver) MapColumnType(c *models.PropertyModel) string {
	if c.StoreType != "" {
		return c.StoreType
	}
	switch c.Type {
	case models.Binary:
		return "BLOB"
	case models.Boolean, models.Byte, models.Int16, models.Int32, models.Int64:
		return "INTEGER"
	case models.Decimal:
		return "NUMERIC"
	case models.Double, models.Single:
		return "REAL"
	default:
		return "TEXT"
	}
}

func (s *SQLiteDriver) QuoteIdentifier(name string) string {
	return quoteIdentifier(name, `"`, `"`)
}
