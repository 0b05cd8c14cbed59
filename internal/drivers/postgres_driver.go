package drivers

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shepherrrd/efmigrate/internal/models"
)

type PostgreSQLDriver struct{}

func NewPostgreSQLDriver() *PostgreSQLDriver {
	return &PostgreSQLDriver{}
}

func (p *PostgreSQLDriver) Name() string {
	return "postgres"
}

func (p *PostgreSQLDriver) Connect(connectionString string) (*gorm.DB, error) {
	return p.ConnectWithLogger(connectionString, "silent")
}

func (p *PostgreSQLDriver) ConnectWithLogger(connectionString string, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{
		NamingStrategy: NewNamingStrategy(),
		Logger:         newLogger(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

func (p *PostgreSQLDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (p *PostgreSQLDriver) SupportsTransactions() bool {
	return true
}

func (p *PostgreSQLDriver) SupportsSchemas() bool {
	return true
}

func (p *PostgreSQLDriver) Quote(name string) string {
	return quoteWith(name, `"`, `"`)
}

func (p *PostgreSQLDriver) MapColumnType(c *models.PropertyModel) string {
	if c.StoreType != "" {
		return c.StoreType
	}
	switch c.Type {
	case models.Binary:
		return "BYTEA"
	case models.Boolean:
		return "BOOLEAN"
	case models.Byte, models.Int16:
		return "SMALLINT"
	case models.DateTime:
		return "TIMESTAMP"
	case models.DateTimeOffset:
		return "TIMESTAMPTZ"
	case models.Decimal:
		return decimalType(c)
	case models.Double:
		return "DOUBLE PRECISION"
	case models.Guid:
		return "UUID"
	case models.Single:
		return "REAL"
	case models.Int32:
		return "INTEGER"
	case models.Int64:
		return "BIGINT"
	case models.String:
		if c.MaxLength == nil {
			return "TEXT"
		}
		if isTrue(c.IsFixedLength) {
			return fmt.Sprintf("CHAR(%d)", *c.MaxLength)
		}
		return fmt.Sprintf("VARCHAR(%d)", *c.MaxLength)
	case models.Time:
		return "INTERVAL"
	case models.Geography:
		return "GEOGRAPHY"
	case models.Geometry:
		return "GEOMETRY"
	default:
		return "TEXT"
	}
}

func (p *PostgreSQLDriver) QuoteIdentifier(name string) string {
	return quoteIdentifier(name, `"`, `"`)
}
