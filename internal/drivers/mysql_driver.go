package drivers

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/shepherrrd/efmigrate/internal/models"
)

type MySQLDriver struct{}

func NewMySQLDriver() *MySQLDriver {
	return &MySQLDriver{}
}

func (m *MySQLDriver) Name() string {
	return "mysql"
}

func (m *MySQLDriver) Connect(connectionString string) (*gorm.DB, error) {
	return m.ConnectWithLogger(connectionString, "silent")
}

func (m *MySQLDriver) ConnectWithLogger(connectionString string, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(connectionString), &gorm.Config{
		NamingStrategy: NewNamingStrategy(),
		Logger:         newLogger(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql: %w", err)
	}
	return db, nil
}

func (m *MySQLDriver) GetSQLDB(db *gorm.DB) (*sql.DB, error) {
	return db.DB()
}

func (m *MySQLDriver) SupportsTransactions() bool {
	return true
}

// SupportsSchemas is false: a MySQL schema is a database, so qualified names
// are passed through as database.table.
func (m *MySQLDriver) SupportsSchemas() bool {
	return false
}

func (m *MySQLDriver) Quote(name string) string {
	return quoteWith(name, "`", "`")
}

func (m *MySQLDriver) MapColumnType(c *models.PropertyModel) string {
	if c.StoreType != "" {
		return c.StoreType
	}
	switch c.Type {
	case models.Binary:
		if c.MaxLength == nil {
			return "LONGBLOB"
		}
		return fmt.Sprintf("VARBINARY(%d)", *c.MaxLength)
	case models.Boolean:
		return "TINYINT(1)"
	case models.Byte:
		return "TINYINT UNSIGNED"
	case models.DateTime:
		return "DATETIME(6)"
	case models.DateTimeOffset:
		return "TIMESTAMP(6)"
	case models.Decimal:
		return decimalType(c)
	case models.Double:
		return "DOUBLE"
	case models.Guid:
		return "CHAR(36)"
	case models.Single:
		return "FLOAT"
	case models.Int16:
		return "SMALLINT"
	case models.Int32:
		return "INT"
	case models.Int64:
		return "BIGINT"
	case models.String:
		if c.MaxLength == nil {
			return "LONGTEXT"
		}
		if isTrue(c.IsFixedLength) {
			return fmt.Sprintf("CHAR(%d)", *c.MaxLength)
		}
		return fmt.Sprintf("VARCHAR(%d)", *c.MaxLength)
	case models.Time:
		return "TIME(6)"
	case models.Geography, models.Geometry:
		return "GEOMETRY"
	default:
		return "LONGTEXT"
	}
}

func (m *MySQLDriver) QuoteIdentifier(name string) string {
	return quoteIdentifier(name, "`", "`")
}
