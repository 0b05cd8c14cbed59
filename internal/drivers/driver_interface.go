// Package drivers connects to the supported databases through gorm and
// knows each dialect's type names and identifier quoting.
package drivers

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shepherrrd/efmigrate/internal/models"
)

type DatabaseDriver interface {
	Name() string
	Connect(connectionString string) (*gorm.DB, error)
	ConnectWithLogger(connectionString string, logLevel string) (*gorm.DB, error)
	GetSQLDB(db *gorm.DB) (*sql.DB, error)
	// MapColumnType returns the store type of a column or parameter. An
	// explicit StoreType always wins.
	MapColumnType(p *models.PropertyModel) string
	// Quote quotes a possibly schema-qualified name.
	Quote(name string) string
	// QuoteIdentifier quotes name as a single identifier, dots included.
	QuoteIdentifier(name string) string
	SupportsTransactions() bool
	SupportsSchemas() bool
}

// ByName returns the driver called name: postgres, mysql or sqlite.
func ByName(name string) (DatabaseDriver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "":
		return NewPostgreSQLDriver(), nil
	case "mysql":
		return NewMySQLDriver(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDriver(), nil
	}
	return nil, fmt.Errorf("unsupported driver %q", name)
}

// newLogger maps a log level name onto a gorm logger. Unknown levels are
// silent.
func newLogger(logLevel string) logger.Interface {
	var level logger.LogLevel
	switch logLevel {
	case "info": // shows SQL statements
		level = logger.Info
	case "warn":
		level = logger.Warn
	case "error":
		level = logger.Error
	default:
		return logger.Default.LogMode(logger.Silent)
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}

func quoteIdentifier(name, open, close string) string {
	return open + strings.ReplaceAll(name, close, close+close) + close
}

func quoteWith(name string, open, close string) string {
	n := models.ParseDatabaseName(name)
	if n.Schema == "" {
		return quoteIdentifier(n.Name, open, close)
	}
	return quoteIdentifier(n.Schema, open, close) + "." + quoteIdentifier(n.Name, open, close)
}

func decimalType(p *models.PropertyModel) string {
	precision, scale := uint8(18), uint8(2)
	if p.Precision != nil {
		precision = *p.Precision
	}
	if p.Scale != nil {
		scale = *p.Scale
	}
	return fmt.Sprintf("DECIMAL(%d, %d)", precision, scale)
}

func isTrue(b *bool) bool { return b != nil && *b }
