// Package history stores which migrations have been applied to a database.
package history

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shepherrrd/efmigrate/internal/drivers"
)

const (
	TableName = "__MigrationHistory"

	// ProductVersion is recorded with every applied migration.
	ProductVersion = "efmigrate/1.0.0"

	DefaultContextKey = "efmigrate"
)

// Row is one applied migration. A database can hold the history of several
// migration sets, told apart by ContextKey.
type Row struct {
	MigrationID    string    `gorm:"column:MigrationId;primaryKey;size:150"`
	ContextKey     string    `gorm:"column:ContextKey;primaryKey;size:300"`
	Model          string    `gorm:"column:Model;not null"`
	ProductVersion string    `gorm:"column:ProductVersion;size:32;not null"`
	BatchID        string    `gorm:"column:BatchId;size:36;index"`
	AppliedAt      time.Time `gorm:"column:AppliedAt;not null"`
}

func (Row) TableName() string { return TableName }

// Context owns the database connection and the history table.
type Context struct {
	db         *gorm.DB
	driver     drivers.DatabaseDriver
	contextKey string
}

type Options struct {
	ConnectionString string
	Driver           drivers.DatabaseDriver
	// LogLevel is the gorm log level: silent, error, warn or info.
	LogLevel   string
	ContextKey string
}

// Open connects to the database described by options.
func Open(options Options) (*Context, error) {
	if options.Driver == nil {
		return nil, fmt.Errorf("failed to open history: no driver")
	}
	db, err := options.Driver.ConnectWithLogger(options.ConnectionString, options.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db, options.Driver, options.ContextKey), nil
}

// New wraps an open connection. An empty contextKey means DefaultContextKey.
func New(db *gorm.DB, driver drivers.DatabaseDriver, contextKey string) *Context {
	if contextKey == "" {
		contextKey = DefaultContextKey
	}
	return &Context{db: db, driver: driver, contextKey: contextKey}
}

func (c *Context) DB() *gorm.DB { return c.db }

func (c *Context) Driver() drivers.DatabaseDriver { return c.driver }

func (c *Context) ContextKey() string { return c.contextKey }

// EnsureCreated creates the history table if it does not exist.
func (c *Context) EnsureCreated(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&Row{}); err != nil {
		return fmt.Errorf("failed to create %s: %w", TableName, err)
	}
	return nil
}

// Applied returns the rows of this context, oldest first.
func (c *Context) Applied(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := c.db.WithContext(ctx).
		Where(&Row{ContextKey: c.contextKey}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "MigrationId"}}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TableName, err)
	}
	return rows, nil
}

// Record inserts the row of an applied migration using tx.
func (c *Context) Record(tx *gorm.DB, row Row) error {
	row = c.complete(row)
	if err := tx.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record migration %s: %w", row.MigrationID, err)
	}
	return nil
}

// Forget deletes the row of a reverted migration using tx.
func (c *Context) Forget(tx *gorm.DB, migrationID string) error {
	err := tx.Where(&Row{MigrationID: migrationID, ContextKey: c.contextKey}).Delete(&Row{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove migration %s from history: %w", migrationID, err)
	}
	return nil
}

// InsertSQL renders the insert Record would run, for scripts.
func (c *Context) InsertSQL(row Row) string {
	row = c.complete(row)
	stmt := c.db.Session(&gorm.Session{DryRun: true}).Create(&row).Statement
	return c.db.Dialector.Explain(stmt.SQL.String(), stmt.Vars...)
}

func (c *Context) complete(row Row) Row {
	row.ContextKey = c.contextKey
	if row.ProductVersion == "" {
		row.ProductVersion = ProductVersion
	}
	if row.AppliedAt.IsZero() {
		row.AppliedAt = time.Now().UTC()
	}
	return row
}

// Transaction runs fn in a database transaction.
func (c *Context) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.db.WithContext(ctx).Transaction(fn)
}

func (c *Context) Close() error {
	sqlDB, err := c.driver.GetSQLDB(c.db)
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
