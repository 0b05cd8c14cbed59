package drivers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherrrd/efmigrate/internal/models"
)

func TestByName(t *testing.T) {
	for name, want := range map[string]string{
		"":           "postgres",
		"PostgreSQL": "postgres",
		"mysql":      "mysql",
		"sqlite3":    "sqlite",
	} {
		driver, err := ByName(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, driver.Name())
	}

	_, err := ByName("oracle")
	assert.EqualError(t, err, `unsupported driver "oracle"`)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"dbo"."Orders"`, NewPostgreSQLDriver().Quote("dbo.Orders"))
	assert.Equal(t, `"Odd""Name"`, NewPostgreSQLDriver().Quote(`Odd"Name`))
	assert.Equal(t, "`shop`.`Orders`", NewMySQLDriver().Quote("shop.Orders"))
	assert.Equal(t, `"Orders"`, NewSQLiteDriver().Quote("dbo.Orders"))
}

func TestMapColumnType(t *testing.T) {
	length := 128
	precision, scale := uint8(10), uint8(4)
	fixed := true

	str := &models.PropertyModel{Type: models.String}
	bounded := &models.PropertyModel{Type: models.String, MaxLength: &length}
	char := &models.PropertyModel{Type: models.String, MaxLength: &length, IsFixedLength: &fixed}
	money := &models.PropertyModel{Type: models.Decimal, Precision: &precision, Scale: &scale}
	explicit := &models.PropertyModel{Type: models.Int32, StoreType: "serial"}

	pg := NewPostgreSQLDriver()
	assert.Equal(t, "TEXT", pg.MapColumnType(str))
	assert.Equal(t, "VARCHAR(128)", pg.MapColumnType(bounded))
	assert.Equal(t, "CHAR(128)", pg.MapColumnType(char))
	assert.Equal(t, "DECIMAL(10, 4)", pg.MapColumnType(money))
	assert.Equal(t, "DECIMAL(18, 2)", pg.MapColumnType(&models.PropertyModel{Type: models.Decimal}))
	assert.Equal(t, "UUID", pg.MapColumnType(&models.PropertyModel{Type: models.Guid}))
	assert.Equal(t, "serial", pg.MapColumnType(explicit))

	my := NewMySQLDriver()
	assert.Equal(t, "LONGTEXT", my.MapColumnType(str))
	assert.Equal(t, "CHAR(36)", my.MapColumnType(&models.PropertyModel{Type: models.Guid}))
	assert.Equal(t, "TINYINT(1)", my.MapColumnType(&models.PropertyModel{Type: models.Boolean}))

	lite := NewSQLiteDriver()
	assert.Equal(t, "INTEGER", lite.MapColumnType(&models.PropertyModel{Type: models.Int64}))
	assert.Equal(t, "TEXT", lite.MapColumnType(bounded))
	assert.Equal(t, "REAL", lite.MapColumnType(&models.PropertyModel{Type: models.Double}))
}

func TestSQLiteConnect(t *testing.T) {
	db, err := NewSQLiteDriver().ConnectWithLogger("file::memory:", "error")
	require.NoError(t, err)

	sqlDB, err := NewSQLiteDriver().GetSQLDB(db)
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, sqlDB.Ping())
}

func TestNamingStrategyKeepsNames(t *testing.T) {
	ns := NewNamingStrategy()
	assert.Equal(t, "__MigrationHistory", ns.TableName("__MigrationHistory"))
	assert.Equal(t, "MigrationId", ns.ColumnName("__MigrationHistory", "MigrationId"))
}

func TestQuoteIdentifierKeepsDots(t *testing.T) {
	assert.Equal(t, `"FK_dbo.Orders_dbo.Customers_CustomerId"`, NewPostgreSQLDriver().QuoteIdentifier("FK_dbo.Orders_dbo.Customers_CustomerId"))
	assert.Equal(t, "`IX_a``b`", NewMySQLDriver().QuoteIdentifier("IX_a`b"))
}
