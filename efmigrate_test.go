package efmigrate_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherrrd/efmigrate"
)

type addCustomers struct{ efmigrate.DbMigration }

func (m *addCustomers) ID() string     { return "20240501000000_AddCustomers" }
func (m *addCustomers) Source() string { return "" }
func (m *addCustomers) Target() string { return "customers" }

func (m *addCustomers) Up() {
	m.CreateTable("Customers", func(c *efmigrate.ColumnBuilder) []efmigrate.Column {
		return []efmigrate.Column{
			efmigrate.Col("Id", c.Int(efmigrate.Nullable(false), efmigrate.Identity())),
			efmigrate.Col("Email", c.String(efmigrate.MaxLength(320), efmigrate.Nullable(false))),
			efmigrate.Col("Active", c.Boolean(efmigrate.Default(true))),
		}
	}).PrimaryKey([]string{"Id"}).Index([]string{"Email"}, efmigrate.Unique(true))
}

func (m *addCustomers) Down() {
	m.DropIndex("Customers", []string{"Email"})
	m.DropTable("Customers")
}

func TestOpenAppliesMigrations(t *testing.T) {
	registry := efmigrate.NewRegistry()
	require.NoError(t, registry.Add(&addCustomers{}))

	migrator, closeDB, err := efmigrate.Open(filepath.Join(t.TempDir(), "shop.db"), "sqlite", efmigrate.WithRegistry(registry))
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeDB() })

	done, err := migrator.Update(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"20240501000000_AddCustomers"}, done)

	done, err = migrator.Update(context.Background(), efmigrate.InitialDatabase)
	require.NoError(t, err)
	assert.Equal(t, []string{"20240501000000_AddCustomers"}, done)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, _, err := efmigrate.Open("", "oracle")
	assert.EqualError(t, err, `unsupported driver "oracle"`)
}

func TestGenerateUsesThisPackage(t *testing.T) {
	var m addCustomers
	m.Up()
	require.NoError(t, m.Err())

	scaffolded, err := efmigrate.Generate("20240501000000_AddCustomers", m.Operations(), "", "target", "Shop.Migrations", "AddCustomers")
	require.NoError(t, err)
	assert.Contains(t, scaffolded.UserCode, `"github.com/shepherrrd/efmigrate"`)
	assert.Contains(t, scaffolded.UserCode, "efmigrate.Col(")
	assert.Contains(t, scaffolded.DesignerCode, "efmigrate.Register(")
}
