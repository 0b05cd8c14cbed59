package migrations

import "github.com/shepherrrd/efmigrate/internal/models"

// TableBuilder configures a table created by CreateTable. Its methods refer
// to columns by the property names passed to Col; a name that is not a
// property is used as the column name itself.
type TableBuilder struct {
	migration  *DbMigration
	table      *models.CreateTableOperation
	properties map[string]string
}

func (t *TableBuilder) resolve(properties []string, param string) ([]string, bool) {
	if t.table == nil || !t.migration.requireColumns(properties, param) {
		return nil, false
	}
	columns := make([]string, len(properties))
	for i, p := range properties {
		if name, ok := t.properties[p]; ok {
			columns[i] = name
		} else {
			columns[i] = p
		}
	}
	return columns, true
}

// PrimaryKey sets the primary key of the new table.
func (t *TableBuilder) PrimaryKey(properties []string, opts ...Option) *TableBuilder {
	columns, ok := t.resolve(properties, "keyExpression")
	if !ok {
		return t
	}
	o, ok := t.migration.options(opts)
	if !ok {
		return t
	}
	pk := &models.AddPrimaryKeyOperation{PrimaryKeyOperation: primaryKey(t.table.Name, columns, o)}
	o.applyArguments(pk)
	t.table.PrimaryKey = pk
	return t
}

// ForeignKey adds a foreign key from the new table to principalTable.
func (t *TableBuilder) ForeignKey(principalTable string, properties []string, opts ...Option) *TableBuilder {
	columns, ok := t.resolve(properties, "dependentKeyExpression")
	if !ok {
		return t
	}
	t.migration.AddForeignKey(t.table.Name, columns, principalTable, nil, opts...)
	return t
}

// Index adds an index over columns of the new table.
func (t *TableBuilder) Index(properties []string, opts ...Option) *TableBuilder {
	columns, ok := t.resolve(properties, "indexExpression")
	if !ok {
		return t
	}
	t.migration.CreateIndex(t.table.Name, columns, opts...)
	return t
}
