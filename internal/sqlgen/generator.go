// Package sqlgen turns migration operations into DDL for one of the
// supported dialects.
package sqlgen

import (
	"fmt"
	"strings"

	"github.com/shepherrrd/efmigrate/internal/drivers"
	"github.com/shepherrrd/efmigrate/internal/models"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// Statement is one SQL command. SuppressTransaction asks the caller to run
// it outside the migration's transaction.
type Statement struct {
	SQL                 string
	SuppressTransaction bool
}

type Generator struct {
	driver  drivers.DatabaseDriver
	dialect string
}

func New(driver drivers.DatabaseDriver) *Generator {
	return &Generator{driver: driver, dialect: driver.Name()}
}

func (g *Generator) Dialect() string { return g.dialect }

// Generate returns the statements for ops, in order. On SQLite, foreign
// keys of tables created in the same batch become table constraints, and
// foreign keys dropped ahead of their table's drop are left to the drop.
func (g *Generator) Generate(ops []models.MigrationOperation) ([]Statement, error) {
	inline, skip := g.plan(ops)

	var statements []Statement
	for i, op := range ops {
		if skip[i] {
			continue
		}
		var (
			generated []Statement
			err       error
		)
		if create, ok := op.(*models.CreateTableOperation); ok {
			generated, err = g.createTable(create, inline[i])
		} else {
			generated, err = g.operation(op)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to generate sql for %s: %w", op.Kind(), err)
		}
		statements = append(statements, generated...)
	}
	return statements, nil
}

func (g *Generator) plan(ops []models.MigrationOperation) (map[int][]*models.AddForeignKeyOperation, map[int]bool) {
	inline := make(map[int][]*models.AddForeignKeyOperation)
	skip := make(map[int]bool)
	if g.dialect != SQLite {
		return inline, skip
	}

	// A foreign key folds into its CREATE TABLE only while nothing else has
	// touched the table since.
	open := make(map[string]int)
	for i, op := range ops {
		switch o := op.(type) {
		case *models.CreateTableOperation:
			open[strings.ToLower(o.Name)] = i
			continue
		case *models.AddForeignKeyOperation:
			if at, ok := open[strings.ToLower(o.DependentTable)]; ok {
				inline[at] = append(inline[at], o)
				skip[i] = true
				continue
			}
		case *models.DropForeignKeyOperation:
			if droppedLater(ops[i+1:], o.DependentTable) {
				skip[i] = true
			}
		case *models.SqlOperation:
			clear(open)
			continue
		}
		delete(open, strings.ToLower(models.TableOf(op)))
	}
	return inline, skip
}

func droppedLater(ops []models.MigrationOperation, table string) bool {
	for _, op := range ops {
		if drop, ok := op.(*models.DropTableOperation); ok && strings.EqualFold(drop.Name, table) {
			return true
		}
	}
	return false
}

func (g *Generator) q(name string) string { return g.driver.Quote(name) }

func (g *Generator) ident(name string) string { return g.driver.QuoteIdentifier(name) }

func (g *Generator) list(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = g.ident(n)
	}
	return strings.Join(quoted, ", ")
}

func (g *Generator) unsupported(op models.MigrationOperation, reason string) error {
	return &UnsupportedError{Dialect: g.dialect, Kind: op.Kind(), Reason: reason}
}

func single(sql string) []Statement { return []Statement{{SQL: sql}} }

func (g *Generator) operation(op models.MigrationOperation) ([]Statement, error) {
	switch o := op.(type) {
	case *models.DropTableOperation:
		return single("DROP TABLE " + g.q(o.Name)), nil

	case *models.AddColumnOperation:
		def, err := g.columnDefinition(o.Column)
		if err != nil {
			return nil, err
		}
		return single(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", g.q(o.Table), def)), nil

	case *models.DropColumnOperation:
		return single(fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", g.q(o.Table), g.ident(o.Name))), nil

	case *models.AlterColumnOperation:
		return g.alterColumn(o)

	case *models.AlterTableOperation:
		// Annotations have no DDL of their own.
		return nil, nil

	case *models.AddPrimaryKeyOperation:
		if g.dialect == SQLite {
			return nil, g.unsupported(op, "keys can only be declared when the table is created")
		}
		return single(fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s)",
			g.q(o.Table), g.ident(o.EffectiveName()), g.list(o.Columns))), nil

	case *models.DropPrimaryKeyOperation:
		switch g.dialect {
		case SQLite:
			return nil, g.unsupported(op, "keys can only be dropped with their table")
		case MySQL:
			return single(fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY", g.q(o.Table))), nil
		}
		return single(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.q(o.Table), g.ident(o.EffectiveName()))), nil

	case *models.AddForeignKeyOperation:
		if g.dialect == SQLite {
			return nil, g.unsupported(op, "foreign keys can only be declared when the table is created")
		}
		constraint, err := g.foreignKey(o)
		if err != nil {
			return nil, err
		}
		return single(fmt.Sprintf("ALTER TABLE %s ADD %s", g.q(o.DependentTable), constraint)), nil

	case *models.DropForeignKeyOperation:
		switch g.dialect {
		case SQLite:
			return nil, g.unsupported(op, "foreign keys can only be dropped with their table")
		case MySQL:
			return single(fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s", g.q(o.DependentTable), g.ident(o.EffectiveName()))), nil
		}
		return single(fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", g.q(o.DependentTable), g.ident(o.EffectiveName()))), nil

	case *models.CreateIndexOperation:
		unique := ""
		if o.IsUnique {
			unique = "UNIQUE "
		}
		return single(fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
			unique, g.ident(o.EffectiveName()), g.q(o.Table), g.list(o.Columns))), nil

	case *models.DropIndexOperation:
		switch g.dialect {
		case MySQL:
			return single(fmt.Sprintf("DROP INDEX %s ON %s", g.ident(o.EffectiveName()), g.q(o.Table))), nil
		case SQLite:
			return single("DROP INDEX " + g.ident(o.EffectiveName())), nil
		}
		return single("DROP INDEX " + g.inSchemaOf(o.Table, o.EffectiveName())), nil

	case *models.RenameTableOperation:
		newName := models.ParseDatabaseName(o.NewName).Name
		if g.dialect == MySQL {
			return single(fmt.Sprintf("RENAME TABLE %s TO %s", g.q(o.Name), g.inSchemaOf(o.Name, newName))), nil
		}
		return single(fmt.Sprintf("ALTER TABLE %s RENAME TO %s", g.q(o.Name), g.ident(newName))), nil

	case *models.RenameColumnOperation:
		return single(fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
			g.q(o.Table), g.ident(o.Name), g.ident(o.NewName))), nil

	case *models.RenameIndexOperation:
		switch g.dialect {
		case SQLite:
			return nil, g.unsupported(op, "")
		case MySQL:
			return single(fmt.Sprintf("ALTER TABLE %s RENAME INDEX %s TO %s",
				g.q(o.Table), g.ident(o.Name), g.ident(o.NewName))), nil
		}
		return single(fmt.Sprintf("ALTER INDEX %s RENAME TO %s", g.inSchemaOf(o.Table, o.Name), g.ident(o.NewName))), nil

	case *models.MoveTableOperation:
		return g.moveTable(o)

	case *models.CreateProcedureOperation:
		return g.createProcedure(&o.ProcedureOperation, false)

	case *models.AlterProcedureOperation:
		return g.createProcedure(&o.ProcedureOperation, true)

	case *models.DropProcedureOperation:
		if g.dialect == SQLite {
			return nil, g.unsupported(op, "")
		}
		return single("DROP PROCEDURE " + g.q(o.Name)), nil

	case *models.RenameProcedureOperation:
		if g.dialect != Postgres {
			return nil, g.unsupported(op, "")
		}
		return single(fmt.Sprintf("ALTER PROCEDURE %s RENAME TO %s", g.q(o.Name), g.ident(o.NewName))), nil

	case *models.MoveProcedureOperation:
		if g.dialect != Postgres {
			return nil, g.unsupported(op, "")
		}
		return single(fmt.Sprintf("ALTER PROCEDURE %s SET SCHEMA %s", g.q(o.Name), g.ident(schemaOrPublic(o.NewSchema)))), nil

	case *models.SqlOperation:
		return []Statement{{SQL: o.SQL, SuppressTransaction: o.SuppressTransaction}}, nil
	}
	return nil, g.unsupported(op, fmt.Sprintf("unknown operation %T", op))
}

// inSchemaOf quotes name qualified with the schema of table.
func (g *Generator) inSchemaOf(table, name string) string {
	schema := models.ParseDatabaseName(table).Schema
	if schema == "" {
		return g.ident(name)
	}
	return g.ident(schema) + "." + g.ident(name)
}

func schemaOrPublic(schema string) string {
	if schema == "" {
		return "public"
	}
	return schema
}

func (g *Generator) createTable(o *models.CreateTableOperation, foreignKeys []*models.AddForeignKeyOperation) ([]Statement, error) {
	var statements []Statement
	if schema := models.ParseDatabaseName(o.Name).Schema; schema != "" && g.dialect == Postgres {
		statements = append(statements, Statement{SQL: "CREATE SCHEMA IF NOT EXISTS " + g.ident(schema)})
	}

	autoincrement := g.autoincrementKey(o)
	lines := make([]string, 0, len(o.Columns)+1+len(foreignKeys))
	for _, c := range o.Columns {
		def, err := g.columnDefinition(c)
		if err != nil {
			return nil, err
		}
		if c == autoincrement {
			def += fmt.Sprintf(" CONSTRAINT %s PRIMARY KEY AUTOINCREMENT", g.ident(o.PrimaryKey.EffectiveName()))
		}
		lines = append(lines, def)
	}
	if pk := o.PrimaryKey; pk != nil && autoincrement == nil {
		lines = append(lines, fmt.Sprintf("CONSTRAINT %s PRIMARY KEY (%s)", g.ident(pk.EffectiveName()), g.list(pk.Columns)))
	}
	for _, fk := range foreignKeys {
		constraint, err := g.foreignKey(fk)
		if err != nil {
			return nil, err
		}
		lines = append(lines, constraint)
	}

	sql := fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", g.q(o.Name), strings.Join(lines, ",\n    "))
	return append(statements, Statement{SQL: sql}), nil
}

// autoincrementKey returns the SQLite identity column that is the whole
// primary key; SQLite only auto-increments such a column.
func (g *Generator) autoincrementKey(o *models.CreateTableOperation) *models.ColumnModel {
	if g.dialect != SQLite || o.PrimaryKey == nil || len(o.PrimaryKey.Columns) != 1 {
		return nil
	}
	c := o.Column(o.PrimaryKey.Columns[0])
	if c == nil || !c.IsIdentity {
		return nil
	}
	return c
}

func (g *Generator) foreignKey(o *models.AddForeignKeyOperation) (string, error) {
	if g.dialect == MySQL && len(o.PrincipalColumns) == 0 {
		return "", g.unsupported(o, "principal columns are required")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s",
		g.ident(o.EffectiveName()), g.list(o.DependentColumns), g.q(o.PrincipalTable))
	if len(o.PrincipalColumns) > 0 {
		fmt.Fprintf(&b, " (%s)", g.list(o.PrincipalColumns))
	}
	if o.CascadeDelete {
		b.WriteString(" ON DELETE CASCADE")
	}
	return b.String(), nil
}

func (g *Generator) alterColumn(o *models.AlterColumnOperation) ([]Statement, error) {
	c := o.Column
	switch g.dialect {
	case SQLite:
		return nil, g.unsupported(o, "columns can only be changed by rebuilding the table")
	case MySQL:
		def, err := g.columnDefinition(c)
		if err != nil {
			return nil, err
		}
		return single(fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s", g.q(o.Table), def)), nil
	}

	column := "ALTER COLUMN " + g.ident(c.Name)
	actions := []string{column + " TYPE " + g.driver.MapColumnType(&c.PropertyModel)}
	if c.Nullable() {
		actions = append(actions, column+" DROP NOT NULL")
	} else {
		actions = append(actions, column+" SET NOT NULL")
	}
	def, err := g.defaultValue(&c.PropertyModel)
	if err != nil {
		return nil, err
	}
	if def == "" {
		actions = append(actions, column+" DROP DEFAULT")
	} else {
		actions = append(actions, column+" SET DEFAULT "+def)
	}
	return single(fmt.Sprintf("ALTER TABLE %s %s", g.q(o.Table), strings.Join(actions, ", "))), nil
}

func (g *Generator) moveTable(o *models.MoveTableOperation) ([]Statement, error) {
	name := models.ParseDatabaseName(o.Name)
	switch g.dialect {
	case SQLite:
		return nil, g.unsupported(o, "SQLite has no schemas")
	case MySQL:
		target := models.DatabaseName{Schema: o.NewSchema, Name: name.Name}
		return single(fmt.Sprintf("RENAME TABLE %s TO %s", g.q(o.Name), g.q(target.String()))), nil
	}
	schema := schemaOrPublic(o.NewSchema)
	return []Statement{
		{SQL: "CREATE SCHEMA IF NOT EXISTS " + g.ident(schema)},
		{SQL: fmt.Sprintf("ALTER TABLE %s SET SCHEMA %s", g.q(o.Name), g.ident(schema))},
	}, nil
}

func (g *Generator) columnDefinition(c *models.ColumnModel) (string, error) {
	var b strings.Builder
	b.WriteString(g.ident(c.Name))
	b.WriteByte(' ')
	b.WriteString(g.driver.MapColumnType(&c.PropertyModel))
	if !c.Nullable() {
		b.WriteString(" NOT NULL")
	}
	def, err := g.defaultValue(&c.PropertyModel)
	if err != nil {
		return "", err
	}
	if def != "" {
		b.WriteString(" DEFAULT " + def)
	}
	if c.IsIdentity {
		switch g.dialect {
		case Postgres:
			b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
		case MySQL:
			b.WriteString(" AUTO_INCREMENT")
		}
	}
	return b.String(), nil
}

// defaultValue renders the default of p, or "" when it has none.
func (g *Generator) defaultValue(p *models.PropertyModel) (string, error) {
	if p.DefaultValueSQL != "" {
		return p.DefaultValueSQL, nil
	}
	if p.DefaultValue == nil {
		return "", nil
	}
	return g.literal(p.DefaultValue)
}
