package migrations

import (
	"fmt"
	"io/fs"

	"github.com/spf13/afero"

	"github.com/shepherrrd/efmigrate/internal/models"
)

// DbMigration accumulates the operations of one migration. Migration types
// embed it and call its methods from Up and Down.
//
// The first invalid call records an error and turns every later call into a
// no-op; Err reports it and Operations returns nil until Reset.
type DbMigration struct {
	// FS is used by SQLFile. It defaults to the OS filesystem.
	FS afero.Fs
	// BaseDir resolves relative SQLFile paths.
	BaseDir string
	// Resources is the fallback filesystem for SQLResource.
	Resources fs.FS

	operations []models.MigrationOperation
	err        error
}

// Operations returns the operations recorded so far in call order, or nil
// if a call failed.
func (m *DbMigration) Operations() []models.MigrationOperation {
	if m.err != nil {
		return nil
	}
	return append([]models.MigrationOperation(nil), m.operations...)
}

func (m *DbMigration) Err() error { return m.err }

// Reset clears the recorded operations and error so Up or Down can run again.
func (m *DbMigration) Reset() {
	m.operations = nil
	m.err = nil
}

func (m *DbMigration) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

func (m *DbMigration) failed() bool { return m.err != nil }

func (m *DbMigration) require(value, param string) bool {
	if m.failed() {
		return false
	}
	if err := models.CheckNotEmpty(value, param); err != nil {
		m.fail(err)
		return false
	}
	return true
}

func (m *DbMigration) requireColumns(columns []string, param string) bool {
	if m.failed() {
		return false
	}
	if len(columns) == 0 {
		m.fail(&models.ArgumentError{Param: param, Reason: "at least one column is required"})
		return false
	}
	for _, c := range columns {
		if !m.require(c, param) {
			return false
		}
	}
	return true
}

func (m *DbMigration) options(opts []Option) (*options, bool) {
	if m.failed() {
		return nil, false
	}
	o := collect(opts)
	if o.err != nil {
		m.fail(o.err)
		return nil, false
	}
	return o, true
}

func (m *DbMigration) add(op models.MigrationOperation, o *options) {
	if o != nil {
		o.applyArguments(op)
	}
	m.operations = append(m.operations, op)
}

// AddOperation appends a prebuilt operation.
func (m *DbMigration) AddOperation(op models.MigrationOperation) {
	if m.failed() {
		return
	}
	if op == nil {
		m.fail(&models.ArgumentError{Param: "migrationOperation", Reason: "operation is nil"})
		return
	}
	m.operations = append(m.operations, op)
}

// NotSupported records that the reverse of an operation cannot be derived.
// Generated Down methods call it in place of the missing inverse.
func (m *DbMigration) NotSupported(operation string) {
	m.fail(&models.ReverseNotSupportedError{Operation: operation})
}

func (m *DbMigration) buildColumn(build func(*ColumnBuilder) *models.ColumnModel) *models.ColumnModel {
	if build == nil {
		m.fail(&models.ArgumentError{Param: "columnAction", Reason: "column builder is nil"})
		return nil
	}
	b := &ColumnBuilder{}
	column := build(b)
	if b.err != nil {
		m.fail(b.err)
		return nil
	}
	if column == nil {
		m.fail(&models.ArgumentError{Param: "columnAction", Reason: "column builder returned nil"})
		return nil
	}
	return column
}

func (m *DbMigration) buildColumns(build func(*ColumnBuilder) []Column) ([]*models.ColumnModel, map[string]string) {
	if build == nil {
		m.fail(&models.ArgumentError{Param: "columnsAction", Reason: "columns builder is nil"})
		return nil, nil
	}
	b := &ColumnBuilder{}
	columns := build(b)
	if b.err != nil {
		m.fail(b.err)
		return nil, nil
	}
	result := make([]*models.ColumnModel, 0, len(columns))
	properties := make(map[string]string, len(columns))
	for _, c := range columns {
		if !m.require(c.Property, "property") {
			return nil, nil
		}
		if c.Model == nil {
			m.fail(&models.ArgumentError{Param: "columnsAction", Reason: fmt.Sprintf("column %q has no model", c.Property)})
			return nil, nil
		}
		if c.Model.Name == "" {
			c.Model.Name = c.Property
		}
		properties[c.Property] = c.Model.Name
		result = append(result, c.Model)
	}
	return result, properties
}

func (m *DbMigration) AddColumn(table, name string, build func(*ColumnBuilder) *models.ColumnModel, opts ...Option) {
	if !m.require(table, "table") || !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	column := m.buildColumn(build)
	if column == nil {
		return
	}
	column.Name = name
	m.add(&models.AddColumnOperation{Table: table, Column: column}, o)
}

// DropColumn drops a column. RemovedAnnotation options record the
// annotations the column carried.
func (m *DbMigration) DropColumn(table, name string, opts ...Option) {
	if !m.require(table, "table") || !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.DropColumnOperation{
		Table:              table,
		Name:               name,
		RemovedAnnotations: nonNil(o.removedAnnotations),
	}, o)
}

func (m *DbMigration) AlterColumn(table, name string, build func(*ColumnBuilder) *models.ColumnModel, opts ...Option) {
	if !m.require(table, "table") || !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	column := m.buildColumn(build)
	if column == nil {
		return
	}
	column.Name = name
	m.add(&models.AlterColumnOperation{Table: table, Column: column}, o)
}

// CreateTable creates a table. The returned builder configures the primary
// key and adds foreign keys and indexes for the new table.
func (m *DbMigration) CreateTable(name string, build func(*ColumnBuilder) []Column, opts ...Option) *TableBuilder {
	tb := &TableBuilder{migration: m}
	if !m.require(name, "name") {
		return tb
	}
	o, ok := m.options(opts)
	if !ok {
		return tb
	}
	columns, properties := m.buildColumns(build)
	if m.failed() {
		return tb
	}
	op := &models.CreateTableOperation{
		Name:        name,
		Columns:     columns,
		Annotations: nonNil(o.tableAnnotations),
	}
	m.add(op, o)
	tb.table = op
	tb.properties = properties
	return tb
}

// AlterTableAnnotations changes table annotations. Annotation options hold
// the old and new values; the columns give renderers the table context.
func (m *DbMigration) AlterTableAnnotations(name string, build func(*ColumnBuilder) []Column, opts ...Option) {
	if !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	columns, _ := m.buildColumns(build)
	if m.failed() {
		return
	}
	annotations := o.annotations
	if annotations == nil {
		annotations = make(map[string]models.AnnotationValues)
	}
	m.add(&models.AlterTableOperation{Name: name, Columns: columns, Annotations: annotations}, o)
}

func (m *DbMigration) DropTable(name string, opts ...Option) {
	if !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	removedColumnAnnotations := o.removedColumnAnnotations
	if removedColumnAnnotations == nil {
		removedColumnAnnotations = make(map[string]map[string]any)
	}
	m.add(&models.DropTableOperation{
		Name:                     name,
		RemovedAnnotations:       nonNil(o.removedAnnotations),
		RemovedColumnAnnotations: removedColumnAnnotations,
	}, o)
}

// AddPrimaryKey adds a primary key. Keys are clustered unless
// Clustered(false) is given.
func (m *DbMigration) AddPrimaryKey(table string, columns []string, opts ...Option) {
	if !m.require(table, "table") || !m.requireColumns(columns, "columns") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.AddPrimaryKeyOperation{PrimaryKeyOperation: primaryKey(table, columns, o)}, o)
}

func primaryKey(table string, columns []string, o *options) models.PrimaryKeyOperation {
	clustered := true
	if o.clustered != nil {
		clustered = *o.clustered
	}
	return models.PrimaryKeyOperation{
		Table:       table,
		Columns:     append([]string(nil), columns...),
		Name:        o.name,
		IsClustered: clustered,
	}
}

// DropPrimaryKey drops the primary key of table, by the default name unless
// Name is given.
func (m *DbMigration) DropPrimaryKey(table string, opts ...Option) {
	if !m.require(table, "table") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.DropPrimaryKeyOperation{PrimaryKeyOperation: primaryKey(table, nil, o)}, o)
}

// AddForeignKey adds a foreign key. A nil principalColumns references the
// principal table's primary key. WithIndex also indexes the dependent
// columns.
func (m *DbMigration) AddForeignKey(dependentTable string, dependentColumns []string, principalTable string, principalColumns []string, opts ...Option) {
	if !m.require(dependentTable, "dependentTable") ||
		!m.requireColumns(dependentColumns, "dependentColumns") ||
		!m.require(principalTable, "principalTable") {
		return
	}
	for _, c := range principalColumns {
		if !m.require(c, "principalColumns") {
			return
		}
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	if len(principalColumns) == 0 {
		principalColumns = o.principalColumns
	}
	op := &models.AddForeignKeyOperation{
		ForeignKeyOperation: models.ForeignKeyOperation{
			DependentTable:   dependentTable,
			DependentColumns: append([]string(nil), dependentColumns...),
			PrincipalTable:   principalTable,
			PrincipalColumns: append([]string(nil), principalColumns...),
			Name:             o.name,
		},
		CascadeDelete: o.cascadeDelete,
	}
	m.add(op, o)
	if o.withIndex {
		m.add(op.CreateIndexOperation(), nil)
	}
}

// DropForeignKey drops the foreign key with the default name for the given
// columns.
func (m *DbMigration) DropForeignKey(dependentTable string, dependentColumns []string, principalTable string, opts ...Option) {
	if !m.require(dependentTable, "dependentTable") ||
		!m.requireColumns(dependentColumns, "dependentColumns") ||
		!m.require(principalTable, "principalTable") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.DropForeignKeyOperation{
		ForeignKeyOperation: models.ForeignKeyOperation{
			DependentTable:   dependentTable,
			DependentColumns: append([]string(nil), dependentColumns...),
			PrincipalTable:   principalTable,
			PrincipalColumns: o.principalColumns,
		},
	}, o)
}

func (m *DbMigration) DropForeignKeyByName(dependentTable, name string, opts ...Option) {
	if !m.require(dependentTable, "dependentTable") || !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.DropForeignKeyOperation{
		ForeignKeyOperation: models.ForeignKeyOperation{DependentTable: dependentTable, Name: name},
	}, o)
}

// CreateIndex creates an index. Indexes are neither unique nor clustered
// unless configured.
func (m *DbMigration) CreateIndex(table string, columns []string, opts ...Option) {
	if !m.require(table, "table") || !m.requireColumns(columns, "columns") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.CreateIndexOperation{
		IndexOperation: models.IndexOperation{
			Table:   table,
			Columns: append([]string(nil), columns...),
			Name:    o.name,
		},
		IsUnique:    o.unique,
		IsClustered: o.clustered != nil && *o.clustered,
	}, o)
}

func (m *DbMigration) DropIndex(table string, columns []string, opts ...Option) {
	if !m.require(table, "table") || !m.requireColumns(columns, "columns") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.DropIndexOperation{
		IndexOperation: models.IndexOperation{Table: table, Columns: append([]string(nil), columns...)},
	}, o)
}

func (m *DbMigration) DropIndexByName(table, name string, opts ...Option) {
	if !m.require(table, "table") || !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.DropIndexOperation{IndexOperation: models.IndexOperation{Table: table, Name: name}}, o)
}

func (m *DbMigration) RenameIndex(table, name, newName string, opts ...Option) {
	if !m.require(table, "table") || !m.require(name, "name") || !m.require(newName, "newName") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.RenameIndexOperation{Table: table, Name: name, NewName: newName}, o)
}

func (m *DbMigration) RenameTable(name, newName string, opts ...Option) {
	if !m.require(name, "name") || !m.require(newName, "newName") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.RenameTableOperation{Name: name, NewName: newName}, o)
}

func (m *DbMigration) RenameColumn(table, name, newName string, opts ...Option) {
	if !m.require(table, "table") || !m.require(name, "name") || !m.require(newName, "newName") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.RenameColumnOperation{Table: table, Name: name, NewName: newName}, o)
}

// MoveTable moves a table to newSchema; an empty schema is the default one.
func (m *DbMigration) MoveTable(name, newSchema string, opts ...Option) {
	if !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.MoveTableOperation{Name: name, NewSchema: newSchema}, o)
}

func (m *DbMigration) procedure(name string, build func(*ParameterBuilder) []Parameter, body string) (models.ProcedureOperation, bool) {
	op := models.ProcedureOperation{Name: name, BodySQL: body}
	if build == nil {
		return op, true
	}
	b := &ParameterBuilder{}
	parameters := build(b)
	if b.err != nil {
		m.fail(b.err)
		return op, false
	}
	for _, p := range parameters {
		if !m.require(p.Property, "property") {
			return op, false
		}
		if p.Model == nil {
			m.fail(&models.ArgumentError{Param: "parametersAction", Reason: fmt.Sprintf("parameter %q has no model", p.Property)})
			return op, false
		}
		if p.Model.Name == "" {
			p.Model.Name = p.Property
		}
		op.Parameters = append(op.Parameters, p.Model)
	}
	return op, true
}

// CreateStoredProcedure creates a stored procedure. A nil parameters
// callback declares none; the body may be empty.
func (m *DbMigration) CreateStoredProcedure(name string, parameters func(*ParameterBuilder) []Parameter, body string, opts ...Option) {
	if !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	procedure, ok := m.procedure(name, parameters, body)
	if !ok {
		return
	}
	m.add(&models.CreateProcedureOperation{ProcedureOperation: procedure}, o)
}

func (m *DbMigration) AlterStoredProcedure(name string, parameters func(*ParameterBuilder) []Parameter, body string, opts ...Option) {
	if !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	procedure, ok := m.procedure(name, parameters, body)
	if !ok {
		return
	}
	m.add(&models.AlterProcedureOperation{ProcedureOperation: procedure}, o)
}

func (m *DbMigration) DropStoredProcedure(name string, opts ...Option) {
	if !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.DropProcedureOperation{Name: name}, o)
}

func (m *DbMigration) RenameStoredProcedure(name, newName string, opts ...Option) {
	if !m.require(name, "name") || !m.require(newName, "newName") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.RenameProcedureOperation{Name: name, NewName: newName}, o)
}

// MoveStoredProcedure moves a procedure to newSchema; an empty schema is the
// default one.
func (m *DbMigration) MoveStoredProcedure(name, newSchema string, opts ...Option) {
	if !m.require(name, "name") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.MoveProcedureOperation{Name: name, NewSchema: newSchema}, o)
}

// SQL runs raw SQL. SuppressTransaction runs it outside the migration's
// transaction.
func (m *DbMigration) SQL(sql string, opts ...Option) {
	if !m.require(sql, "sql") {
		return
	}
	o, ok := m.options(opts)
	if !ok {
		return
	}
	m.add(&models.SqlOperation{SQL: sql, SuppressTransaction: o.suppressTransaction}, o)
}

func nonNil(values map[string]any) map[string]any {
	if values == nil {
		return make(map[string]any)
	}
	return values
}
